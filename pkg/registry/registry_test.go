package registry

import (
	"context"
	"log/slog"
	"testing"

	"github.com/agentorhq/agentor/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubHandler struct{}

func (stubHandler) Execute(_ context.Context, _ protocol.StepContext) (map[string]any, error) {
	return map[string]any{"ran": true}, nil
}

type stubFactory struct {
	id string
}

func (f stubFactory) ID() string {
	return f.id
}

func (f stubFactory) Create(_ map[string]any) (protocol.StepHandler, error) {
	return stubHandler{}, nil
}

func TestRegistry_RegisterAndCreate(t *testing.T) {
	reg := NewRegistry(slog.New(slog.DiscardHandler))
	reg.RegisterStepHandler(stubFactory{id: "custom_step"})

	handler, err := reg.CreateStepHandler("custom_step", nil)
	require.NoError(t, err)

	result, err := handler.Execute(t.Context(), protocol.StepContext{})
	require.NoError(t, err)
	assert.Equal(t, true, result["ran"])
}

func TestRegistry_UnknownAction(t *testing.T) {
	reg := NewRegistry(slog.New(slog.DiscardHandler))

	_, err := reg.CreateStepHandler("missing", nil)
	assert.ErrorIs(t, err, ErrHandlerNotRegistered)
}

func TestRegistry_ReplaceRegistration(t *testing.T) {
	reg := NewRegistry(slog.New(slog.DiscardHandler))
	reg.RegisterStepHandler(stubFactory{id: "step"})
	reg.RegisterStepHandler(stubFactory{id: "step"})

	assert.Len(t, reg.RegisteredActions(), 1)
}
