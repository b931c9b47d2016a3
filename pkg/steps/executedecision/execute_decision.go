// Package executedecision provides the native handler for the execute_decision plan step.
//
// The native handler only records that execution was delegated: real-world side
// effects (notifications, API calls, ...) belong to deployment-specific handlers
// registered for this action in place of the native one.
package executedecision

import (
	"context"

	"github.com/agentorhq/agentor/pkg/models"
	"github.com/agentorhq/agentor/pkg/protocol"
)

type Handler struct{}

func (h *Handler) Execute(_ context.Context, stepCtx protocol.StepContext) (map[string]any, error) {
	return map[string]any{
		"goal":      stepCtx.Workflow.Goal,
		"delegated": true,
	}, nil
}

type HandlerFactory struct{}

func NewHandlerFactory() *HandlerFactory {
	return &HandlerFactory{}
}

func (f *HandlerFactory) Create(_ map[string]any) (protocol.StepHandler, error) {
	return &Handler{}, nil
}

func (f *HandlerFactory) ID() string {
	return models.StepExecuteDecision
}
