// Package gathercontext provides the native handler for the gather_context plan step.
package gathercontext

import (
	"context"
	"fmt"

	"github.com/agentorhq/agentor/pkg/memory"
	"github.com/agentorhq/agentor/pkg/models"
	"github.com/agentorhq/agentor/pkg/protocol"
)

// contextWindow matches the decision engine's memory context bound.
const contextWindow = 20

type Handler struct {
	memories *memory.Store
}

// Execute pulls the tenant's recent memory so the step result documents what
// context was available at this point of the run.
func (h *Handler) Execute(ctx context.Context, stepCtx protocol.StepContext) (map[string]any, error) {
	records, err := h.memories.Recent(ctx, stepCtx.Workflow.TenantID, stepCtx.Workflow.AgentType, contextWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to gather context: %w", err)
	}

	result := map[string]any{
		"memories_considered": len(records),
	}

	if len(records) > 0 {
		result["latest_memory_id"] = records[0].ID
	}

	return result, nil
}

type HandlerFactory struct {
	memories *memory.Store
}

func NewHandlerFactory(memories *memory.Store) *HandlerFactory {
	return &HandlerFactory{memories: memories}
}

func (f *HandlerFactory) Create(_ map[string]any) (protocol.StepHandler, error) {
	return &Handler{memories: f.memories}, nil
}

func (f *HandlerFactory) ID() string {
	return models.StepGatherContext
}
