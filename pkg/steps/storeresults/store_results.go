// Package storeresults provides the native handler for the store_results plan step.
package storeresults

import (
	"context"
	"fmt"

	"github.com/agentorhq/agentor/pkg/memory"
	"github.com/agentorhq/agentor/pkg/models"
	"github.com/agentorhq/agentor/pkg/protocol"
)

type Handler struct {
	memories *memory.Store
}

// Execute writes a workflow_result memory record so the finished run feeds back
// into future decisions for the same tenant and agent type.
func (h *Handler) Execute(ctx context.Context, stepCtx protocol.StepContext) (map[string]any, error) {
	record, err := h.memories.Record(ctx, stepCtx.Workflow.TenantID, stepCtx.Workflow.AgentType,
		models.MemoryKindWorkflowResult, map[string]any{
			"workflow_id": stepCtx.Workflow.ID,
			"goal":        stepCtx.Workflow.Goal,
		})
	if err != nil {
		return nil, fmt.Errorf("failed to store workflow result: %w", err)
	}

	return map[string]any{
		"memory_id": record.ID,
	}, nil
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
	return models.StepStoreResults
}
