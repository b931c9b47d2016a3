// Package protocol defines the interfaces and contracts for pluggable workflow
// step handlers.
package protocol

import (
	"context"

	"github.com/agentorhq/agentor/pkg/models"
)

// StepContext carries the workflow and the step being advanced into a handler.
type StepContext struct {
	Workflow *models.Workflow
	Step     *models.PlanStep
}

// StepHandler performs the real work of one plan step during advancement. Its
// return value becomes the step's persisted result.
type StepHandler interface {
	Execute(ctx context.Context, stepCtx StepContext) (map[string]any, error)
}

// StepHandlerFactory creates step handler instances for one step action.
type StepHandlerFactory interface {
	Create(config map[string]any) (StepHandler, error)

	// ID returns the step action name this factory handles.
	ID() string
}
