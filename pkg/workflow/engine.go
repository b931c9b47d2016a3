// Package workflow turns a goal into a persisted fixed plan and advances it one
// step at a time.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/agentorhq/agentor/pkg/eventbus"
	"github.com/agentorhq/agentor/pkg/events"
	"github.com/agentorhq/agentor/pkg/lock"
	"github.com/agentorhq/agentor/pkg/models"
	"github.com/agentorhq/agentor/pkg/persistence"
	"github.com/agentorhq/agentor/pkg/protocol"
	"github.com/agentorhq/agentor/pkg/registry"
	"github.com/google/uuid"
)

// planTemplate is the fixed plan every workflow gets; it does not vary by goal,
// tenant or matched policy.
var planTemplate = []string{
	models.StepGatherContext,
	models.StepEvaluatePolicies,
	models.StepExecuteDecision,
	models.StepStoreResults,
}

// Step advancement outcomes.
const (
	StatusCompleted     = "completed"
	StatusStepCompleted = "step_completed"
)

// StepResult is the outcome of one ExecuteNextStep call.
type StepResult struct {
	Status   string           `json:"status"`
	Step     *models.PlanStep `json:"step,omitempty"`
	Workflow *models.Workflow `json:"workflow"`
}

// Engine creates and advances workflows. Advancement is serialized per workflow
// id through the lock manager, and the repository's conditional cursor write
// backs that up: a lost race surfaces as persistence.ErrWorkflowConflict instead
// of a double advance.
type Engine struct {
	workflows persistence.WorkflowRepository
	logs      persistence.LogRepository
	registry  *registry.Registry
	locks     lock.Manager
	eventBus  eventbus.EventBus
	logger    *slog.Logger
}

// NewEngine creates a new workflow engine.
func NewEngine(
	workflows persistence.WorkflowRepository,
	logs persistence.LogRepository,
	reg *registry.Registry,
	locks lock.Manager,
	eventBus eventbus.EventBus,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		workflows: workflows,
		logs:      logs,
		registry:  reg,
		locks:     locks,
		eventBus:  eventBus,
		logger:    logger.With("module", "workflow"),
	}
}

// CreatePlan persists a new workflow with the fixed step template, all steps
// pending and the cursor at zero.
func (e *Engine) CreatePlan(ctx context.Context, tenantID, agentType, goal string) (*models.Workflow, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate workflow ID: %w", err)
	}

	plan := make([]models.PlanStep, 0, len(planTemplate))
	for i, action := range planTemplate {
		plan = append(plan, models.PlanStep{
			Number: i,
			Action: action,
			Status: models.StepStatusPending,
		})
	}

	workflow := &models.Workflow{
		ID:          id.String(),
		TenantID:    tenantID,
		AgentType:   agentType,
		Goal:        goal,
		Plan:        plan,
		CurrentStep: 0,
		Status:      models.WorkflowStatusPending,
	}

	err = e.workflows.Create(ctx, workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to create workflow: %w", err)
	}

	err = e.appendStepLog(ctx, workflow, map[string]any{
		"event":       "workflow_created",
		"goal":        goal,
		"plan_length": len(plan),
	})
	if err != nil {
		return nil, err
	}

	e.publish(ctx, workflow.ID, events.WorkflowCreated{
		BaseEvent:  events.NewBaseEvent(events.WorkflowCreatedEvent, tenantID, agentType),
		WorkflowID: workflow.ID,
		Goal:       goal,
		PlanLength: len(plan),
	})

	e.logger.InfoContext(ctx, "Workflow created",
		"workflow_id", workflow.ID,
		"tenant_id", tenantID,
		"agent_type", agentType)

	return workflow, nil
}

// ExecuteNextStep advances the workflow by exactly one step. Calling it on an
// already exhausted workflow is a no-op that reports completed; it never mutates
// the plan past its length.
func (e *Engine) ExecuteNextStep(ctx context.Context, workflowID string) (*StepResult, error) {
	release, err := e.locks.Acquire(ctx, "workflow:"+workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire workflow lease: %w", err)
	}
	defer release()

	workflow, err := e.workflows.GetByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	if workflow.Exhausted() {
		err := e.workflows.MarkCompleted(ctx, workflow.ID)
		if err != nil {
			return nil, err
		}

		workflow.Status = models.WorkflowStatusCompleted

		return &StepResult{Status: StatusCompleted, Workflow: workflow}, nil
	}

	step := workflow.NextStep()

	result, err := e.runStepHandler(ctx, workflow, step)
	if err != nil {
		return nil, fmt.Errorf("step %q failed: %w", step.Action, err)
	}

	result["completed_at"] = time.Now().UTC().Format(time.RFC3339Nano)

	updated, err := e.workflows.AdvanceStep(ctx, workflow.ID, workflow.CurrentStep, result)
	if err != nil {
		return nil, err
	}

	completedStep := &updated.Plan[updated.CurrentStep-1]

	err = e.appendStepLog(ctx, updated, map[string]any{
		"event":       "step_completed",
		"step_number": completedStep.Number,
		"action":      completedStep.Action,
		"result":      completedStep.Result,
	})
	if err != nil {
		return nil, err
	}

	e.publish(ctx, updated.ID, events.WorkflowStepCompleted{
		BaseEvent:  events.NewBaseEvent(events.WorkflowStepCompletedEvent, updated.TenantID, updated.AgentType),
		WorkflowID: updated.ID,
		StepNumber: completedStep.Number,
		StepAction: completedStep.Action,
		Result:     completedStep.Result,
	})

	if updated.Status == models.WorkflowStatusCompleted {
		e.publish(ctx, updated.ID, events.WorkflowCompleted{
			BaseEvent:  events.NewBaseEvent(events.WorkflowCompletedEvent, updated.TenantID, updated.AgentType),
			WorkflowID: updated.ID,
		})
	}

	return &StepResult{Status: StatusStepCompleted, Step: completedStep, Workflow: updated}, nil
}

// runStepHandler invokes the registered handler for the step's action. Without
// a registration the step is bookkeeping only.
func (e *Engine) runStepHandler(ctx context.Context, workflow *models.Workflow, step *models.PlanStep) (map[string]any, error) {
	handler, err := e.registry.CreateStepHandler(step.Action, nil)
	if err != nil {
		if errors.Is(err, registry.ErrHandlerNotRegistered) {
			e.logger.DebugContext(ctx, "No handler for step, bookkeeping only",
				"workflow_id", workflow.ID,
				"action", step.Action)

			return map[string]any{}, nil
		}

		return nil, err
	}

	result, err := handler.Execute(ctx, protocol.StepContext{Workflow: workflow, Step: step})
	if err != nil {
		return nil, err
	}

	if result == nil {
		result = map[string]any{}
	}

	return result, nil
}

func (e *Engine) appendStepLog(ctx context.Context, workflow *models.Workflow, detail map[string]any) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("failed to generate log entry ID: %w", err)
	}

	workflowID := workflow.ID
	entry := &models.LogEntry{
		ID:         id.String(),
		TenantID:   workflow.TenantID,
		AgentType:  workflow.AgentType,
		WorkflowID: &workflowID,
		EventType:  models.LogEventWorkflowStep,
		Detail:     detail,
		CreatedAt:  time.Now().UTC(),
	}

	err = e.logs.Append(ctx, entry)
	if err != nil {
		return fmt.Errorf("failed to append workflow log entry: %w", err)
	}

	return nil
}

func (e *Engine) publish(ctx context.Context, key string, event eventbus.Event) {
	if e.eventBus == nil {
		return
	}

	err := e.eventBus.Publish(ctx, key, event)
	if err != nil {
		// Event delivery is best effort; the audit log is the durable record.
		e.logger.ErrorContext(ctx, "Failed to publish event", "type", event.GetType(), "error", err)
	}
}
