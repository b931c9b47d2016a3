// Package orchestrator is the façade that turns one agent request into a task,
// a decision and, depending on run mode, a workflow driven to completion.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/agentorhq/agentor/pkg/decision"
	"github.com/agentorhq/agentor/pkg/eventbus"
	"github.com/agentorhq/agentor/pkg/events"
	"github.com/agentorhq/agentor/pkg/memory"
	"github.com/agentorhq/agentor/pkg/models"
	"github.com/agentorhq/agentor/pkg/otelhelper"
	"github.com/agentorhq/agentor/pkg/persistence"
	"github.com/agentorhq/agentor/pkg/workflow"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Request validation errors. Raised before any state is touched.
var (
	ErrMissingTenantID  = errors.New("tenant_id is required")
	ErrMissingAgentType = errors.New("agent_type is required")
	ErrMissingGoal      = errors.New("goal is required")
)

// IsValidationError checks if an error is a request validation error.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrMissingTenantID) ||
		errors.Is(err, ErrMissingAgentType) ||
		errors.Is(err, ErrMissingGoal)
}

// RunRequest is one orchestration request.
type RunRequest struct {
	TenantID  string         `json:"tenant_id"`
	AgentType string         `json:"agent_type"`
	Goal      string         `json:"goal"`
	Input     map[string]any `json:"input,omitempty"`
	Mode      models.RunMode `json:"mode,omitempty"`
}

// RunResult is what the caller gets back from a successful run.
type RunResult struct {
	TaskID     string           `json:"task_id"`
	Mode       models.RunMode   `json:"mode"`
	Decision   *models.Decision `json:"decision"`
	WorkflowID string           `json:"workflow_id,omitempty"`
	Executed   bool             `json:"executed"`
}

// Orchestrator runs the decision → memory → workflow chain for one request. It
// is the single place that finalizes task status when anything downstream fails.
type Orchestrator struct {
	tasks     persistence.TaskRepository
	decisions *decision.Engine
	memories  *memory.Store
	workflows *workflow.Engine
	eventBus  eventbus.EventBus
	logger    *slog.Logger
	tracer    trace.Tracer
}

// NewOrchestrator creates a new orchestrator.
func NewOrchestrator(
	tasks persistence.TaskRepository,
	decisions *decision.Engine,
	memories *memory.Store,
	workflows *workflow.Engine,
	eventBus eventbus.EventBus,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		tasks:     tasks,
		decisions: decisions,
		memories:  memories,
		workflows: workflows,
		eventBus:  eventBus,
		logger:    logger.With("module", "orchestrator"),
		tracer:    otel.Tracer("agentor.orchestrator"),
	}
}

// normalizeMode maps the wire mode onto the three first-class run modes:
// simulate stops after the decision, auto drives the workflow to completion,
// and anything else (including an absent mode) creates the plan without
// running it.
func normalizeMode(mode models.RunMode) models.RunMode {
	switch mode {
	case models.RunModeSimulate, "":
		return models.RunModeSimulate
	case models.RunModeAuto:
		return models.RunModeAuto
	default:
		return models.RunModePlan
	}
}

func (req *RunRequest) validate() error {
	if req.TenantID == "" {
		return ErrMissingTenantID
	}

	if req.AgentType == "" {
		return ErrMissingAgentType
	}

	if req.Goal == "" {
		return ErrMissingGoal
	}

	return nil
}

// RunAgent executes one orchestration request end to end.
func (o *Orchestrator) RunAgent(ctx context.Context, req RunRequest) (*RunResult, error) {
	err := req.validate()
	if err != nil {
		return nil, err
	}

	mode := normalizeMode(req.Mode)

	ctx, span := otelhelper.StartSpan(ctx, o.tracer, "run_agent",
		attribute.String(otelhelper.TenantIDKey, req.TenantID),
		attribute.String(otelhelper.AgentTypeKey, req.AgentType),
		attribute.String(otelhelper.RunModeKey, string(mode)),
	)
	defer span.End()

	task, err := o.createTask(ctx, req)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	span.SetAttributes(attribute.String(otelhelper.TaskIDKey, task.ID))

	dec, err := o.decisions.DecideNextAction(ctx, req.TenantID, req.AgentType, req.Goal, req.Input)
	if err != nil {
		o.failTask(ctx, task, err)
		otelhelper.SetError(span, err)

		return nil, err
	}

	o.publish(ctx, task.ID, events.DecisionMade{
		BaseEvent:       events.NewBaseEvent(events.DecisionMadeEvent, req.TenantID, req.AgentType),
		TaskID:          task.ID,
		Goal:            req.Goal,
		Decision:        dec,
		PoliciesApplied: len(dec.AppliedPolicies),
	})

	// The chosen action feeds future decisions for this tenant/agent pair.
	_, err = o.memories.Record(ctx, req.TenantID, req.AgentType, models.MemoryKindObservation, map[string]any{
		"goal":   req.Goal,
		"action": dec.Action,
	})
	if err != nil {
		o.failTask(ctx, task, err)
		otelhelper.SetError(span, err)

		return nil, err
	}

	if mode == models.RunModeSimulate {
		result := &RunResult{TaskID: task.ID, Mode: mode, Decision: dec, Executed: false}

		err = o.completeTask(ctx, task, result)
		if err != nil {
			otelhelper.SetError(span, err)

			return nil, err
		}

		return result, nil
	}

	wf, err := o.workflows.CreatePlan(ctx, req.TenantID, req.AgentType, req.Goal)
	if err != nil {
		o.failTask(ctx, task, err)
		otelhelper.SetError(span, err)

		return nil, err
	}

	span.SetAttributes(attribute.String(otelhelper.WorkflowIDKey, wf.ID))

	executed := false

	if mode == models.RunModeAuto {
		err = o.driveToCompletion(ctx, wf)
		if err != nil {
			o.failTask(ctx, task, err)
			otelhelper.SetError(span, err)

			return nil, err
		}

		executed = true
	}

	result := &RunResult{TaskID: task.ID, Mode: mode, Decision: dec, WorkflowID: wf.ID, Executed: executed}

	err = o.completeTask(ctx, task, result)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	return result, nil
}

// driveToCompletion advances the workflow until it reports completed. The loop
// is bounded by the plan length and honors context cancellation, so a run can
// never spin past its plan.
func (o *Orchestrator) driveToCompletion(ctx context.Context, wf *models.Workflow) error {
	for range len(wf.Plan) + 1 {
		err := ctx.Err()
		if err != nil {
			return fmt.Errorf("run cancelled: %w", err)
		}

		stepResult, err := o.workflows.ExecuteNextStep(ctx, wf.ID)
		if err != nil {
			return err
		}

		if stepResult.Status != workflow.StatusStepCompleted {
			return nil
		}
	}

	return nil
}

func (o *Orchestrator) createTask(ctx context.Context, req RunRequest) (*models.Task, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate task ID: %w", err)
	}

	task := &models.Task{
		ID:        id.String(),
		TenantID:  req.TenantID,
		AgentType: req.AgentType,
		Goal:      req.Goal,
		Input:     req.Input,
		Status:    models.TaskStatusRunning,
	}

	err = o.tasks.Create(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return task, nil
}

func (o *Orchestrator) completeTask(ctx context.Context, task *models.Task, result *RunResult) error {
	payload := map[string]any{
		"decision": result.Decision,
		"executed": result.Executed,
	}

	if result.WorkflowID != "" {
		payload["workflow_id"] = result.WorkflowID
	}

	err := o.tasks.Finalize(ctx, task.ID, models.TaskStatusCompleted, payload)
	if err != nil {
		return fmt.Errorf("failed to complete task: %w", err)
	}

	o.publish(ctx, task.ID, events.RunCompleted{
		BaseEvent:  events.NewBaseEvent(events.RunCompletedEvent, task.TenantID, task.AgentType),
		TaskID:     task.ID,
		Mode:       result.Mode,
		WorkflowID: result.WorkflowID,
		Executed:   result.Executed,
	})

	return nil
}

// failTask transitions the task to error with the failure captured. The task is
// never left running: if even the finalize fails there is nothing more to do
// than log it, since the original error is about to be re-raised.
func (o *Orchestrator) failTask(ctx context.Context, task *models.Task, cause error) {
	err := o.tasks.Finalize(ctx, task.ID, models.TaskStatusError, map[string]any{
		"error": cause.Error(),
	})
	if err != nil {
		o.logger.ErrorContext(ctx, "Failed to finalize errored task",
			"task_id", task.ID,
			"error", err,
			"cause", cause)
	}

	o.publish(ctx, task.ID, events.RunFailed{
		BaseEvent: events.NewBaseEvent(events.RunFailedEvent, task.TenantID, task.AgentType),
		TaskID:    task.ID,
		Error:     cause.Error(),
	})
}

func (o *Orchestrator) publish(ctx context.Context, key string, event eventbus.Event) {
	if o.eventBus == nil {
		return
	}

	err := o.eventBus.Publish(ctx, key, event)
	if err != nil {
		o.logger.ErrorContext(ctx, "Failed to publish event", "type", event.GetType(), "error", err)
	}
}
