package models

import "time"

// WorkflowStatus represents the lifecycle state of a workflow.
type WorkflowStatus string

const (
	WorkflowStatusPending    WorkflowStatus = "pending"     // Created, no step completed yet
	WorkflowStatusInProgress WorkflowStatus = "in_progress" // At least one step completed, steps remain
	WorkflowStatusCompleted  WorkflowStatus = "completed"   // Terminal, cursor reached plan length
)

// StepStatus represents the state of a single plan step.
type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusCompleted StepStatus = "completed"
)

// Plan step actions, in template order.
const (
	StepGatherContext    = "gather_context"
	StepEvaluatePolicies = "evaluate_policies"
	StepExecuteDecision  = "execute_decision"
	StepStoreResults     = "store_results"
)

// PlanStep is one fixed step in a workflow's plan.
type PlanStep struct {
	Number int            `json:"number"`
	Action string         `json:"action"`
	Status StepStatus     `json:"status"`
	Result map[string]any `json:"result,omitempty"`
}

// Workflow is a persisted plan tied to a task's goal. The plan is fixed at
// creation; the only mutations afterwards are advancing CurrentStep, marking the
// corresponding step completed and updating the overall status. CurrentStep never
// exceeds the plan length, and the status is completed exactly when it reaches it.
type Workflow struct {
	ID          string         `json:"id"`
	TenantID    string         `json:"tenant_id"`
	AgentType   string         `json:"agent_type"`
	Goal        string         `json:"goal"`
	Plan        []PlanStep     `json:"plan"`
	CurrentStep int            `json:"current_step"`
	Status      WorkflowStatus `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Exhausted reports whether the cursor has consumed the whole plan.
func (w *Workflow) Exhausted() bool {
	return w.CurrentStep >= len(w.Plan)
}

// NextStep returns the step the cursor points at, or nil once the plan is exhausted.
func (w *Workflow) NextStep() *PlanStep {
	if w.Exhausted() {
		return nil
	}

	return &w.Plan[w.CurrentStep]
}
