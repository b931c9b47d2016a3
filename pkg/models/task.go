package models

import "time"

// TaskStatus represents the lifecycle state of an orchestration run.
type TaskStatus string

const (
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusError     TaskStatus = "error"
)

// RunMode controls how far an orchestration request is taken.
type RunMode string

const (
	// RunModeSimulate stops after the decision; no workflow is created.
	RunModeSimulate RunMode = "simulate"
	// RunModePlan creates the workflow but does not advance it.
	RunModePlan RunMode = "plan"
	// RunModeAuto creates the workflow and drives it to completion.
	RunModeAuto RunMode = "auto"
)

// Task is one logical orchestration run. It is created with status running and
// transitions exactly once to a terminal status.
type Task struct {
	ID        string         `json:"id"`
	TenantID  string         `json:"tenant_id"`
	AgentType string         `json:"agent_type"`
	Goal      string         `json:"goal"`
	Input     map[string]any `json:"input,omitempty"`
	Status    TaskStatus     `json:"status"`
	Result    map[string]any `json:"result,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Terminal reports whether the task has reached a final status.
func (t *Task) Terminal() bool {
	return t.Status == TaskStatusCompleted || t.Status == TaskStatusError
}
