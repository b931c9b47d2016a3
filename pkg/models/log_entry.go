package models

import "time"

// LogEventType categorizes an audit log entry.
type LogEventType string

const (
	// LogEventDecision records a decision-engine invocation.
	LogEventDecision LogEventType = "decision"
	// LogEventWorkflowStep records workflow creation and step advancement.
	LogEventWorkflowStep LogEventType = "workflow_step"
)

// LogEntry is an append-only audit record. Entries are never mutated or deleted
// by the engine.
type LogEntry struct {
	ID         string         `json:"id"`
	TenantID   string         `json:"tenant_id"`
	AgentType  string         `json:"agent_type"`
	WorkflowID *string        `json:"workflow_id,omitempty"`
	EventType  LogEventType   `json:"event_type"`
	Detail     map[string]any `json:"detail"`
	CreatedAt  time.Time      `json:"created_at"`
}
