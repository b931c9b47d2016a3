// Package events defines event types and structures for orchestration lifecycle notifications.
package events

import (
	"time"

	"github.com/agentorhq/agentor/pkg/models"
	"github.com/google/uuid"
)

type EventType string

// Kafka topic for orchestration events.
const Topic = "agentor.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	DecisionMadeEvent          EventType = "decision.made"
	WorkflowCreatedEvent       EventType = "workflow.created"
	WorkflowStepCompletedEvent EventType = "workflow.step.completed"
	WorkflowCompletedEvent     EventType = "workflow.completed"
	RunCompletedEvent          EventType = "run.completed"
	RunFailedEvent             EventType = "run.failed"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	TenantID  string         `json:"tenant_id"`
	AgentType string         `json:"agent_type"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// NewBaseEvent creates a base event with a fresh id and timestamp.
func NewBaseEvent(eventType EventType, tenantID, agentType string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		TenantID:  tenantID,
		AgentType: agentType,
	}
}

type DecisionMade struct {
	BaseEvent

	TaskID          string           `json:"task_id,omitempty"`
	Goal            string           `json:"goal"`
	Decision        *models.Decision `json:"decision"`
	PoliciesApplied int              `json:"policies_applied"`
}

func (d DecisionMade) GetType() EventType {
	return DecisionMadeEvent
}

type WorkflowCreated struct {
	BaseEvent

	WorkflowID string `json:"workflow_id"`
	Goal       string `json:"goal"`
	PlanLength int    `json:"plan_length"`
}

func (w WorkflowCreated) GetType() EventType {
	return WorkflowCreatedEvent
}

type WorkflowStepCompleted struct {
	BaseEvent

	WorkflowID string         `json:"workflow_id"`
	StepNumber int            `json:"step_number"`
	StepAction string         `json:"step_action"`
	Result     map[string]any `json:"result,omitempty"`
}

func (w WorkflowStepCompleted) GetType() EventType {
	return WorkflowStepCompletedEvent
}

type WorkflowCompleted struct {
	BaseEvent

	WorkflowID string `json:"workflow_id"`
}

func (w WorkflowCompleted) GetType() EventType {
	return WorkflowCompletedEvent
}

type RunCompleted struct {
	BaseEvent

	TaskID     string         `json:"task_id"`
	Mode       models.RunMode `json:"mode"`
	WorkflowID string         `json:"workflow_id,omitempty"`
	Executed   bool           `json:"executed"`
}

func (r RunCompleted) GetType() EventType {
	return RunCompletedEvent
}

type RunFailed struct {
	BaseEvent

	TaskID string `json:"task_id"`
	Error  string `json:"error"`
}

func (r RunFailed) GetType() EventType {
	return RunFailedEvent
}
