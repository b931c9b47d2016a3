// Package persistence provides the data storage abstraction layer for the
// orchestration engine: memories, policies, tasks, workflows and audit logs.
package persistence

import (
	"context"

	"github.com/agentorhq/agentor/pkg/models"
)

type Persistence interface {
	MemoryRepository() MemoryRepository
	PolicyRepository() PolicyRepository
	TaskRepository() TaskRepository
	WorkflowRepository() WorkflowRepository
	LogRepository() LogRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// MemoryRepository stores immutable observations. There are deliberately no
// update or delete operations.
type MemoryRepository interface {
	Append(ctx context.Context, record *models.MemoryRecord) error

	// Recent returns up to limit records for the tenant/agent-type pair,
	// strictly newest-first. An empty result is a nil error with an empty slice.
	Recent(ctx context.Context, tenantID, agentType string, limit int) ([]*models.MemoryRecord, error)
}

// PolicyRepository stores declarative policies. The engine reads them; the
// administration surface writes them.
type PolicyRepository interface {
	Save(ctx context.Context, policy *models.Policy) error
	GetByID(ctx context.Context, id string) (*models.Policy, error)
	ListByTenant(ctx context.Context, tenantID string) ([]*models.Policy, error)

	// Active returns active-flagged policies for the exact tenant/agent-type
	// pair, ordered by ascending priority then creation time. This ordering is
	// the precedence contract the decision engine relies on.
	Active(ctx context.Context, tenantID, agentType string) ([]*models.Policy, error)

	Delete(ctx context.Context, id string) error
}

// TaskRepository stores orchestration runs.
type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, id string) (*models.Task, error)

	// Finalize transitions a task from running to a terminal status exactly once.
	Finalize(ctx context.Context, id string, status models.TaskStatus, result map[string]any) error
}

// WorkflowRepository stores persisted plans.
type WorkflowRepository interface {
	Create(ctx context.Context, workflow *models.Workflow) error
	GetByID(ctx context.Context, id string) (*models.Workflow, error)

	// AdvanceStep atomically marks the step at expectedStep completed with the
	// given result, moves the cursor to expectedStep+1 and updates the overall
	// status. The write is conditional on the stored cursor still being
	// expectedStep; a lost race returns ErrWorkflowConflict and mutates nothing.
	AdvanceStep(ctx context.Context, id string, expectedStep int, result map[string]any) (*models.Workflow, error)

	// MarkCompleted stamps an exhausted workflow completed. Safe to call
	// repeatedly; it never touches the plan.
	MarkCompleted(ctx context.Context, id string) error
}

// LogRepository stores append-only audit entries.
type LogRepository interface {
	Append(ctx context.Context, entry *models.LogEntry) error

	// ListByTenant returns up to limit entries for the tenant, newest-first.
	ListByTenant(ctx context.Context, tenantID string, limit int) ([]*models.LogEntry, error)
}
