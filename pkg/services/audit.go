package services

import (
	"context"

	"github.com/agentorhq/agentor/pkg/models"
	"github.com/agentorhq/agentor/pkg/persistence"
)

// logListLimit caps a single log listing. The log is append-only and
// unbounded; readers page from the newest entries down.
const logListLimit = 100

// Audit is the read side for operators: decision and workflow logs, task
// outcomes, and workflow state.
type Audit struct {
	persistence persistence.Persistence
}

// NewAudit creates a new audit service.
func NewAudit(p persistence.Persistence) *Audit {
	return &Audit{persistence: p}
}

// Logs returns a tenant's most recent log entries, newest first, capped at
// logListLimit.
func (s *Audit) Logs(ctx context.Context, tenantID string) ([]*models.LogEntry, error) {
	if tenantID == "" {
		return nil, ErrEmptyTenantID
	}

	return s.persistence.LogRepository().ListByTenant(ctx, tenantID, logListLimit)
}

// Task returns a task by its id.
func (s *Audit) Task(ctx context.Context, id string) (*models.Task, error) {
	return s.persistence.TaskRepository().GetByID(ctx, id)
}

// Workflow returns a workflow by its id.
func (s *Audit) Workflow(ctx context.Context, id string) (*models.Workflow, error) {
	return s.persistence.WorkflowRepository().GetByID(ctx, id)
}
