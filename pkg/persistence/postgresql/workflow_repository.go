package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/agentorhq/agentor/pkg/models"
	"github.com/agentorhq/agentor/pkg/persistence"
)

// WorkflowRepository handles workflow-related database operations.
type WorkflowRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(db *sql.DB, logger *slog.Logger) *WorkflowRepository {
	return &WorkflowRepository{db: db, logger: logger}
}

// Create stores a new workflow.
func (r *WorkflowRepository) Create(ctx context.Context, workflow *models.Workflow) error {
	now := time.Now().UTC()

	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	planJSON, err := json.Marshal(workflow.Plan)
	if err != nil {
		return fmt.Errorf("failed to marshal workflow plan: %w", err)
	}

	query := `
		INSERT INTO workflows (id, tenant_id, agent_type, goal, plan, current_step, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = r.db.ExecContext(ctx, query,
		workflow.ID,
		workflow.TenantID,
		workflow.AgentType,
		workflow.Goal,
		planJSON,
		workflow.CurrentStep,
		workflow.Status,
		workflow.CreatedAt,
		workflow.UpdatedAt,
	)
	if err != nil {
		return persistence.NewWorkflowError("Create", workflow.ID, err)
	}

	return nil
}

// GetByID returns a workflow by its ID.
func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*models.Workflow, error) {
	return r.getByID(ctx, r.db, id, false)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *WorkflowRepository) getByID(ctx context.Context, q querier, id string, forUpdate bool) (*models.Workflow, error) {
	query := `
		SELECT
			id
		  , tenant_id
		  , agent_type
		  , goal
		  , plan
		  , current_step
		  , status
		  , created_at
		  , updated_at
		FROM workflows
		WHERE id = $1
	`

	if forUpdate {
		query += " FOR UPDATE"
	}

	var (
		workflow models.Workflow
		planJSON []byte
	)

	err := q.QueryRowContext(ctx, query, id).Scan(
		&workflow.ID,
		&workflow.TenantID,
		&workflow.AgentType,
		&workflow.Goal,
		&planJSON,
		&workflow.CurrentStep,
		&workflow.Status,
		&workflow.CreatedAt,
		&workflow.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewWorkflowError("GetByID", id, persistence.ErrWorkflowNotFound)
		}

		return nil, persistence.NewWorkflowError("GetByID", id, err)
	}

	err = json.Unmarshal(planJSON, &workflow.Plan)
	if err != nil {
		return nil, persistence.NewWorkflowError("GetByID", id, fmt.Errorf("failed to unmarshal plan: %w", err))
	}

	return &workflow, nil
}

// AdvanceStep atomically completes the step at expectedStep and moves the
// cursor. The row is locked for the duration of the transaction and the final
// UPDATE is additionally conditional on the stored cursor, so a lost race
// returns ErrWorkflowConflict and mutates nothing.
func (r *WorkflowRepository) AdvanceStep(ctx context.Context, id string, expectedStep int, result map[string]any) (*models.Workflow, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, persistence.NewWorkflowError("AdvanceStep", id, err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	workflow, err := r.getByID(ctx, tx, id, true)
	if err != nil {
		return nil, err
	}

	if workflow.CurrentStep != expectedStep || expectedStep >= len(workflow.Plan) {
		err = persistence.NewWorkflowError("AdvanceStep", id, persistence.ErrWorkflowConflict)

		return nil, err
	}

	workflow.Plan[expectedStep].Status = models.StepStatusCompleted
	workflow.Plan[expectedStep].Result = result
	workflow.CurrentStep = expectedStep + 1
	workflow.UpdatedAt = time.Now().UTC()

	if workflow.Exhausted() {
		workflow.Status = models.WorkflowStatusCompleted
	} else {
		workflow.Status = models.WorkflowStatusInProgress
	}

	planJSON, err := json.Marshal(workflow.Plan)
	if err != nil {
		return nil, persistence.NewWorkflowError("AdvanceStep", id, err)
	}

	updateQuery := `
		UPDATE workflows
		SET plan = $2, current_step = $3, status = $4, updated_at = $5
		WHERE id = $1 AND current_step = $6
	`

	updateResult, err := tx.ExecContext(ctx, updateQuery,
		workflow.ID,
		planJSON,
		workflow.CurrentStep,
		workflow.Status,
		workflow.UpdatedAt,
		expectedStep,
	)
	if err != nil {
		return nil, persistence.NewWorkflowError("AdvanceStep", id, err)
	}

	affected, err := updateResult.RowsAffected()
	if err != nil {
		return nil, persistence.NewWorkflowError("AdvanceStep", id, err)
	}

	if affected == 0 {
		err = persistence.NewWorkflowError("AdvanceStep", id, persistence.ErrWorkflowConflict)

		return nil, err
	}

	err = tx.Commit()
	if err != nil {
		return nil, persistence.NewWorkflowError("AdvanceStep", id, err)
	}

	return workflow, nil
}

// MarkCompleted stamps an exhausted workflow completed without touching the plan.
func (r *WorkflowRepository) MarkCompleted(ctx context.Context, id string) error {
	query := `
		UPDATE workflows
		SET status = $2, updated_at = $3
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, models.WorkflowStatusCompleted, time.Now().UTC())
	if err != nil {
		return persistence.NewWorkflowError("MarkCompleted", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewWorkflowError("MarkCompleted", id, err)
	}

	if affected == 0 {
		return persistence.NewWorkflowError("MarkCompleted", id, persistence.ErrWorkflowNotFound)
	}

	return nil
}
