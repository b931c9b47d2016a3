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

// TaskRepository handles task-related database operations.
type TaskRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewTaskRepository creates a new task repository.
func NewTaskRepository(db *sql.DB, logger *slog.Logger) *TaskRepository {
	return &TaskRepository{db: db, logger: logger}
}

// Create stores a new task.
func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	inputJSON, err := json.Marshal(task.Input)
	if err != nil {
		return fmt.Errorf("failed to marshal task input: %w", err)
	}

	query := `
		INSERT INTO tasks (id, tenant_id, agent_type, goal, input, status, result, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULL, $7, $8)
	`

	_, err = r.db.ExecContext(ctx, query,
		task.ID,
		task.TenantID,
		task.AgentType,
		task.Goal,
		inputJSON,
		task.Status,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}

	return nil
}

// GetByID returns a task by its ID.
func (r *TaskRepository) GetByID(ctx context.Context, id string) (*models.Task, error) {
	query := `
		SELECT
			id
		  , tenant_id
		  , agent_type
		  , goal
		  , input
		  , status
		  , result
		  , created_at
		  , updated_at
		FROM tasks
		WHERE id = $1
	`

	var (
		task       models.Task
		inputJSON  []byte
		resultJSON []byte
	)

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&task.ID,
		&task.TenantID,
		&task.AgentType,
		&task.Goal,
		&inputJSON,
		&task.Status,
		&resultJSON,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrTaskNotFound
		}

		return nil, fmt.Errorf("failed to scan task: %w", err)
	}

	if inputJSON != nil {
		err = json.Unmarshal(inputJSON, &task.Input)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal task input: %w", err)
		}
	}

	if resultJSON != nil {
		err = json.Unmarshal(resultJSON, &task.Result)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal task result: %w", err)
		}
	}

	return &task, nil
}

// Finalize transitions a task from running to a terminal status exactly once.
// The update is conditional on the stored status still being running, so a
// second finalization attempt cannot overwrite the first outcome.
func (r *TaskRepository) Finalize(ctx context.Context, id string, status models.TaskStatus, result map[string]any) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal task result: %w", err)
	}

	query := `
		UPDATE tasks
		SET status = $2, result = $3, updated_at = $4
		WHERE id = $1 AND status = $5
	`

	updateResult, err := r.db.ExecContext(ctx, query, id, status, resultJSON, time.Now().UTC(), models.TaskStatusRunning)
	if err != nil {
		return fmt.Errorf("failed to finalize task: %w", err)
	}

	affected, err := updateResult.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if affected == 0 {
		_, err := r.GetByID(ctx, id)
		if err != nil {
			return err
		}

		return persistence.ErrTaskFinalized
	}

	return nil
}
