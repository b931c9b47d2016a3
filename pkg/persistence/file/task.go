package file

import (
	"context"
	"os"
	"time"

	"github.com/agentorhq/agentor/pkg/models"
	"github.com/agentorhq/agentor/pkg/persistence"
)

const tasksDir = "tasks"

// TaskRepository handles task file operations.
type TaskRepository struct {
	root string
}

// NewTaskRepository creates a new task repository.
func NewTaskRepository(root string) *TaskRepository {
	return &TaskRepository{root: root}
}

// Create stores a new task.
func (tr *TaskRepository) Create(_ context.Context, task *models.Task) error {
	now := time.Now().UTC()

	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}

	task.UpdatedAt = now

	return writeEntity(tr.root, tasksDir, task.ID, task)
}

// GetByID returns a task by its id.
func (tr *TaskRepository) GetByID(_ context.Context, id string) (*models.Task, error) {
	var task models.Task

	err := readEntity(tr.root, tasksDir, id, &task)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.ErrTaskNotFound
		}

		return nil, err
	}

	return &task, nil
}

// Finalize transitions a task to a terminal status exactly once.
func (tr *TaskRepository) Finalize(ctx context.Context, id string, status models.TaskStatus, result map[string]any) error {
	task, err := tr.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if task.Terminal() {
		return persistence.ErrTaskFinalized
	}

	task.Status = status
	task.Result = result
	task.UpdatedAt = time.Now().UTC()

	return writeEntity(tr.root, tasksDir, task.ID, task)
}
