package file

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/agentorhq/agentor/pkg/models"
	"github.com/agentorhq/agentor/pkg/persistence"
)

const workflowsDir = "workflows"

// WorkflowRepository handles workflow file operations. A repository-level mutex
// makes AdvanceStep's read-check-write atomic within the process, mirroring the
// conditional UPDATE the postgresql implementation uses.
type WorkflowRepository struct {
	root string
	mu   sync.Mutex
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(root string) *WorkflowRepository {
	return &WorkflowRepository{root: root}
}

// Create stores a new workflow.
func (wr *WorkflowRepository) Create(_ context.Context, workflow *models.Workflow) error {
	now := time.Now().UTC()

	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	return writeEntity(wr.root, workflowsDir, workflow.ID, workflow)
}

// GetByID returns a workflow by its id.
func (wr *WorkflowRepository) GetByID(_ context.Context, id string) (*models.Workflow, error) {
	var workflow models.Workflow

	err := readEntity(wr.root, workflowsDir, id, &workflow)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewWorkflowError("GetByID", id, persistence.ErrWorkflowNotFound)
		}

		return nil, persistence.NewWorkflowError("GetByID", id, err)
	}

	return &workflow, nil
}

// AdvanceStep atomically completes the step at expectedStep and moves the cursor.
func (wr *WorkflowRepository) AdvanceStep(ctx context.Context, id string, expectedStep int, result map[string]any) (*models.Workflow, error) {
	wr.mu.Lock()
	defer wr.mu.Unlock()

	workflow, err := wr.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if workflow.CurrentStep != expectedStep || expectedStep >= len(workflow.Plan) {
		return nil, persistence.NewWorkflowError("AdvanceStep", id, persistence.ErrWorkflowConflict)
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

	err = writeEntity(wr.root, workflowsDir, workflow.ID, workflow)
	if err != nil {
		return nil, persistence.NewWorkflowError("AdvanceStep", id, err)
	}

	return workflow, nil
}

// MarkCompleted stamps an exhausted workflow completed without touching the plan.
func (wr *WorkflowRepository) MarkCompleted(ctx context.Context, id string) error {
	wr.mu.Lock()
	defer wr.mu.Unlock()

	workflow, err := wr.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if workflow.Status == models.WorkflowStatusCompleted {
		return nil
	}

	workflow.Status = models.WorkflowStatusCompleted
	workflow.UpdatedAt = time.Now().UTC()

	err = writeEntity(wr.root, workflowsDir, workflow.ID, workflow)
	if err != nil {
		return persistence.NewWorkflowError("MarkCompleted", id, err)
	}

	return nil
}
