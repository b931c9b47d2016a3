package file

import (
	"fmt"
	"testing"
	"time"

	"github.com/agentorhq/agentor/pkg/models"
	"github.com/agentorhq/agentor/pkg/persistence"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRecordID(t *testing.T) string {
	t.Helper()

	id, err := uuid.NewV7()
	require.NoError(t, err)

	return id.String()
}

func TestMemoryRepository_RecentOrderingAndScope(t *testing.T) {
	p := NewPersistence(t.TempDir())
	repo := p.MemoryRepository()

	base := time.Now().UTC().Add(-time.Hour)

	for i := range 3 {
		require.NoError(t, repo.Append(t.Context(), &models.MemoryRecord{
			ID:        newRecordID(t),
			TenantID:  "acme",
			AgentType: "ops",
			Kind:      models.MemoryKindObservation,
			Content:   map[string]any{"seq": i},
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	// A different tenant and a different agent type must stay invisible.
	require.NoError(t, repo.Append(t.Context(), &models.MemoryRecord{
		ID:        newRecordID(t),
		TenantID:  "other",
		AgentType: "ops",
		Kind:      models.MemoryKindObservation,
		CreatedAt: base,
	}))
	require.NoError(t, repo.Append(t.Context(), &models.MemoryRecord{
		ID:        newRecordID(t),
		TenantID:  "acme",
		AgentType: "billing",
		Kind:      models.MemoryKindObservation,
		CreatedAt: base,
	}))

	records, err := repo.Recent(t.Context(), "acme", "ops", 10)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.EqualValues(t, 2, records[0].Content["seq"])
	assert.EqualValues(t, 0, records[2].Content["seq"])

	limited, err := repo.Recent(t.Context(), "acme", "ops", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
	assert.EqualValues(t, 2, limited[0].Content["seq"])
}

func TestMemoryRepository_RecentEmpty(t *testing.T) {
	p := NewPersistence(t.TempDir())

	records, err := p.MemoryRepository().Recent(t.Context(), "acme", "ops", 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestPolicyRepository_SaveGeneratesIDAndTimestamps(t *testing.T) {
	p := NewPersistence(t.TempDir())
	repo := p.PolicyRepository()

	policy := &models.Policy{
		TenantID:  "acme",
		AgentType: "ops",
		Name:      "scale-up",
		Active:    true,
		Actions:   []models.ActionSpec{{Action: "scale"}},
	}

	require.NoError(t, repo.Save(t.Context(), policy))
	assert.NotEmpty(t, policy.ID)
	assert.False(t, policy.CreatedAt.IsZero())

	loaded, err := repo.GetByID(t.Context(), policy.ID)
	require.NoError(t, err)
	assert.Equal(t, "scale-up", loaded.Name)
}

func TestPolicyRepository_GetByIDNotFound(t *testing.T) {
	p := NewPersistence(t.TempDir())

	_, err := p.PolicyRepository().GetByID(t.Context(), "missing")
	assert.ErrorIs(t, err, persistence.ErrPolicyNotFound)
}

func TestPolicyRepository_ActiveOrderingAndFiltering(t *testing.T) {
	p := NewPersistence(t.TempDir())
	repo := p.PolicyRepository()

	inactive := &models.Policy{
		TenantID: "acme", AgentType: "ops", Name: "disabled",
		Active:  false,
		Actions: []models.ActionSpec{{Action: "never"}},
	}
	low := &models.Policy{
		TenantID: "acme", AgentType: "ops", Name: "low-priority",
		Active: true, Priority: 10,
		Actions: []models.ActionSpec{{Action: "late"}},
	}
	high := &models.Policy{
		TenantID: "acme", AgentType: "ops", Name: "high-priority",
		Active: true, Priority: 1,
		Actions: []models.ActionSpec{{Action: "early"}},
	}
	otherAgent := &models.Policy{
		TenantID: "acme", AgentType: "billing", Name: "other-agent",
		Active:  true,
		Actions: []models.ActionSpec{{Action: "never"}},
	}

	for _, policy := range []*models.Policy{inactive, low, high, otherAgent} {
		require.NoError(t, repo.Save(t.Context(), policy))
	}

	active, err := repo.Active(t.Context(), "acme", "ops")
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "high-priority", active[0].Name)
	assert.Equal(t, "low-priority", active[1].Name)
}

func TestPolicyRepository_ActivePreservesInsertionOrderOnEqualPriority(t *testing.T) {
	p := NewPersistence(t.TempDir())
	repo := p.PolicyRepository()

	for i := range 3 {
		require.NoError(t, repo.Save(t.Context(), &models.Policy{
			TenantID:  "acme",
			AgentType: "ops",
			Name:      fmt.Sprintf("policy-%d", i),
			Active:    true,
			Actions:   []models.ActionSpec{{Action: "a"}},
		}))
	}

	active, err := repo.Active(t.Context(), "acme", "ops")
	require.NoError(t, err)
	require.Len(t, active, 3)

	for i, policy := range active {
		assert.Equal(t, fmt.Sprintf("policy-%d", i), policy.Name)
	}
}

func TestPolicyRepository_Delete(t *testing.T) {
	p := NewPersistence(t.TempDir())
	repo := p.PolicyRepository()

	policy := &models.Policy{
		TenantID: "acme", AgentType: "ops", Name: "doomed",
		Actions: []models.ActionSpec{{Action: "a"}},
	}
	require.NoError(t, repo.Save(t.Context(), policy))

	require.NoError(t, repo.Delete(t.Context(), policy.ID))

	_, err := repo.GetByID(t.Context(), policy.ID)
	assert.ErrorIs(t, err, persistence.ErrPolicyNotFound)
}

func TestTaskRepository_FinalizeExactlyOnce(t *testing.T) {
	p := NewPersistence(t.TempDir())
	repo := p.TaskRepository()

	task := &models.Task{
		ID:        newRecordID(t),
		TenantID:  "acme",
		AgentType: "ops",
		Goal:      "investigate",
		Status:    models.TaskStatusRunning,
	}
	require.NoError(t, repo.Create(t.Context(), task))

	require.NoError(t, repo.Finalize(t.Context(), task.ID, models.TaskStatusCompleted, map[string]any{"ok": true}))

	loaded, err := repo.GetByID(t.Context(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusCompleted, loaded.Status)
	assert.Equal(t, true, loaded.Result["ok"])

	// A second finalization must not overwrite the first outcome.
	err = repo.Finalize(t.Context(), task.ID, models.TaskStatusError, map[string]any{"error": "late"})
	assert.ErrorIs(t, err, persistence.ErrTaskFinalized)

	loaded, err = repo.GetByID(t.Context(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusCompleted, loaded.Status)
}

func TestTaskRepository_GetByIDNotFound(t *testing.T) {
	p := NewPersistence(t.TempDir())

	_, err := p.TaskRepository().GetByID(t.Context(), "missing")
	assert.ErrorIs(t, err, persistence.ErrTaskNotFound)
}

func newStoredWorkflow(t *testing.T, repo persistence.WorkflowRepository, steps int) *models.Workflow {
	t.Helper()

	plan := make([]models.PlanStep, 0, steps)
	for i := range steps {
		plan = append(plan, models.PlanStep{Number: i, Action: fmt.Sprintf("step-%d", i), Status: models.StepStatusPending})
	}

	workflow := &models.Workflow{
		ID:        newRecordID(t),
		TenantID:  "acme",
		AgentType: "ops",
		Goal:      "investigate",
		Plan:      plan,
		Status:    models.WorkflowStatusPending,
	}
	require.NoError(t, repo.Create(t.Context(), workflow))

	return workflow
}

func TestWorkflowRepository_AdvanceStep(t *testing.T) {
	p := NewPersistence(t.TempDir())
	repo := p.WorkflowRepository()

	workflow := newStoredWorkflow(t, repo, 2)

	advanced, err := repo.AdvanceStep(t.Context(), workflow.ID, 0, map[string]any{"out": 1})
	require.NoError(t, err)
	assert.Equal(t, 1, advanced.CurrentStep)
	assert.Equal(t, models.WorkflowStatusInProgress, advanced.Status)
	assert.Equal(t, models.StepStatusCompleted, advanced.Plan[0].Status)
	assert.Equal(t, models.StepStatusPending, advanced.Plan[1].Status)

	advanced, err = repo.AdvanceStep(t.Context(), workflow.ID, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, advanced.CurrentStep)
	assert.Equal(t, models.WorkflowStatusCompleted, advanced.Status)
}

func TestWorkflowRepository_AdvanceStepConflict(t *testing.T) {
	p := NewPersistence(t.TempDir())
	repo := p.WorkflowRepository()

	workflow := newStoredWorkflow(t, repo, 2)

	_, err := repo.AdvanceStep(t.Context(), workflow.ID, 0, nil)
	require.NoError(t, err)

	// Advancing against the already-consumed cursor loses the race.
	_, err = repo.AdvanceStep(t.Context(), workflow.ID, 0, nil)
	assert.ErrorIs(t, err, persistence.ErrWorkflowConflict)

	loaded, err := repo.GetByID(t.Context(), workflow.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.CurrentStep)
}

func TestWorkflowRepository_AdvanceStepPastEnd(t *testing.T) {
	p := NewPersistence(t.TempDir())
	repo := p.WorkflowRepository()

	workflow := newStoredWorkflow(t, repo, 1)

	_, err := repo.AdvanceStep(t.Context(), workflow.ID, 0, nil)
	require.NoError(t, err)

	_, err = repo.AdvanceStep(t.Context(), workflow.ID, 1, nil)
	assert.ErrorIs(t, err, persistence.ErrWorkflowConflict)
}

func TestWorkflowRepository_MarkCompletedIdempotent(t *testing.T) {
	p := NewPersistence(t.TempDir())
	repo := p.WorkflowRepository()

	workflow := newStoredWorkflow(t, repo, 1)

	_, err := repo.AdvanceStep(t.Context(), workflow.ID, 0, nil)
	require.NoError(t, err)

	require.NoError(t, repo.MarkCompleted(t.Context(), workflow.ID))
	require.NoError(t, repo.MarkCompleted(t.Context(), workflow.ID))

	loaded, err := repo.GetByID(t.Context(), workflow.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WorkflowStatusCompleted, loaded.Status)
}

func TestWorkflowRepository_GetByIDNotFound(t *testing.T) {
	p := NewPersistence(t.TempDir())

	_, err := p.WorkflowRepository().GetByID(t.Context(), "missing")
	assert.ErrorIs(t, err, persistence.ErrWorkflowNotFound)
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestLogRepository_ListByTenantNewestFirstWithLimit(t *testing.T) {
	p := NewPersistence(t.TempDir())
	repo := p.LogRepository()

	base := time.Now().UTC().Add(-time.Hour)

	for i := range 5 {
		require.NoError(t, repo.Append(t.Context(), &models.LogEntry{
			ID:        newRecordID(t),
			TenantID:  "acme",
			AgentType: "ops",
			EventType: models.LogEventDecision,
			Detail:    map[string]any{"seq": i},
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	entries, err := repo.ListByTenant(t.Context(), "acme", 3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.EqualValues(t, 4, entries[0].Detail["seq"])
	assert.EqualValues(t, 2, entries[2].Detail["seq"])
}
