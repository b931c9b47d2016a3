package workflow

import (
	"log/slog"
	"testing"

	"github.com/agentorhq/agentor/pkg/lock"
	"github.com/agentorhq/agentor/pkg/models"
	"github.com/agentorhq/agentor/pkg/persistence"
	"github.com/agentorhq/agentor/pkg/persistence/file"
	"github.com/agentorhq/agentor/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) (*Engine, persistence.Persistence) {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	p := file.NewPersistence(t.TempDir())
	reg := registry.NewRegistry(logger)
	engine := NewEngine(p.WorkflowRepository(), p.LogRepository(), reg, lock.NewMemoryManager(), nil, logger)

	return engine, p
}

func TestCreatePlan_FixedTemplate(t *testing.T) {
	engine, _ := newTestEngine(t)

	workflow, err := engine.CreatePlan(t.Context(), "acme", "ops", "investigate latency")
	require.NoError(t, err)

	assert.NotEmpty(t, workflow.ID)
	assert.Equal(t, "acme", workflow.TenantID)
	assert.Equal(t, models.WorkflowStatusPending, workflow.Status)
	assert.Equal(t, 0, workflow.CurrentStep)

	require.Len(t, workflow.Plan, 4)
	assert.Equal(t, models.StepGatherContext, workflow.Plan[0].Action)
	assert.Equal(t, models.StepEvaluatePolicies, workflow.Plan[1].Action)
	assert.Equal(t, models.StepExecuteDecision, workflow.Plan[2].Action)
	assert.Equal(t, models.StepStoreResults, workflow.Plan[3].Action)

	for i, step := range workflow.Plan {
		assert.Equal(t, i, step.Number)
		assert.Equal(t, models.StepStatusPending, step.Status)
	}
}

func TestCreatePlan_WritesCreationLog(t *testing.T) {
	engine, p := newTestEngine(t)

	workflow, err := engine.CreatePlan(t.Context(), "acme", "ops", "investigate")
	require.NoError(t, err)

	entries, err := p.LogRepository().ListByTenant(t.Context(), "acme", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	entry := entries[0]
	assert.Equal(t, models.LogEventWorkflowStep, entry.EventType)
	require.NotNil(t, entry.WorkflowID)
	assert.Equal(t, workflow.ID, *entry.WorkflowID)
	assert.Equal(t, "workflow_created", entry.Detail["event"])
	assert.EqualValues(t, 4, entry.Detail["plan_length"])
}

func TestExecuteNextStep_AdvancesCursorMonotonically(t *testing.T) {
	engine, _ := newTestEngine(t)

	workflow, err := engine.CreatePlan(t.Context(), "acme", "ops", "investigate")
	require.NoError(t, err)

	for i := range 4 {
		result, err := engine.ExecuteNextStep(t.Context(), workflow.ID)
		require.NoError(t, err)

		assert.Equal(t, StatusStepCompleted, result.Status)
		require.NotNil(t, result.Step)
		assert.Equal(t, i, result.Step.Number)
		assert.Equal(t, models.StepStatusCompleted, result.Step.Status)
		assert.Equal(t, i+1, result.Workflow.CurrentStep)
		assert.NotEmpty(t, result.Step.Result["completed_at"])
	}
}

func TestExecuteNextStep_StatusTransitions(t *testing.T) {
	engine, _ := newTestEngine(t)

	workflow, err := engine.CreatePlan(t.Context(), "acme", "ops", "investigate")
	require.NoError(t, err)

	result, err := engine.ExecuteNextStep(t.Context(), workflow.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WorkflowStatusInProgress, result.Workflow.Status)

	for range 2 {
		result, err = engine.ExecuteNextStep(t.Context(), workflow.ID)
		require.NoError(t, err)
		assert.Equal(t, models.WorkflowStatusInProgress, result.Workflow.Status)
	}

	result, err = engine.ExecuteNextStep(t.Context(), workflow.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WorkflowStatusCompleted, result.Workflow.Status)
}

func TestExecuteNextStep_CompletedWorkflowIsIdempotent(t *testing.T) {
	engine, _ := newTestEngine(t)

	workflow, err := engine.CreatePlan(t.Context(), "acme", "ops", "investigate")
	require.NoError(t, err)

	for range 4 {
		_, err := engine.ExecuteNextStep(t.Context(), workflow.ID)
		require.NoError(t, err)
	}

	// Further calls are no-ops reporting completed.
	for range 2 {
		result, err := engine.ExecuteNextStep(t.Context(), workflow.ID)
		require.NoError(t, err)

		assert.Equal(t, StatusCompleted, result.Status)
		assert.Nil(t, result.Step)
		assert.Equal(t, 4, result.Workflow.CurrentStep)
	}
}

func TestExecuteNextStep_LogsEachStep(t *testing.T) {
	engine, p := newTestEngine(t)

	workflow, err := engine.CreatePlan(t.Context(), "acme", "ops", "investigate")
	require.NoError(t, err)

	for range 4 {
		_, err := engine.ExecuteNextStep(t.Context(), workflow.ID)
		require.NoError(t, err)
	}

	// One creation entry plus four step entries.
	entries, err := p.LogRepository().ListByTenant(t.Context(), "acme", 10)
	require.NoError(t, err)
	assert.Len(t, entries, 5)

	newest := entries[0]
	assert.Equal(t, "step_completed", newest.Detail["event"])
	assert.Equal(t, models.StepStoreResults, newest.Detail["action"])
}

func TestExecuteNextStep_UnknownWorkflow(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.ExecuteNextStep(t.Context(), "missing")
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestAdvanceStep_StaleCursorConflict(t *testing.T) {
	engine, p := newTestEngine(t)

	workflow, err := engine.CreatePlan(t.Context(), "acme", "ops", "investigate")
	require.NoError(t, err)

	_, err = engine.ExecuteNextStep(t.Context(), workflow.ID)
	require.NoError(t, err)

	// A writer holding a stale cursor loses the conditional write.
	_, err = p.WorkflowRepository().AdvanceStep(t.Context(), workflow.ID, 0, nil)
	assert.True(t, persistence.IsWorkflowConflict(err))
}
