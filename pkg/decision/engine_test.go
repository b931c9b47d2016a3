package decision

import (
	"fmt"
	"log/slog"
	"testing"

	"github.com/agentorhq/agentor/pkg/memory"
	"github.com/agentorhq/agentor/pkg/models"
	"github.com/agentorhq/agentor/pkg/persistence"
	"github.com/agentorhq/agentor/pkg/persistence/file"
	"github.com/agentorhq/agentor/pkg/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	engine   *Engine
	memories *memory.Store
	p        persistence.Persistence
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	p := file.NewPersistence(t.TempDir())
	memories := memory.NewStore(p.MemoryRepository(), logger)
	engine := NewEngine(memories, p.PolicyRepository(), p.LogRepository(), policy.NewEngine(logger), logger)

	return &testEnv{engine: engine, memories: memories, p: p}
}

func (env *testEnv) savePolicy(t *testing.T, name string, priority int, conditions []models.Condition, actions []models.ActionSpec) {
	t.Helper()

	require.NoError(t, env.p.PolicyRepository().Save(t.Context(), &models.Policy{
		TenantID:   "acme",
		AgentType:  "ops",
		Name:       name,
		Active:     true,
		Priority:   priority,
		Conditions: conditions,
		Actions:    actions,
	}))
}

func TestDecideNextAction_FirstMatchedPolicyWins(t *testing.T) {
	env := newTestEnv(t)

	env.savePolicy(t, "scale-on-load", 0,
		[]models.Condition{{Field: "cpu", Operator: ">", Value: 80.0}},
		[]models.ActionSpec{{Action: "scale", Params: map[string]any{"replicas": 3}}},
	)
	env.savePolicy(t, "catch-all", 1,
		nil,
		[]models.ActionSpec{{Action: "notify"}},
	)

	decision, err := env.engine.DecideNextAction(t.Context(), "acme", "ops", "keep the service healthy", map[string]any{"cpu": 95.0})
	require.NoError(t, err)

	assert.Equal(t, "scale", decision.Action)
	assert.EqualValues(t, 3, decision.Params["replicas"])
	assert.Equal(t, []string{"scale-on-load", "catch-all"}, decision.AppliedPolicies)
	assert.Contains(t, decision.Rationale, `"scale-on-load"`)
}

func TestDecideNextAction_LowScoreAlerts(t *testing.T) {
	env := newTestEnv(t)

	env.savePolicy(t, "alert-on-low-score", 0,
		[]models.Condition{{Field: "score", Operator: "<", Value: 80.0}},
		[]models.ActionSpec{{Action: "alert"}},
	)
	env.savePolicy(t, "always-log", 1,
		nil,
		[]models.ActionSpec{{Action: "log"}},
	)

	decision, err := env.engine.DecideNextAction(t.Context(), "acme", "ops", "review score", map[string]any{"score": 50.0})
	require.NoError(t, err)

	assert.Equal(t, "alert", decision.Action)
	assert.Equal(t, []string{"alert-on-low-score", "always-log"}, decision.AppliedPolicies)
}

func TestDecideNextAction_PriorityOrdersPrecedence(t *testing.T) {
	env := newTestEnv(t)

	env.savePolicy(t, "fallback", 10, nil, []models.ActionSpec{{Action: "notify"}})
	env.savePolicy(t, "preferred", 1, nil, []models.ActionSpec{{Action: "scale"}})

	decision, err := env.engine.DecideNextAction(t.Context(), "acme", "ops", "goal", map[string]any{})
	require.NoError(t, err)

	assert.Equal(t, "scale", decision.Action)
	assert.Equal(t, []string{"preferred", "fallback"}, decision.AppliedPolicies)
}

func TestDecideNextAction_DefaultActionWhenNothingMatches(t *testing.T) {
	env := newTestEnv(t)

	env.savePolicy(t, "scale-on-load", 0,
		[]models.Condition{{Field: "cpu", Operator: ">", Value: 80.0}},
		[]models.ActionSpec{{Action: "scale"}},
	)

	decision, err := env.engine.DecideNextAction(t.Context(), "acme", "ops", "goal", map[string]any{"cpu": 10.0})
	require.NoError(t, err)

	assert.Equal(t, models.DefaultAction, decision.Action)
	assert.Empty(t, decision.AppliedPolicies)
	assert.Contains(t, decision.Rationale, "no policy matched")
}

func TestDecideNextAction_DefaultActionWithNoPolicies(t *testing.T) {
	env := newTestEnv(t)

	decision, err := env.engine.DecideNextAction(t.Context(), "acme", "ops", "goal", map[string]any{})
	require.NoError(t, err)

	assert.Equal(t, models.DefaultAction, decision.Action)
	assert.Empty(t, decision.AppliedPolicies)
}

func TestDecideNextAction_MemoryEvidenceWindow(t *testing.T) {
	env := newTestEnv(t)

	recorded := make([]string, 0, 8)

	for i := range 8 {
		record, err := env.memories.Record(t.Context(), "acme", "ops", models.MemoryKindObservation, map[string]any{"seq": i})
		require.NoError(t, err)

		recorded = append(recorded, record.ID)
	}

	decision, err := env.engine.DecideNextAction(t.Context(), "acme", "ops", "goal", map[string]any{})
	require.NoError(t, err)

	// Evidence carries the five newest record ids, newest first.
	require.Len(t, decision.MemoryUsed, 5)
	assert.Equal(t, recorded[7], decision.MemoryUsed[0])
	assert.Equal(t, recorded[3], decision.MemoryUsed[4])
}

func TestDecideNextAction_MemoryEvidenceSmallerHistory(t *testing.T) {
	env := newTestEnv(t)

	record, err := env.memories.Record(t.Context(), "acme", "ops", models.MemoryKindObservation, map[string]any{})
	require.NoError(t, err)

	decision, err := env.engine.DecideNextAction(t.Context(), "acme", "ops", "goal", map[string]any{})
	require.NoError(t, err)

	assert.Equal(t, []string{record.ID}, decision.MemoryUsed)
}

func TestDecideNextAction_WritesDecisionLog(t *testing.T) {
	env := newTestEnv(t)

	env.savePolicy(t, "catch-all", 0, nil, []models.ActionSpec{{Action: "notify"}})

	_, err := env.engine.DecideNextAction(t.Context(), "acme", "ops", "keep calm", map[string]any{})
	require.NoError(t, err)

	entries, err := env.p.LogRepository().ListByTenant(t.Context(), "acme", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	entry := entries[0]
	assert.Equal(t, models.LogEventDecision, entry.EventType)
	assert.Equal(t, "keep calm", entry.Detail["goal"])
	assert.EqualValues(t, 1, entry.Detail["policies_evaluated"])
}

func TestDecideNextAction_LogsEveryInvocation(t *testing.T) {
	env := newTestEnv(t)

	for i := range 3 {
		_, err := env.engine.DecideNextAction(t.Context(), "acme", "ops", fmt.Sprintf("goal-%d", i), map[string]any{})
		require.NoError(t, err)
	}

	entries, err := env.p.LogRepository().ListByTenant(t.Context(), "acme", 10)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestDecideNextAction_TenantIsolation(t *testing.T) {
	env := newTestEnv(t)

	// A policy scoped to another tenant must never fire.
	require.NoError(t, env.p.PolicyRepository().Save(t.Context(), &models.Policy{
		TenantID:  "other",
		AgentType: "ops",
		Name:      "other-tenant",
		Active:    true,
		Actions:   []models.ActionSpec{{Action: "scale"}},
	}))

	decision, err := env.engine.DecideNextAction(t.Context(), "acme", "ops", "goal", map[string]any{})
	require.NoError(t, err)

	assert.Equal(t, models.DefaultAction, decision.Action)
}
