package policy

import (
	"log/slog"
	"testing"

	"github.com/agentorhq/agentor/pkg/models"
	"github.com/stretchr/testify/assert"
)

func newTestEngine() *Engine {
	return NewEngine(slog.New(slog.DiscardHandler))
}

func TestEvaluateCondition_GreaterThan(t *testing.T) {
	t.Parallel()

	engine := newTestEngine()

	tests := []struct {
		name     string
		facts    map[string]any
		cond     models.Condition
		expected bool
	}{
		{
			name:     "numeric greater",
			facts:    map[string]any{"cpu": 90.0},
			cond:     models.Condition{Field: "cpu", Operator: ">", Value: 80.0},
			expected: true,
		},
		{
			name:     "numeric not greater",
			facts:    map[string]any{"cpu": 70.0},
			cond:     models.Condition{Field: "cpu", Operator: ">", Value: 80.0},
			expected: false,
		},
		{
			name:     "numeric string coerces",
			facts:    map[string]any{"cpu": "90"},
			cond:     models.Condition{Field: "cpu", Operator: ">", Value: 80},
			expected: true,
		},
		{
			name:     "non-numeric string evaluates to false",
			facts:    map[string]any{"cpu": "high"},
			cond:     models.Condition{Field: "cpu", Operator: ">", Value: 80},
			expected: false,
		},
		{
			name:     "missing field",
			facts:    map[string]any{},
			cond:     models.Condition{Field: "cpu", Operator: ">", Value: 80},
			expected: false,
		},
		{
			name:     "int fact against float threshold",
			facts:    map[string]any{"count": 5},
			cond:     models.Condition{Field: "count", Operator: ">", Value: 4.5},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, engine.EvaluateCondition(tt.facts, tt.cond))
		})
	}
}

func TestEvaluateCondition_LessThan(t *testing.T) {
	t.Parallel()

	engine := newTestEngine()

	assert.True(t, engine.EvaluateCondition(
		map[string]any{"latency": 10.0},
		models.Condition{Field: "latency", Operator: "<", Value: 50.0},
	))
	assert.False(t, engine.EvaluateCondition(
		map[string]any{"latency": 100.0},
		models.Condition{Field: "latency", Operator: "<", Value: 50.0},
	))
}

func TestEvaluateCondition_Equals(t *testing.T) {
	t.Parallel()

	engine := newTestEngine()

	tests := []struct {
		name     string
		facts    map[string]any
		cond     models.Condition
		expected bool
	}{
		{
			name:     "equal strings",
			facts:    map[string]any{"env": "production"},
			cond:     models.Condition{Field: "env", Operator: "==", Value: "production"},
			expected: true,
		},
		{
			name:     "no numeric coercion across types",
			facts:    map[string]any{"cpu": 80},
			cond:     models.Condition{Field: "cpu", Operator: "==", Value: "80"},
			expected: false,
		},
		{
			name:     "equal floats",
			facts:    map[string]any{"cpu": 80.0},
			cond:     models.Condition{Field: "cpu", Operator: "==", Value: 80.0},
			expected: true,
		},
		{
			name:     "equal booleans",
			facts:    map[string]any{"enabled": true},
			cond:     models.Condition{Field: "enabled", Operator: "==", Value: true},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, engine.EvaluateCondition(tt.facts, tt.cond))
		})
	}
}

func TestEvaluateCondition_Contains(t *testing.T) {
	t.Parallel()

	engine := newTestEngine()

	tests := []struct {
		name     string
		facts    map[string]any
		cond     models.Condition
		expected bool
	}{
		{
			name:     "substring match",
			facts:    map[string]any{"message": "disk pressure detected"},
			cond:     models.Condition{Field: "message", Operator: "contains", Value: "pressure"},
			expected: true,
		},
		{
			name:     "case insensitive",
			facts:    map[string]any{"message": "Disk PRESSURE detected"},
			cond:     models.Condition{Field: "message", Operator: "contains", Value: "pressure"},
			expected: true,
		},
		{
			name:     "non-string fact",
			facts:    map[string]any{"message": 42},
			cond:     models.Condition{Field: "message", Operator: "contains", Value: "4"},
			expected: false,
		},
		{
			name:     "non-string needle",
			facts:    map[string]any{"message": "42"},
			cond:     models.Condition{Field: "message", Operator: "contains", Value: 4},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, engine.EvaluateCondition(tt.facts, tt.cond))
		})
	}
}

func TestEvaluateCondition_UnknownOperator(t *testing.T) {
	t.Parallel()

	engine := newTestEngine()

	assert.False(t, engine.EvaluateCondition(
		map[string]any{"cpu": 90.0},
		models.Condition{Field: "cpu", Operator: ">=", Value: 80.0},
	))
}

func TestEvaluate_EmptyConditionsMatchUnconditionally(t *testing.T) {
	t.Parallel()

	engine := newTestEngine()

	policies := []*models.Policy{
		{
			Name:    "always",
			Actions: []models.ActionSpec{{Action: "notify"}},
		},
	}

	result := engine.Evaluate(map[string]any{}, policies)

	assert.Len(t, result.Matched, 1)
	assert.Len(t, result.Actions, 1)
	assert.Equal(t, "notify", result.Actions[0].Action)
	assert.Equal(t, "always", result.Actions[0].PolicyName)
}

func TestEvaluate_AllConditionsMustHold(t *testing.T) {
	t.Parallel()

	engine := newTestEngine()

	policies := []*models.Policy{
		{
			Name: "scale-up",
			Conditions: []models.Condition{
				{Field: "cpu", Operator: ">", Value: 80.0},
				{Field: "env", Operator: "==", Value: "production"},
			},
			Actions: []models.ActionSpec{{Action: "scale"}},
		},
	}

	result := engine.Evaluate(map[string]any{"cpu": 90.0, "env": "staging"}, policies)
	assert.Empty(t, result.Matched)

	result = engine.Evaluate(map[string]any{"cpu": 90.0, "env": "production"}, policies)
	assert.Len(t, result.Matched, 1)
}

func TestEvaluate_FirstMatchedPolicyContributesFirstAction(t *testing.T) {
	t.Parallel()

	engine := newTestEngine()

	policies := []*models.Policy{
		{
			Name:       "first",
			Conditions: []models.Condition{{Field: "cpu", Operator: ">", Value: 80.0}},
			Actions:    []models.ActionSpec{{Action: "scale"}, {Action: "notify"}},
		},
		{
			Name:    "second",
			Actions: []models.ActionSpec{{Action: "analyze"}},
		},
	}

	result := engine.Evaluate(map[string]any{"cpu": 95.0}, policies)

	assert.Len(t, result.Matched, 2)
	assert.Equal(t, "scale", result.Actions[0].Action)
	assert.Equal(t, "first", result.Actions[0].PolicyName)
}

func TestEvaluate_MalformedPolicyDoesNotBlockSiblings(t *testing.T) {
	t.Parallel()

	engine := newTestEngine()

	policies := []*models.Policy{
		{
			Name:       "broken",
			Conditions: []models.Condition{{Field: "cpu", Operator: "between", Value: []any{1, 2}}},
			Actions:    []models.ActionSpec{{Action: "never"}},
		},
		{
			Name:       "healthy",
			Conditions: []models.Condition{{Field: "cpu", Operator: ">", Value: 80.0}},
			Actions:    []models.ActionSpec{{Action: "scale"}},
		},
	}

	result := engine.Evaluate(map[string]any{"cpu": 95.0}, policies)

	assert.Len(t, result.Matched, 1)
	assert.Equal(t, "healthy", result.Matched[0].Name)
}
