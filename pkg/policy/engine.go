// Package policy provides declarative rule evaluation against fact snapshots.
package policy

import (
	"log/slog"
	"reflect"
	"strconv"
	"strings"

	"github.com/agentorhq/agentor/pkg/models"
)

// PolicyAction is one action contributed by a matched policy, tagged with the
// originating policy's name.
type PolicyAction struct {
	Action     string         `json:"action"`
	Params     map[string]any `json:"params,omitempty"`
	PolicyName string         `json:"policy_name"`
}

// EvaluationResult holds the matched policies and the actions they imply.
// Matched preserves the input iteration order; actions are appended in
// declaration order per matched policy, so the first entry belongs to the
// highest-precedence matched policy.
type EvaluationResult struct {
	Matched []*models.Policy
	Actions []PolicyAction
}

// Engine evaluates policies against fact snapshots. Evaluation never fails: a
// malformed condition simply does not match, so one bad policy cannot block the
// evaluation of its siblings.
type Engine struct {
	logger *slog.Logger
}

// NewEngine creates a new policy engine.
func NewEngine(logger *slog.Logger) *Engine {
	return &Engine{logger: logger.With("module", "policy")}
}

// Evaluate checks every policy against the facts. A policy matches iff all of
// its conditions hold; a policy with no conditions matches unconditionally.
func (e *Engine) Evaluate(facts map[string]any, policies []*models.Policy) *EvaluationResult {
	result := &EvaluationResult{
		Matched: make([]*models.Policy, 0),
		Actions: make([]PolicyAction, 0),
	}

	for _, policy := range policies {
		if !e.matches(facts, policy) {
			continue
		}

		result.Matched = append(result.Matched, policy)

		for _, action := range policy.Actions {
			result.Actions = append(result.Actions, PolicyAction{
				Action:     action.Action,
				Params:     action.Params,
				PolicyName: policy.Name,
			})
		}
	}

	return result
}

func (e *Engine) matches(facts map[string]any, policy *models.Policy) bool {
	for _, condition := range policy.Conditions {
		if !e.EvaluateCondition(facts, condition) {
			e.logger.Debug("policy condition did not match",
				"policy", policy.Name,
				"field", condition.Field,
				"operator", condition.Operator)

			return false
		}
	}

	return true
}

// EvaluateCondition checks one condition against the facts. It fails open to
// false on a missing field, a failed numeric coercion or an unknown operator,
// and never returns an error.
func (e *Engine) EvaluateCondition(facts map[string]any, condition models.Condition) bool {
	value, ok := facts[condition.Field]
	if !ok {
		return false
	}

	switch condition.Operator {
	case models.OperatorGreaterThan:
		left, right, ok := numericOperands(value, condition.Value)

		return ok && left > right
	case models.OperatorLessThan:
		left, right, ok := numericOperands(value, condition.Value)

		return ok && left < right
	case models.OperatorEquals:
		// Raw equality, no coercion: 80 and "80" do not match.
		return reflect.DeepEqual(value, condition.Value)
	case models.OperatorContains:
		haystack, hayOK := value.(string)
		needle, needleOK := condition.Value.(string)

		return hayOK && needleOK && strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
	default:
		return false
	}
}

func numericOperands(left, right any) (float64, float64, bool) {
	l, ok := toFloat(left)
	if !ok {
		return 0, 0, false
	}

	r, ok := toFloat(right)
	if !ok {
		return 0, 0, false
	}

	return l, r, true
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}

		return parsed, true
	default:
		return 0, false
	}
}
