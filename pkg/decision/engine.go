// Package decision combines memory context and policy evaluation into a single
// auditable decision per orchestration request.
package decision

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/agentorhq/agentor/pkg/memory"
	"github.com/agentorhq/agentor/pkg/models"
	"github.com/agentorhq/agentor/pkg/persistence"
	"github.com/agentorhq/agentor/pkg/policy"
	"github.com/google/uuid"
)

const (
	// contextWindow bounds how many recent memories are fetched as decision context.
	contextWindow = 20

	// evidenceWindow bounds how many memory ids are attached to a decision as
	// evidence. Distinct from contextWindow; both are fixed, not configurable.
	evidenceWindow = 5
)

// Engine produces decisions. Storage errors propagate fatally; no partial
// decision is ever returned and no retry happens here.
type Engine struct {
	memories  *memory.Store
	policies  persistence.PolicyRepository
	logs      persistence.LogRepository
	evaluator *policy.Engine
	logger    *slog.Logger
}

// NewEngine creates a new decision engine.
func NewEngine(
	memories *memory.Store,
	policies persistence.PolicyRepository,
	logs persistence.LogRepository,
	evaluator *policy.Engine,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		memories:  memories,
		policies:  policies,
		logs:      logs,
		evaluator: evaluator,
		logger:    logger.With("module", "decision"),
	}
}

// DecideNextAction evaluates active policies against the facts, backed by the
// tenant's recent memory. The first action contributed by the highest-precedence
// matched policy wins; with no matches the decision falls back to the default
// action. Every invocation writes exactly one decision log entry.
func (e *Engine) DecideNextAction(ctx context.Context, tenantID, agentType, goal string, facts map[string]any) (*models.Decision, error) {
	recent, err := e.memories.Recent(ctx, tenantID, agentType, contextWindow)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch decision context: %w", err)
	}

	policies, err := e.policies.Active(ctx, tenantID, agentType)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch active policies: %w", err)
	}

	result := e.evaluator.Evaluate(facts, policies)

	decision := &models.Decision{
		AppliedPolicies: make([]string, 0, len(result.Matched)),
		MemoryUsed:      make([]string, 0, evidenceWindow),
	}

	if len(result.Actions) > 0 {
		chosen := result.Actions[0]
		decision.Action = chosen.Action
		decision.Params = chosen.Params

		for _, matched := range result.Matched {
			decision.AppliedPolicies = append(decision.AppliedPolicies, matched.Name)
		}

		decision.Rationale = fmt.Sprintf("action %q chosen by policy %q; %d of %d active policies matched",
			chosen.Action, chosen.PolicyName, len(result.Matched), len(policies))
	} else {
		decision.Action = models.DefaultAction
		decision.Rationale = fmt.Sprintf("no policy matched among %d active policies; falling back to %q",
			len(policies), models.DefaultAction)
	}

	for i, record := range recent {
		if i >= evidenceWindow {
			break
		}

		decision.MemoryUsed = append(decision.MemoryUsed, record.ID)
	}

	err = e.appendDecisionLog(ctx, tenantID, agentType, goal, decision, len(policies))
	if err != nil {
		return nil, err
	}

	e.logger.InfoContext(ctx, "Decision made",
		"tenant_id", tenantID,
		"agent_type", agentType,
		"action", decision.Action,
		"applied_policies", len(decision.AppliedPolicies))

	return decision, nil
}

func (e *Engine) appendDecisionLog(ctx context.Context, tenantID, agentType, goal string, decision *models.Decision, policiesEvaluated int) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("failed to generate log entry ID: %w", err)
	}

	entry := &models.LogEntry{
		ID:        id.String(),
		TenantID:  tenantID,
		AgentType: agentType,
		EventType: models.LogEventDecision,
		Detail: map[string]any{
			"goal":               goal,
			"decision":           decision,
			"policies_evaluated": policiesEvaluated,
		},
		CreatedAt: time.Now().UTC(),
	}

	err = e.logs.Append(ctx, entry)
	if err != nil {
		return fmt.Errorf("failed to append decision log entry: %w", err)
	}

	return nil
}
