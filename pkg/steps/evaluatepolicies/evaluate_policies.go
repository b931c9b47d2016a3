// Package evaluatepolicies provides the native handler for the evaluate_policies plan step.
package evaluatepolicies

import (
	"context"
	"fmt"

	"github.com/agentorhq/agentor/pkg/models"
	"github.com/agentorhq/agentor/pkg/persistence"
	"github.com/agentorhq/agentor/pkg/protocol"
)

type Handler struct {
	policies persistence.PolicyRepository
}

// Execute records how many policies were active for the workflow's scope when
// this step ran. The authoritative evaluation already happened at decision time;
// this step documents the policy surface the workflow executed under.
func (h *Handler) Execute(ctx context.Context, stepCtx protocol.StepContext) (map[string]any, error) {
	policies, err := h.policies.Active(ctx, stepCtx.Workflow.TenantID, stepCtx.Workflow.AgentType)
	if err != nil {
		return nil, fmt.Errorf("failed to list active policies: %w", err)
	}

	names := make([]string, 0, len(policies))
	for _, policy := range policies {
		names = append(names, policy.Name)
	}

	return map[string]any{
		"active_policies": len(policies),
		"policy_names":    names,
	}, nil
}

type HandlerFactory struct {
	policies persistence.PolicyRepository
}

func NewHandlerFactory(policies persistence.PolicyRepository) *HandlerFactory {
	return &HandlerFactory{policies: policies}
}

func (f *HandlerFactory) Create(_ map[string]any) (protocol.StepHandler, error) {
	return &Handler{policies: f.policies}, nil
}

func (f *HandlerFactory) ID() string {
	return models.StepEvaluatePolicies
}
