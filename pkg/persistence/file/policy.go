package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/agentorhq/agentor/pkg/models"
	"github.com/agentorhq/agentor/pkg/persistence"
	"github.com/google/uuid"
)

const policiesDir = "policies"

// PolicyRepository handles policy file operations.
type PolicyRepository struct {
	root string
}

// NewPolicyRepository creates a new policy repository.
func NewPolicyRepository(root string) *PolicyRepository {
	return &PolicyRepository{root: root}
}

// Save stores a policy, generating an id and timestamps on first save.
func (pr *PolicyRepository) Save(_ context.Context, policy *models.Policy) error {
	now := time.Now().UTC()

	if policy.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate policy ID: %w", err)
		}

		policy.ID = id.String()
	}

	if policy.CreatedAt.IsZero() {
		policy.CreatedAt = now
	}

	policy.UpdatedAt = now

	return writeEntity(pr.root, policiesDir, policy.ID, policy)
}

// GetByID returns a policy by its id.
func (pr *PolicyRepository) GetByID(_ context.Context, id string) (*models.Policy, error) {
	var policy models.Policy

	err := readEntity(pr.root, policiesDir, id, &policy)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.ErrPolicyNotFound
		}

		return nil, err
	}

	return &policy, nil
}

// ListByTenant returns all policies for a tenant in evaluation order.
func (pr *PolicyRepository) ListByTenant(ctx context.Context, tenantID string) ([]*models.Policy, error) {
	return pr.list(ctx, func(p *models.Policy) bool {
		return p.TenantID == tenantID
	})
}

// Active returns active policies for the tenant/agent-type pair in evaluation order.
func (pr *PolicyRepository) Active(ctx context.Context, tenantID, agentType string) ([]*models.Policy, error) {
	return pr.list(ctx, func(p *models.Policy) bool {
		return p.TenantID == tenantID && p.AgentType == agentType && p.Active
	})
}

// Delete removes a policy.
func (pr *PolicyRepository) Delete(_ context.Context, id string) error {
	err := os.Remove(filepath.Join(pr.root, policiesDir, id+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return persistence.ErrPolicyNotFound
		}

		return fmt.Errorf("failed to delete policy %s: %w", id, err)
	}

	return nil
}

func (pr *PolicyRepository) list(_ context.Context, keep func(*models.Policy) bool) ([]*models.Policy, error) {
	ids, err := listEntityIDs(pr.root, policiesDir)
	if err != nil {
		return nil, err
	}

	policies := make([]*models.Policy, 0)

	for _, id := range ids {
		var policy models.Policy

		err := readEntity(pr.root, policiesDir, id, &policy)
		if err != nil {
			return nil, fmt.Errorf("failed to load policy %s: %w", id, err)
		}

		if keep(&policy) {
			policies = append(policies, &policy)
		}
	}

	// Evaluation order: ascending priority, ties broken by creation time. This
	// ordering is the documented precedence contract.
	sort.SliceStable(policies, func(i, j int) bool {
		if policies[i].Priority != policies[j].Priority {
			return policies[i].Priority < policies[j].Priority
		}

		return policies[i].CreatedAt.Before(policies[j].CreatedAt)
	})

	return policies, nil
}
