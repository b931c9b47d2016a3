package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/agentorhq/agentor/pkg/models"
	"github.com/agentorhq/agentor/pkg/persistence"
	"github.com/google/uuid"
)

// PolicyRepository handles policy-related database operations.
type PolicyRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPolicyRepository creates a new policy repository.
func NewPolicyRepository(db *sql.DB, logger *slog.Logger) *PolicyRepository {
	return &PolicyRepository{db: db, logger: logger}
}

// Save inserts or updates a policy.
func (r *PolicyRepository) Save(ctx context.Context, policy *models.Policy) error {
	now := time.Now().UTC()

	if policy.CreatedAt.IsZero() {
		policy.CreatedAt = now
	}

	policy.UpdatedAt = now

	if policy.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate policy ID: %w", err)
		}

		policy.ID = id.String()
	}

	conditionsJSON, err := json.Marshal(policy.Conditions)
	if err != nil {
		return fmt.Errorf("failed to marshal conditions: %w", err)
	}

	actionsJSON, err := json.Marshal(policy.Actions)
	if err != nil {
		return fmt.Errorf("failed to marshal actions: %w", err)
	}

	query := `
		INSERT INTO policies (id, tenant_id, agent_type, name, active, priority, conditions, actions, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			tenant_id = EXCLUDED.tenant_id,
			agent_type = EXCLUDED.agent_type,
			name = EXCLUDED.name,
			active = EXCLUDED.active,
			priority = EXCLUDED.priority,
			conditions = EXCLUDED.conditions,
			actions = EXCLUDED.actions,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		policy.ID,
		policy.TenantID,
		policy.AgentType,
		policy.Name,
		policy.Active,
		policy.Priority,
		conditionsJSON,
		actionsJSON,
		policy.CreatedAt,
		policy.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save policy: %w", err)
	}

	return nil
}

// GetByID returns a policy by its ID.
func (r *PolicyRepository) GetByID(ctx context.Context, id string) (*models.Policy, error) {
	query := `
		SELECT
			id
		  , tenant_id
		  , agent_type
		  , name
		  , active
		  , priority
		  , conditions
		  , actions
		  , created_at
		  , updated_at
		FROM policies
		WHERE id = $1
	`

	policy, err := r.scanPolicy(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrPolicyNotFound
		}

		return nil, fmt.Errorf("failed to scan policy: %w", err)
	}

	return policy, nil
}

// ListByTenant returns a tenant's policies ordered by priority then creation time.
func (r *PolicyRepository) ListByTenant(ctx context.Context, tenantID string) ([]*models.Policy, error) {
	query := `
		SELECT
			id
		  , tenant_id
		  , agent_type
		  , name
		  , active
		  , priority
		  , conditions
		  , actions
		  , created_at
		  , updated_at
		FROM policies
		WHERE tenant_id = $1
		ORDER BY priority ASC, created_at ASC, id ASC
	`

	return r.queryPolicies(ctx, query, tenantID)
}

// Active returns active policies for the exact tenant/agent-type pair in
// evaluation order.
func (r *PolicyRepository) Active(ctx context.Context, tenantID, agentType string) ([]*models.Policy, error) {
	query := `
		SELECT
			id
		  , tenant_id
		  , agent_type
		  , name
		  , active
		  , priority
		  , conditions
		  , actions
		  , created_at
		  , updated_at
		FROM policies
		WHERE tenant_id = $1 AND agent_type = $2 AND active = true
		ORDER BY priority ASC, created_at ASC, id ASC
	`

	return r.queryPolicies(ctx, query, tenantID, agentType)
}

// Delete removes a policy.
func (r *PolicyRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM policies WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete policy: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if affected == 0 {
		return persistence.ErrPolicyNotFound
	}

	return nil
}

func (r *PolicyRepository) queryPolicies(ctx context.Context, query string, args ...any) ([]*models.Policy, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query policies: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	policies := make([]*models.Policy, 0)

	for rows.Next() {
		policy, err := r.scanPolicy(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan policy: %w", err)
		}

		policies = append(policies, policy)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating policies: %w", err)
	}

	return policies, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PolicyRepository) scanPolicy(row rowScanner) (*models.Policy, error) {
	var (
		policy         models.Policy
		conditionsJSON []byte
		actionsJSON    []byte
	)

	err := row.Scan(
		&policy.ID,
		&policy.TenantID,
		&policy.AgentType,
		&policy.Name,
		&policy.Active,
		&policy.Priority,
		&conditionsJSON,
		&actionsJSON,
		&policy.CreatedAt,
		&policy.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	err = json.Unmarshal(conditionsJSON, &policy.Conditions)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal conditions: %w", err)
	}

	err = json.Unmarshal(actionsJSON, &policy.Actions)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal actions: %w", err)
	}

	return &policy, nil
}
