package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/agentorhq/agentor/pkg/models"
	"github.com/agentorhq/agentor/pkg/persistence"
	"github.com/xeipuuv/gojsonschema"
)

// policySchema is the authoring contract for policy documents. The engine
// itself tolerates unknown operators (they just never match); the authoring
// surface rejects them up front so a typo does not silently dead-letter a rule.
const policySchema = `{
	"type": "object",
	"required": ["tenant_id", "agent_type", "name", "actions"],
	"properties": {
		"tenant_id": {"type": "string", "minLength": 1},
		"agent_type": {"type": "string", "minLength": 1},
		"name": {"type": "string", "minLength": 3},
		"active": {"type": "boolean"},
		"priority": {"type": "integer"},
		"conditions": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["field", "operator"],
				"properties": {
					"field": {"type": "string", "minLength": 1},
					"operator": {"type": "string", "enum": [">", "<", "==", "contains"]},
					"value": {}
				}
			}
		},
		"actions": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["action"],
				"properties": {
					"action": {"type": "string", "minLength": 1},
					"params": {"type": "object"}
				}
			}
		}
	}
}`

// Policy is the policy administration service. Policies are authored through
// this surface and read by the engine; the engine itself never writes them.
type Policy struct {
	persistence persistence.Persistence
	schema      *gojsonschema.Schema
}

// NewPolicy creates a new policy service.
func NewPolicy(p persistence.Persistence) *Policy {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(policySchema))
	if err != nil {
		panic(fmt.Errorf("failed to compile policy schema: %w", err))
	}

	return &Policy{
		persistence: p,
		schema:      schema,
	}
}

// Create validates and stores a new policy.
func (s *Policy) Create(ctx context.Context, policy *models.Policy) (*models.Policy, error) {
	if policy == nil {
		return nil, ErrPolicyNil
	}

	err := s.validateDocument(policy)
	if err != nil {
		return nil, err
	}

	err = s.persistence.PolicyRepository().Save(ctx, policy)
	if err != nil {
		return nil, fmt.Errorf("failed to save policy: %w", err)
	}

	return policy, nil
}

// Update validates and stores changes to an existing policy.
func (s *Policy) Update(ctx context.Context, id string, policy *models.Policy) (*models.Policy, error) {
	if policy == nil {
		return nil, ErrPolicyNil
	}

	existing, err := s.persistence.PolicyRepository().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	policy.ID = existing.ID
	policy.CreatedAt = existing.CreatedAt

	err = s.validateDocument(policy)
	if err != nil {
		return nil, err
	}

	err = s.persistence.PolicyRepository().Save(ctx, policy)
	if err != nil {
		return nil, fmt.Errorf("failed to save policy: %w", err)
	}

	return policy, nil
}

// FetchByID returns a policy by its id.
func (s *Policy) FetchByID(ctx context.Context, id string) (*models.Policy, error) {
	return s.persistence.PolicyRepository().GetByID(ctx, id)
}

// ListByTenant returns a tenant's policies in evaluation order.
func (s *Policy) ListByTenant(ctx context.Context, tenantID string) ([]*models.Policy, error) {
	if tenantID == "" {
		return nil, ErrEmptyTenantID
	}

	return s.persistence.PolicyRepository().ListByTenant(ctx, tenantID)
}

// Delete removes a policy.
func (s *Policy) Delete(ctx context.Context, id string) error {
	return s.persistence.PolicyRepository().Delete(ctx, id)
}

func (s *Policy) validateDocument(policy *models.Policy) error {
	document, err := json.Marshal(policy)
	if err != nil {
		return fmt.Errorf("failed to marshal policy: %w", err)
	}

	result, err := s.schema.Validate(gojsonschema.NewBytesLoader(document))
	if err != nil {
		return fmt.Errorf("failed to validate policy: %w", err)
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}

		return &ServiceError{
			Op:      "ValidatePolicy",
			Message: strings.Join(details, "; "),
			Err:     ErrInvalidPolicyDocument,
		}
	}

	return nil
}
