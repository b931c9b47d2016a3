// Package web provides HTTP request and response types for the agent API.
package web

import "github.com/agentorhq/agentor/pkg/models"

// RunAgentRequest represents the request body for running an agent.
type RunAgentRequest struct {
	TenantID  string         `json:"tenant_id"       validate:"required,min=1"`
	AgentType string         `json:"agent_type"      validate:"required,min=1"`
	Goal      string         `json:"goal"            validate:"required,min=1"`
	Input     map[string]any `json:"input,omitempty"`
	Mode      string         `json:"mode"            validate:"omitempty,oneof=simulate plan auto"`
}

// CreatePolicyRequest represents the request body for creating a new policy.
type CreatePolicyRequest struct {
	TenantID   string              `json:"tenant_id"  validate:"required,min=1"`
	AgentType  string              `json:"agent_type" validate:"required,min=1"`
	Name       string              `json:"name"       validate:"required,min=3"`
	Conditions []models.Condition  `json:"conditions"`
	Actions    []models.ActionSpec `json:"actions"    validate:"required,min=1,dive"`
	Priority   int                 `json:"priority"`
	Active     bool                `json:"active"`
}

// UpdatePolicyRequest represents the request body for updating an existing policy.
// All fields are optional to support partial updates.
type UpdatePolicyRequest struct {
	Name       *string             `json:"name,omitempty"     validate:"omitempty,min=3"`
	Conditions []models.Condition  `json:"conditions,omitempty"`
	Actions    []models.ActionSpec `json:"actions,omitempty"  validate:"omitempty,min=1,dive"`
	Priority   *int                `json:"priority,omitempty"`
	Active     *bool               `json:"active,omitempty"`
}
