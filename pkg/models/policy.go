package models

import "time"

// Condition operators understood by the policy engine. Anything else evaluates
// to false rather than erroring, so one malformed policy cannot block its siblings.
const (
	OperatorGreaterThan = ">"
	OperatorLessThan    = "<"
	OperatorEquals      = "=="
	OperatorContains    = "contains"
)

// Condition compares a single fact field against a value.
type Condition struct {
	Field    string `json:"field"    validate:"required"`
	Operator string `json:"operator" validate:"required"`
	Value    any    `json:"value"`
}

// ActionSpec names an action a matched policy wants to run, with an optional
// parameter bag passed through to the action handler.
type ActionSpec struct {
	Action string         `json:"action" validate:"required"`
	Params map[string]any `json:"params,omitempty"`
}

// Policy is a declarative condition->action rule scoped to a tenant and agent type.
// A policy with no conditions matches unconditionally. Policies are authored
// externally; the engine only reads them.
type Policy struct {
	ID        string `json:"id"`
	TenantID  string `json:"tenant_id"  validate:"required"`
	AgentType string `json:"agent_type" validate:"required"`
	Name      string `json:"name"       validate:"required,min=3"`
	Active    bool   `json:"active"`

	// Priority orders policies during evaluation: lower values are evaluated
	// first, ties broken by creation time. The first action of the first matched
	// policy becomes the decision's chosen action.
	Priority int `json:"priority"`

	Conditions []Condition  `json:"conditions"`
	Actions    []ActionSpec `json:"actions" validate:"required,min=1,dive"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
