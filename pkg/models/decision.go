package models

// DefaultAction is chosen when no active policy contributes an action.
const DefaultAction = "analyze"

// Decision is the outcome of a single decision-engine invocation. It is not
// persisted as its own row; its full content is captured in a decision log entry
// and in the owning task's result payload.
type Decision struct {
	Action string         `json:"action"`
	Params map[string]any `json:"params,omitempty"`

	// AppliedPolicies lists every matched policy name, not just the one that
	// contributed the chosen action. An empty list means the default action fired.
	AppliedPolicies []string `json:"applied_policies"`

	// MemoryUsed holds the ids of the memory records attached as evidence.
	MemoryUsed []string `json:"memory_used"`

	Rationale string `json:"rationale"`
}
