// Package models defines the core domain models for policy-driven agent orchestration.
package models

import "time"

// MemoryKind categorizes a memory record's content payload.
type MemoryKind string

const (
	// MemoryKindObservation records the outcome of an orchestration run.
	MemoryKindObservation MemoryKind = "observation"
	// MemoryKindWorkflowResult records the result payload of a finished workflow step chain.
	MemoryKindWorkflowResult MemoryKind = "workflow_result"
)

// MemoryRecord is a single immutable observation scoped to a tenant and agent type.
// Records are append-only: once written they are never updated or deleted by the
// engine, so decision rationale stays reproducible after the fact.
type MemoryRecord struct {
	ID        string         `json:"id"`
	TenantID  string         `json:"tenant_id"`
	AgentType string         `json:"agent_type"`
	Kind      MemoryKind     `json:"kind"`
	Content   map[string]any `json:"content"`
	CreatedAt time.Time      `json:"created_at"`
}
