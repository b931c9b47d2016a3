// Package memory provides the append-only observation store that feeds decision
// context.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/agentorhq/agentor/pkg/models"
	"github.com/agentorhq/agentor/pkg/persistence"
	"github.com/google/uuid"
)

// Store appends observations and serves them back newest-first. It deliberately
// exposes no update or delete: memory is immutable so decision rationale stays
// reproducible.
type Store struct {
	memories persistence.MemoryRepository
	logger   *slog.Logger
}

// NewStore creates a new memory store.
func NewStore(memories persistence.MemoryRepository, logger *slog.Logger) *Store {
	return &Store{
		memories: memories,
		logger:   logger.With("module", "memory"),
	}
}

// Record appends an observation and returns the stored record.
func (s *Store) Record(ctx context.Context, tenantID, agentType string, kind models.MemoryKind, content map[string]any) (*models.MemoryRecord, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate memory record ID: %w", err)
	}

	record := &models.MemoryRecord{
		ID:        id.String(),
		TenantID:  tenantID,
		AgentType: agentType,
		Kind:      kind,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	err = s.memories.Append(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("failed to append memory record: %w", err)
	}

	s.logger.DebugContext(ctx, "Recorded memory",
		"tenant_id", tenantID,
		"agent_type", agentType,
		"kind", kind)

	return record, nil
}

// Recent returns up to limit records for the tenant/agent-type pair,
// newest-first. An empty history is an empty slice, not an error.
func (s *Store) Recent(ctx context.Context, tenantID, agentType string, limit int) ([]*models.MemoryRecord, error) {
	records, err := s.memories.Recent(ctx, tenantID, agentType, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recent memories: %w", err)
	}

	return records, nil
}
