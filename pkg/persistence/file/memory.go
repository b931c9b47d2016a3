package file

import (
	"context"
	"fmt"
	"sort"

	"github.com/agentorhq/agentor/pkg/models"
)

const memoriesDir = "memories"

// MemoryRepository handles memory-record file operations. Records are
// append-only; there is no update or delete path.
type MemoryRepository struct {
	root string
}

// NewMemoryRepository creates a new memory repository.
func NewMemoryRepository(root string) *MemoryRepository {
	return &MemoryRepository{root: root}
}

// Append stores a new memory record.
func (mr *MemoryRepository) Append(_ context.Context, record *models.MemoryRecord) error {
	return writeEntity(mr.root, memoriesDir, record.ID, record)
}

// Recent returns up to limit records for the tenant/agent-type pair, newest-first.
func (mr *MemoryRepository) Recent(_ context.Context, tenantID, agentType string, limit int) ([]*models.MemoryRecord, error) {
	ids, err := listEntityIDs(mr.root, memoriesDir)
	if err != nil {
		return nil, err
	}

	records := make([]*models.MemoryRecord, 0)

	for _, id := range ids {
		var record models.MemoryRecord

		err := readEntity(mr.root, memoriesDir, id, &record)
		if err != nil {
			return nil, fmt.Errorf("failed to load memory record %s: %w", id, err)
		}

		if record.TenantID != tenantID || record.AgentType != agentType {
			continue
		}

		records = append(records, &record)
	}

	sort.Slice(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.After(records[j].CreatedAt)
		}

		// UUIDv7 ids are time-ordered, so they break same-timestamp ties.
		return records[i].ID > records[j].ID
	})

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	return records, nil
}
