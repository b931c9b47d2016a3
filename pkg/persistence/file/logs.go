package file

import (
	"context"
	"fmt"
	"sort"

	"github.com/agentorhq/agentor/pkg/models"
)

const logsDir = "logs"

// LogRepository handles audit log file operations. Entries are append-only.
type LogRepository struct {
	root string
}

// NewLogRepository creates a new log repository.
func NewLogRepository(root string) *LogRepository {
	return &LogRepository{root: root}
}

// Append stores a new log entry.
func (lr *LogRepository) Append(_ context.Context, entry *models.LogEntry) error {
	return writeEntity(lr.root, logsDir, entry.ID, entry)
}

// ListByTenant returns up to limit entries for the tenant, newest-first.
func (lr *LogRepository) ListByTenant(_ context.Context, tenantID string, limit int) ([]*models.LogEntry, error) {
	ids, err := listEntityIDs(lr.root, logsDir)
	if err != nil {
		return nil, err
	}

	entries := make([]*models.LogEntry, 0)

	for _, id := range ids {
		var entry models.LogEntry

		err := readEntity(lr.root, logsDir, id, &entry)
		if err != nil {
			return nil, fmt.Errorf("failed to load log entry %s: %w", id, err)
		}

		if entry.TenantID != tenantID {
			continue
		}

		entries = append(entries, &entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.After(entries[j].CreatedAt)
		}

		return entries[i].ID > entries[j].ID
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	return entries, nil
}
