package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/agentorhq/agentor/pkg/models"
)

// LogRepository handles audit log database operations. Append-only, like memories.
type LogRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewLogRepository creates a new log repository.
func NewLogRepository(db *sql.DB, logger *slog.Logger) *LogRepository {
	return &LogRepository{db: db, logger: logger}
}

// Append stores a new log entry.
func (r *LogRepository) Append(ctx context.Context, entry *models.LogEntry) error {
	detailJSON, err := json.Marshal(entry.Detail)
	if err != nil {
		return fmt.Errorf("failed to marshal log detail: %w", err)
	}

	query := `
		INSERT INTO logs (id, tenant_id, agent_type, workflow_id, event_type, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = r.db.ExecContext(ctx, query,
		entry.ID,
		entry.TenantID,
		entry.AgentType,
		entry.WorkflowID,
		entry.EventType,
		detailJSON,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert log entry: %w", err)
	}

	return nil
}

// ListByTenant returns up to limit entries for the tenant, newest first.
func (r *LogRepository) ListByTenant(ctx context.Context, tenantID string, limit int) ([]*models.LogEntry, error) {
	query := `
		SELECT
			id
		  , tenant_id
		  , agent_type
		  , workflow_id
		  , event_type
		  , detail
		  , created_at
		FROM logs
		WHERE tenant_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query logs: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	entries := make([]*models.LogEntry, 0)

	for rows.Next() {
		var (
			entry      models.LogEntry
			detailJSON []byte
		)

		err := rows.Scan(
			&entry.ID,
			&entry.TenantID,
			&entry.AgentType,
			&entry.WorkflowID,
			&entry.EventType,
			&detailJSON,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan log entry: %w", err)
		}

		err = json.Unmarshal(detailJSON, &entry.Detail)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal log detail: %w", err)
		}

		entries = append(entries, &entry)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating logs: %w", err)
	}

	return entries, nil
}
