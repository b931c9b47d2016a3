package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/agentorhq/agentor/pkg/models"
)

// MemoryRepository handles memory-related database operations. The table is
// append-only; there are no update or delete statements here on purpose.
type MemoryRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewMemoryRepository creates a new memory repository.
func NewMemoryRepository(db *sql.DB, logger *slog.Logger) *MemoryRepository {
	return &MemoryRepository{db: db, logger: logger}
}

// Append stores a new memory record.
func (r *MemoryRepository) Append(ctx context.Context, record *models.MemoryRecord) error {
	contentJSON, err := json.Marshal(record.Content)
	if err != nil {
		return fmt.Errorf("failed to marshal memory content: %w", err)
	}

	query := `
		INSERT INTO memories (id, tenant_id, agent_type, kind, content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err = r.db.ExecContext(ctx, query,
		record.ID,
		record.TenantID,
		record.AgentType,
		record.Kind,
		contentJSON,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert memory record: %w", err)
	}

	return nil
}

// Recent returns up to limit records for the tenant/agent-type pair, newest first.
func (r *MemoryRepository) Recent(ctx context.Context, tenantID, agentType string, limit int) ([]*models.MemoryRecord, error) {
	query := `
		SELECT
			id
		  , tenant_id
		  , agent_type
		  , kind
		  , content
		  , created_at
		FROM memories
		WHERE tenant_id = $1 AND agent_type = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID, agentType, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query memories: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	records := make([]*models.MemoryRecord, 0)

	for rows.Next() {
		var (
			record      models.MemoryRecord
			contentJSON []byte
		)

		err := rows.Scan(
			&record.ID,
			&record.TenantID,
			&record.AgentType,
			&record.Kind,
			&contentJSON,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan memory record: %w", err)
		}

		err = json.Unmarshal(contentJSON, &record.Content)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal memory content: %w", err)
		}

		records = append(records, &record)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating memories: %w", err)
	}

	return records, nil
}
