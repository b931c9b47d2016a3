package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/agentorhq/agentor/pkg/persistence"
	"github.com/agentorhq/agentor/pkg/persistence/file"
	"github.com/agentorhq/agentor/pkg/persistence/postgresql"
)

// NewPersistence selects the persistence implementation from the database URL
// scheme. postgres:// URLs get the PostgreSQL layer; everything else falls back
// to file storage.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) persistence.Persistence {
	switch parsePersistenceProvider(databaseURL) {
	case "postgres", "postgresql":
		p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			panic(fmt.Errorf("failed to create PostgreSQL persistence: %w", err))
		}

		return p
	default:
		return file.NewPersistence(databaseURL)
	}
}

func parsePersistenceProvider(databaseURL string) string {
	provider, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	return provider
}
