// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aferraz/driveline/pkg/persistence"
	"github.com/aferraz/driveline/pkg/persistence/file"
	"github.com/aferraz/driveline/pkg/persistence/postgresql"
)

// NewPersistence selects the persistence backend from the database URL:
// postgres:// URLs get the PostgreSQL backend, anything else is treated as a
// file-storage root path.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) persistence.Persistence {
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			panic(fmt.Errorf("failed to connect to PostgreSQL: %w", err))
		}

		return p
	}

	return file.NewPersistence(databaseURL)
}
