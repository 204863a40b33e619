package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"go.uber.org/zap"

	"gitlab.lucky-team.pro/luckyads/go.tls-audit/internal/config"
	"gitlab.lucky-team.pro/luckyads/go.tls-audit/internal/entities"
)

// Storage is a postgres-based implementation of inventory.Source.
// It serves inventories mirrored from the load balancer into a table.
type Storage struct {
	mainDB *pgxpool.Pool
	logger *zap.Logger
	query  string
}

// New connects to postgres. Context is used during dial only,
// connString may contain pgx specific parameters.
func New(ctx context.Context, logger *zap.Logger, conf *config.Postgres) (Storage, error) {
	mainDB, err := pgxpool.Connect(ctx, conf.MainDBConnectionString)
	if err != nil {
		return Storage{}, fmt.Errorf("failed to create mainDB pgx pool: %w", err)
	}

	return Storage{
		mainDB: mainDB,
		logger: logger,
		query:  conf.Query,
	}, nil
}

// Fetch returns common names selected by the configured query.
// The query must return a single text column.
func (s *Storage) Fetch(ctx context.Context) ([]entities.InventoryEntry, error) {
	rows, err := s.mainDB.Query(ctx, s.query)
	if err != nil {
		return nil, fmt.Errorf("failed to query certificates: %w", err)
	}
	defer rows.Close()

	var entries []entities.InventoryEntry
	for rows.Next() {
		var entry entities.InventoryEntry
		if err := rows.Scan(&entry.CommonName); err != nil {
			return nil, fmt.Errorf("failed to scan certificate: %w", err)
		}

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read certificate list: %w", err)
	}

	s.logger.Debug("fetched inventory from postgres", zap.Int("entries", len(entries)))

	return entries, nil
}

// Close releases underlying db resources.
func (s *Storage) Close() error {
	s.mainDB.Close()
	return nil
}
