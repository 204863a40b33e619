package file

import (
	"context"
	"fmt"
	"os"

	"gitlab.lucky-team.pro/luckyads/go.tls-audit/internal/entities"
	"gitlab.lucky-team.pro/luckyads/go.tls-audit/internal/inventory/f5"
)

// Source reads a saved iControl REST ssl-cert export from disk.
type Source struct {
	path string
}

// New returns Source reading path.
func New(path string) Source {
	return Source{path: path}
}

// Fetch returns entries stored in the export file.
func (s Source) Fetch(ctx context.Context) ([]entities.InventoryEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open inventory file: %w", err)
	}
	defer f.Close() //nolint:errcheck

	return f5.Decode(f)
}
