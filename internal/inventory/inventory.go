package inventory

import (
	"context"

	"gitlab.lucky-team.pro/luckyads/go.tls-audit/internal/entities"
)

//go:generate mockgen -source=inventory.go -package=inventory -destination=inventory_mock.go

// Source defines interface to the load balancer certificate inventory.
type Source interface {
	// Fetch returns every certificate record of the inventory in source order.
	// A partial result is never returned: any error means the whole fetch failed.
	Fetch(ctx context.Context) ([]entities.InventoryEntry, error)
}
