// Package ledger persists the three category ledgers and implements the
// merge and cleanup steps applied to them.
package ledger

import (
	"context"

	"fjacquet/finance-etl/internal/models"
)

// Store reads and overwrites one category ledger at a time.
type Store interface {
	// Fetch returns every row currently stored for the category, in stored order.
	Fetch(ctx context.Context, category models.Category) ([]models.Transaction, error)
	// Replace overwrites the category with rows.
	Replace(ctx context.Context, category models.Category, rows []models.Transaction) error
}
