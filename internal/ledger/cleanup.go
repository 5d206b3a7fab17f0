package ledger

import (
	"context"

	"fjacquet/finance-etl/internal/dateutils"
	"fjacquet/finance-etl/internal/logging"
	"fjacquet/finance-etl/internal/models"

	"golang.org/x/sync/errgroup"
)

// PurgePeriod drops every row dated within the period's month and year,
// keeping the others in order.
func PurgePeriod(rows []models.Transaction, period dateutils.Period) ([]models.Transaction, int) {
	kept := make([]models.Transaction, 0, len(rows))
	for _, tx := range rows {
		if period.Contains(tx.Date) {
			continue
		}
		kept = append(kept, tx)
	}
	return kept, len(rows) - len(kept)
}

// CleanupLedger removes the period's rows from every category, undoing a
// reconciliation run for that month.
func CleanupLedger(ctx context.Context, store Store, period dateutils.Period, logger logging.Logger) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, category := range models.Categories {
		g.Go(func() error {
			rows, err := store.Fetch(ctx, category)
			if err != nil {
				return err
			}
			kept, removed := PurgePeriod(rows, period)
			if err := store.Replace(ctx, category, kept); err != nil {
				return err
			}
			logger.Info("Ledger cleaned up",
				logging.Field{Key: logging.FieldCategory, Value: string(category)},
				logging.Field{Key: logging.FieldPeriod, Value: period.String()},
				logging.Field{Key: "removed", Value: removed})
			return nil
		})
	}
	return g.Wait()
}
