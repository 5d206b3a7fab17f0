package ledger

import (
	"context"
	"errors"

	"fjacquet/finance-etl/internal/logging"
	"fjacquet/finance-etl/internal/models"
)

// Labeler tags new rows with a category and returns them merged with existing.
type Labeler interface {
	Label(ctx context.Context, category models.Category, newRows, existing []models.Transaction) ([]models.Transaction, error)
}

// Merger combines freshly federated rows with a category's existing ledger.
type Merger struct {
	labeler Labeler
	logger  logging.Logger
}

// NewMerger creates a Merger. labeler may be nil when labeling is never requested.
func NewMerger(labeler Labeler, logger logging.Logger) *Merger {
	return &Merger{labeler: labeler, logger: logger.WithField(logging.FieldComponent, "merger")}
}

// CanLabel reports whether a labeler is configured.
func (m *Merger) CanLabel() bool {
	return m.labeler != nil
}

// Merge returns newRows and existing as one ledger, newest first. With
// useLabeling the new rows go through the labeler; investments are always
// merged as they are.
func (m *Merger) Merge(ctx context.Context, category models.Category, newRows, existing []models.Transaction, useLabeling bool) ([]models.Transaction, error) {
	if !useLabeling || category == models.CategoryInvestments {
		m.logger.Debug("Merging without labeling",
			logging.Field{Key: logging.FieldCategory, Value: string(category)},
			logging.Field{Key: logging.FieldCount, Value: len(newRows)})
		return models.SortByDateDesc(models.Concat(newRows, existing)), nil
	}

	if m.labeler == nil {
		return nil, errors.New("labeling requested but no labeler is configured")
	}
	return m.labeler.Label(ctx, category, newRows, existing)
}
