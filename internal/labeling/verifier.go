// Package labeling asks a language model to tag new ledger rows with a
// category and verifies that the model neither lost nor altered any row.
package labeling

import (
	"context"
	"errors"
	"strconv"
	"time"

	"fjacquet/finance-etl/internal/etlerror"
	"fjacquet/finance-etl/internal/logging"
	"fjacquet/finance-etl/internal/models"
)

// Default verifier settings.
const (
	DefaultMaxAttempts = 3
	DefaultBackoff     = time.Second
	DefaultContextRows = 150
)

// Settings tunes the verifier.
type Settings struct {
	MaxAttempts int
	Backoff     time.Duration
	// ContextRows is the number of most recent existing rows sent as examples.
	ContextRows int
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		MaxAttempts: DefaultMaxAttempts,
		Backoff:     DefaultBackoff,
		ContextRows: DefaultContextRows,
	}
}

// Verifier labels rows through a Client and checks row count and value sum
// before accepting the answer.
type Verifier struct {
	client   Client
	prompts  *Prompts
	settings Settings
	logger   logging.Logger
	wait     func(ctx context.Context, d time.Duration) error
}

// NewVerifier creates a Verifier. A nil prompts value selects the built-in
// prompts; a zero MaxAttempts or Backoff takes the default.
func NewVerifier(client Client, prompts *Prompts, settings Settings, logger logging.Logger) (*Verifier, error) {
	if client == nil {
		return nil, errors.New("labeling client is required")
	}
	if prompts == nil {
		var err error
		if prompts, err = DefaultPrompts(); err != nil {
			return nil, err
		}
	}
	if settings.MaxAttempts <= 0 {
		settings.MaxAttempts = DefaultMaxAttempts
	}
	if settings.Backoff <= 0 {
		settings.Backoff = DefaultBackoff
	}
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}

	return &Verifier{
		client:   client,
		prompts:  prompts,
		settings: settings,
		logger:   logger.WithField(logging.FieldComponent, "labeling"),
		wait:     sleepContext,
	}, nil
}

// Label tags newRows and returns them merged with existing, newest first.
// Existing rows are sent only as examples and are never replaced by the
// model's output.
func (v *Verifier) Label(ctx context.Context, category models.Category, newRows, existing []models.Transaction) ([]models.Transaction, error) {
	logger := v.logger.WithField(logging.FieldCategory, string(category))
	if len(newRows) == 0 {
		logger.Debug("No new rows to label")
		return models.SortByDateDesc(existing), nil
	}

	prompt := v.prompts.Build(category, v.reference(existing), newRows)
	logger.Info("Prompting labeler",
		logging.Field{Key: logging.FieldCount, Value: len(newRows)})

	var lastErr error
	for attempt := 1; attempt <= v.settings.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := v.attempt(ctx, category, prompt, newRows)
		if err == nil {
			logger.Info("Labels added",
				logging.Field{Key: logging.FieldCount, Value: len(result.Transactions)},
				logging.Field{Key: logging.FieldTokens, Value: result.Tokens},
				logging.Field{Key: logging.FieldAttempt, Value: attempt})
			return models.SortByDateDesc(models.Concat(result.Transactions, existing)), nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		lastErr = err
		logger.WithError(err).Warn("Labeling attempt failed",
			logging.Field{Key: logging.FieldAttempt, Value: attempt},
			logging.Field{Key: logging.FieldMaxAttempts, Value: v.settings.MaxAttempts})

		if attempt < v.settings.MaxAttempts {
			if err := v.wait(ctx, v.settings.Backoff); err != nil {
				return nil, err
			}
		}
	}

	return nil, &etlerror.RetriesExhaustedError{
		Category: string(category),
		Attempts: v.settings.MaxAttempts,
		Err:      lastErr,
	}
}

func (v *Verifier) attempt(ctx context.Context, category models.Category, prompt string, newRows []models.Transaction) (*LabelResult, error) {
	output, err := v.client.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	result, err := ParseLabelResult(category, output)
	if err != nil {
		return nil, err
	}
	if err := CheckIntegrity(category, newRows, result.Transactions); err != nil {
		return nil, err
	}
	return result, nil
}

// CheckIntegrity verifies that labeling kept the number of rows and the exact
// sum of their values.
func CheckIntegrity(category models.Category, before, after []models.Transaction) error {
	if len(before) != len(after) {
		return &etlerror.IntegrityViolationError{
			Category: string(category),
			Kind:     etlerror.IntegrityRowCount,
			Expected: strconv.Itoa(len(before)),
			Actual:   strconv.Itoa(len(after)),
		}
	}

	expected, actual := models.SumValues(before), models.SumValues(after)
	if !expected.Equal(actual) {
		return &etlerror.IntegrityViolationError{
			Category: string(category),
			Kind:     etlerror.IntegrityValueSum,
			Expected: expected.String(),
			Actual:   actual.String(),
		}
	}
	return nil
}

func (v *Verifier) reference(existing []models.Transaction) []models.Transaction {
	if v.settings.ContextRows <= 0 {
		return nil
	}
	sorted := models.SortByDateDesc(existing)
	if len(sorted) > v.settings.ContextRows {
		sorted = sorted[:v.settings.ContextRows]
	}
	return sorted
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
