// Package pipeline runs one reconciliation: fetch the sources for a period,
// federate them, merge the result into the ledger and write it back. A
// failure after fetching rolls the period back out of the ledger.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fjacquet/finance-etl/internal/dateutils"
	"fjacquet/finance-etl/internal/etlerror"
	"fjacquet/finance-etl/internal/federation"
	"fjacquet/finance-etl/internal/ledger"
	"fjacquet/finance-etl/internal/logging"
	"fjacquet/finance-etl/internal/models"
	"fjacquet/finance-etl/internal/report"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Fetcher retrieves the raw records of one source for a period.
type Fetcher interface {
	Fetch(ctx context.Context, period dateutils.Period) ([]models.RawRecord, error)
}

// MailSource is the statement source that can be reset for a period.
type MailSource interface {
	Fetcher
	Reset(ctx context.Context, period dateutils.Period) error
}

// Snapshotter archives the ledger state a run is about to overwrite.
type Snapshotter interface {
	Snapshot(ctx context.Context, period dateutils.Period, runID string, category models.Category, rows []models.Transaction) error
}

// Reporter writes the run summary.
type Reporter interface {
	WriteReport(summary *report.Summary, path string) error
}

// Deps are the collaborators of a Pipeline. Fio and Mail are only needed by
// the actions that use them; Snapshotter and Reporter are optional.
type Deps struct {
	Fio         Fetcher
	Mail        MailSource
	Store       ledger.Store
	Merger      *ledger.Merger
	Federator   *federation.Federator
	Snapshotter Snapshotter
	Reporter    Reporter
	ReportPath  string

	// SpreadsheetID links the run summary to the ledger; empty for file ledgers.
	SpreadsheetID string

	WhitelistedAccounts []string
	InvestmentKeywords  []string

	Logger logging.Logger
}

// Pipeline orchestrates reconciliation runs.
type Pipeline struct {
	deps     Deps
	logger   logging.Logger
	newRunID func() string
	now      func() time.Time
}

// Result describes a completed run.
type Result struct {
	RunID      string
	Federation *federation.Result
	Summary    *report.Summary
}

// New creates a Pipeline.
func New(deps Deps) (*Pipeline, error) {
	if deps.Store == nil {
		return nil, errors.New("pipeline needs a ledger store")
	}
	if deps.Logger == nil {
		deps.Logger = logging.NewLogrusAdapter("info", "text")
	}
	if deps.Merger == nil {
		deps.Merger = ledger.NewMerger(nil, deps.Logger)
	}
	if deps.Federator == nil {
		deps.Federator = federation.NewFederator(deps.Logger)
	}
	return &Pipeline{
		deps:     deps,
		logger:   deps.Logger.WithField(logging.FieldComponent, "pipeline"),
		newRunID: uuid.NewString,
		now:      time.Now,
	}, nil
}

// Run executes a reconciliation followed by the requested cleanup. With
// ActionNone only the cleanup runs.
//
// Source failures abort the run before anything is written. Any later
// failure triggers a cleanup of the period; if that fails too the returned
// error is an *etlerror.FallbackError carrying both.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.WithLabeling && opts.Actions != ActionNone && !p.deps.Merger.CanLabel() {
		return nil, errors.New("labeling requested but no labeler is configured")
	}

	result := &Result{RunID: p.newRunID()}
	logger := p.logger.WithFields(
		logging.Field{Key: logging.FieldRunID, Value: result.RunID},
		logging.Field{Key: logging.FieldPeriod, Value: opts.Period.String()})

	if opts.Actions != ActionNone {
		fioRecords, airRecords, err := p.fetchSources(ctx, opts, logger)
		if err != nil {
			logger.WithError(err).Error("Fetching source data failed")
			return result, err
		}

		if err := p.reconcile(ctx, opts, result, fioRecords, airRecords, logger); err != nil {
			return result, p.fallback(ctx, opts.Period, err, logger)
		}

		if err := p.writeReport(result.Summary); err != nil {
			logger.WithError(err).Error("Writing run summary failed")
			return result, err
		}
		logger.Info("Every action completed")
	}

	if err := p.cleanup(ctx, opts.Cleanup, opts.Period, logger); err != nil {
		return result, err
	}
	return result, nil
}

// Cleanup resets the period without running a reconciliation.
func (p *Pipeline) Cleanup(ctx context.Context, mode CleanupMode, period dateutils.Period) error {
	if _, err := ParseCleanupMode(string(mode)); err != nil {
		return err
	}
	if period.IsZero() {
		return errors.New("no period given")
	}
	logger := p.logger.WithFields(
		logging.Field{Key: logging.FieldRunID, Value: p.newRunID()},
		logging.Field{Key: logging.FieldPeriod, Value: period.String()})
	return p.cleanup(ctx, mode, period, logger)
}

func (p *Pipeline) fetchSources(ctx context.Context, opts Options, logger logging.Logger) (fio, air []models.RawRecord, err error) {
	if opts.Actions.needsMail() {
		if p.deps.Mail == nil {
			return nil, nil, errors.New("mail source is not configured")
		}
		if air, err = p.deps.Mail.Fetch(ctx, opts.Period); err != nil {
			return nil, nil, err
		}
		logger.Info("Records fetched",
			logging.Field{Key: logging.FieldSource, Value: string(models.SourceAir)},
			logging.Field{Key: logging.FieldCount, Value: len(air)})
	}

	if opts.Actions.needsFio() {
		if p.deps.Fio == nil {
			return nil, nil, errors.New("fio source is not configured")
		}
		if fio, err = p.deps.Fio.Fetch(ctx, opts.Period); err != nil {
			return nil, nil, err
		}
		logger.Info("Records fetched",
			logging.Field{Key: logging.FieldSource, Value: string(models.SourceFio)},
			logging.Field{Key: logging.FieldCount, Value: len(fio)})
	}
	return fio, air, nil
}

func (p *Pipeline) reconcile(ctx context.Context, opts Options, result *Result, fioRecords, airRecords []models.RawRecord, logger logging.Logger) error {
	federated, err := p.deps.Federator.Federate(federation.Config{
		Scope:               opts.Actions.scope(),
		WhitelistedAccounts: p.deps.WhitelistedAccounts,
		InvestmentKeywords:  p.deps.InvestmentKeywords,
	}, fioRecords, airRecords)
	if err != nil {
		return err
	}
	result.Federation = federated

	existing, err := p.fetchLedger(ctx)
	if err != nil {
		return err
	}

	merged, err := p.merge(ctx, federated, existing, opts.WithLabeling)
	if err != nil {
		return err
	}

	if p.deps.Snapshotter != nil {
		for _, category := range models.Categories {
			if err := p.deps.Snapshotter.Snapshot(ctx, opts.Period, result.RunID, category, existing[category]); err != nil {
				return err
			}
		}
	}

	if err := p.replaceLedger(ctx, merged); err != nil {
		return err
	}
	for _, category := range models.Categories {
		logger.Info("Ledger written",
			logging.Field{Key: logging.FieldCategory, Value: string(category)},
			logging.Field{Key: logging.FieldCount, Value: len(merged[category])})
	}

	summary := report.NewSummary(opts.Period, federated.Incomes, federated.Expenses, federated.Investments)
	summary.RunID = result.RunID
	summary.GeneratedAt = p.now()
	summary.SpreadsheetID = p.deps.SpreadsheetID
	result.Summary = summary
	return nil
}

type ledgers map[models.Category][]models.Transaction

// fetchLedger reads the three categories concurrently.
func (p *Pipeline) fetchLedger(ctx context.Context) (ledgers, error) {
	rows := make([][]models.Transaction, len(models.Categories))
	g, gctx := errgroup.WithContext(ctx)
	for i, category := range models.Categories {
		g.Go(func() error {
			fetched, err := p.deps.Store.Fetch(gctx, category)
			if err != nil {
				return err
			}
			rows[i] = fetched
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(ledgers, len(models.Categories))
	for i, category := range models.Categories {
		out[category] = rows[i]
	}
	return out, nil
}

// merge concatenates investments and runs expenses and incomes through the
// merger concurrently.
func (p *Pipeline) merge(ctx context.Context, federated *federation.Result, existing ledgers, withLabeling bool) (ledgers, error) {
	investments, err := p.deps.Merger.Merge(ctx, models.CategoryInvestments,
		federated.Investments, existing[models.CategoryInvestments], false)
	if err != nil {
		return nil, err
	}

	var expenses, incomes []models.Transaction
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		expenses, err = p.deps.Merger.Merge(gctx, models.CategoryExpenses,
			federated.Expenses, existing[models.CategoryExpenses], withLabeling)
		return err
	})
	g.Go(func() error {
		var err error
		incomes, err = p.deps.Merger.Merge(gctx, models.CategoryIncomes,
			federated.Incomes, existing[models.CategoryIncomes], withLabeling)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return ledgers{
		models.CategoryIncomes:     incomes,
		models.CategoryExpenses:    expenses,
		models.CategoryInvestments: investments,
	}, nil
}

// replaceLedger writes the three categories concurrently.
func (p *Pipeline) replaceLedger(ctx context.Context, merged ledgers) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, category := range models.Categories {
		rows := merged[category]
		g.Go(func() error {
			return p.deps.Store.Replace(gctx, category, rows)
		})
	}
	return g.Wait()
}

func (p *Pipeline) fallback(ctx context.Context, period dateutils.Period, cause error, logger logging.Logger) error {
	logger.WithError(cause).Error("Run failed, falling back to ledger cleanup")

	if err := ledger.CleanupLedger(context.WithoutCancel(ctx), p.deps.Store, period, logger); err != nil {
		logger.WithError(err).Error("Cleanup fallback failed")
		return &etlerror.FallbackError{Cause: cause, FallbackErr: err}
	}
	return cause
}

func (p *Pipeline) cleanup(ctx context.Context, mode CleanupMode, period dateutils.Period, logger logging.Logger) error {
	if mode == "" || mode == CleanupNone {
		return nil
	}
	logger.Info("Initializing cleanup", logging.Field{Key: "mode", Value: string(mode)})

	if mode.purgesLedger() {
		if err := ledger.CleanupLedger(ctx, p.deps.Store, period, logger); err != nil {
			return fmt.Errorf("ledger cleanup: %w", err)
		}
	}
	if mode.resetsMail() {
		if p.deps.Mail == nil {
			return errors.New("mail source is not configured")
		}
		if err := p.deps.Mail.Reset(ctx, period); err != nil {
			return fmt.Errorf("mail cleanup: %w", err)
		}
	}
	return nil
}

func (p *Pipeline) writeReport(summary *report.Summary) error {
	if p.deps.Reporter == nil || p.deps.ReportPath == "" || summary == nil {
		return nil
	}
	return p.deps.Reporter.WriteReport(summary, p.deps.ReportPath)
}
