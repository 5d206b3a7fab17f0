// Package container provides dependency injection for finance-etl.
// It centralizes the creation and wiring of all application dependencies,
// making them explicit and testable.
package container

import (
	"context"
	"errors"
	"fmt"
	"io"

	"fjacquet/finance-etl/internal/backup"
	"fjacquet/finance-etl/internal/config"
	"fjacquet/finance-etl/internal/federation"
	"fjacquet/finance-etl/internal/labeling"
	"fjacquet/finance-etl/internal/ledger"
	"fjacquet/finance-etl/internal/logging"
	"fjacquet/finance-etl/internal/pipeline"
	"fjacquet/finance-etl/internal/report"
	"fjacquet/finance-etl/internal/sources/air"
	"fjacquet/finance-etl/internal/sources/fio"
	"fjacquet/finance-etl/internal/validation"

	"google.golang.org/api/option"
)

// Container holds all application dependencies and provides methods to access them.
//
// Container is immutable after creation - all fields are private and can only
// be accessed through getter methods.
type Container struct {
	logger   logging.Logger
	config   *config.Config
	settings config.RunSettings

	store    ledger.Store
	labeler  *labeling.Verifier
	pipeline *pipeline.Pipeline

	closers []io.Closer
}

// NewContainer creates and wires all application dependencies for one
// environment.
//
// Sources and the labeler are optional: a missing fio token or API key only
// fails the runs that need them.
func NewContainer(ctx context.Context, cfg *config.Config, settings config.RunSettings) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}

	// Create logger first as it's needed by other components
	logger := logging.NewLogrusAdapter(cfg.Log.Level, cfg.Log.Format).
		WithField("environment", settings.Environment)

	c := &Container{logger: logger, config: cfg, settings: settings}

	store, err := newStore(ctx, cfg, settings, logger)
	if err != nil {
		return nil, err
	}
	c.store = store

	labeler, err := c.newLabeler(ctx)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	c.labeler = labeler

	deps := pipeline.Deps{
		Mail:                air.NewSource(air.NewInbox(cfg.Air.InboxDir), nil, cfg.Air.Password, logger),
		Store:               store,
		Federator:           federation.NewFederator(logger),
		Reporter:            report.NewReportGenerator(logger),
		ReportPath:          cfg.Report.Output,
		SpreadsheetID:       settings.SpreadsheetID,
		WhitelistedAccounts: cfg.Federation.WhitelistedAccounts,
		InvestmentKeywords:  cfg.Federation.InvestmentKeywords,
		Logger:              logger,
	}

	// A nil *Verifier must not end up inside the Labeler interface
	if labeler != nil {
		deps.Merger = ledger.NewMerger(labeler, logger)
	} else {
		deps.Merger = ledger.NewMerger(nil, logger)
	}

	if cfg.Fio.Token != "" {
		fioClient, err := fio.NewClient(cfg.Fio.Token, cfg.Fio.BaseURL, nil, logger)
		if err != nil {
			_ = c.Close()
			return nil, err
		}
		deps.Fio = fioClient
	}

	if cfg.Backup.Enabled {
		snapshotter, err := c.newArchiver(ctx)
		if err != nil {
			_ = c.Close()
			return nil, err
		}
		deps.Snapshotter = snapshotter
	}

	p, err := pipeline.New(deps)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	c.pipeline = p

	logger.Info("Container initialized successfully",
		logging.Field{Key: "ledger_backend", Value: cfg.Ledger.Backend},
		logging.Field{Key: "labeling_enabled", Value: labeler != nil},
		logging.Field{Key: "backup_enabled", Value: cfg.Backup.Enabled})

	return c, nil
}

func newStore(ctx context.Context, cfg *config.Config, settings config.RunSettings, logger logging.Logger) (ledger.Store, error) {
	switch cfg.Ledger.Backend {
	case "csv":
		return ledger.NewCSVStore(cfg.Ledger.Directory, logger)
	case "sheets":
		var opts []option.ClientOption
		if file := cfg.Ledger.CredentialsFile; file != "" {
			if err := validation.CheckSecretFile(file); err != nil {
				logger.WithError(err).Warn("Service account credentials file failed the permission check",
					logging.Field{Key: logging.FieldFile, Value: file})
			}
			opts = append(opts, option.WithCredentialsFile(file))
		}
		return ledger.NewSheetsStore(ctx, settings.SpreadsheetID, logger, opts...)
	default:
		return nil, fmt.Errorf("unknown ledger backend: %s", cfg.Ledger.Backend)
	}
}

func (c *Container) newLabeler(ctx context.Context) (*labeling.Verifier, error) {
	cfg := c.config
	if cfg.AI.APIKey == "" {
		c.logger.Info("Labeling disabled: no API key configured")
		return nil, nil
	}

	var client labeling.Client
	switch cfg.AI.Provider {
	case "genai":
		genaiClient, err := labeling.NewGenAIClient(ctx, cfg.AI.APIKey, c.settings.Model, c.logger)
		if err != nil {
			return nil, err
		}
		client = genaiClient
	case "gemini":
		geminiClient, err := labeling.NewGeminiClient(ctx, cfg.AI.APIKey, c.settings.Model, c.logger)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, geminiClient)
		client = geminiClient
	default:
		return nil, fmt.Errorf("unknown labeling provider: %s", cfg.AI.Provider)
	}

	prompts, err := labeling.LoadPrompts(cfg.AI.PromptsFile)
	if err != nil {
		return nil, err
	}

	return labeling.NewVerifier(client, prompts, labeling.Settings{
		MaxAttempts: cfg.AI.MaxAttempts,
		Backoff:     cfg.AI.Backoff,
		ContextRows: cfg.AI.ContextRows,
	}, c.logger)
}

func (c *Container) newArchiver(ctx context.Context) (*backup.Archiver, error) {
	cfg := c.config.Backup
	if cfg.Bucket == "" {
		return backup.NewArchiver(backup.DirSink{Dir: cfg.Directory}, c.logger), nil
	}
	sink, err := backup.NewGCSSink(ctx, cfg.Bucket, cfg.Prefix)
	if err != nil {
		return nil, err
	}
	c.closers = append(c.closers, sink)
	return backup.NewArchiver(sink, c.logger), nil
}

// GetLogger returns the container's logger instance.
func (c *Container) GetLogger() logging.Logger {
	return c.logger
}

// GetConfig returns the container's configuration instance.
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetSettings returns the environment the container was built for.
func (c *Container) GetSettings() config.RunSettings {
	return c.settings
}

// GetPipeline returns the reconciliation pipeline.
func (c *Container) GetPipeline() *pipeline.Pipeline {
	return c.pipeline
}

// Close releases the network clients held by the container.
func (c *Container) Close() error {
	var errs []error
	for _, closer := range c.closers {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	c.logger.Debug("Container closed")
	return errors.Join(errs...)
}
