// Package root contains the root command for the application
package root

import (
	"context"
	"fmt"
	"time"

	"fjacquet/finance-etl/internal/config"
	"fjacquet/finance-etl/internal/container"
	"fjacquet/finance-etl/internal/dateutils"
	"fjacquet/finance-etl/internal/logging"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Log is the shared logger instance for commands
	Log = logging.NewLogrusAdapter("info", "text")

	// AppConfig is loaded before any subcommand runs
	AppConfig *config.Config

	configFile string
	logLevel   string
	logFormat  string

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "finance-etl",
		Short: "Reconcile bank transactions into a categorized ledger.",
		Long: `finance-etl fetches a month of transactions from the Fio bank API and the AIR bank
statement inbox, classifies them into incomes, expenses and investments, optionally labels
them with an LLM and writes them to the ledger.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.InitializeConfig(configFile)
			if err != nil {
				return err
			}
			if logLevel != "" {
				if _, err := logrus.ParseLevel(logLevel); err != nil {
					return fmt.Errorf("invalid log level: %s", logLevel)
				}
				cfg.Log.Level = logLevel
			}
			if logFormat != "" {
				if logFormat != "text" && logFormat != "json" {
					return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", logFormat)
				}
				cfg.Log.Format = logFormat
			}
			AppConfig = cfg
			Log = logging.NewLogrusAdapter(cfg.Log.Level, cfg.Log.Format)
			return nil
		},
	}
)

// Init initializes the root command and all flags
func Init() {
	Cmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default is $HOME/.finance-etl/config.yaml)")
	Cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	Cmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format (text, json)")
}

// NewContainer wires the application for the given environment. An empty
// environment selects the configured one.
func NewContainer(ctx context.Context, environment string) (*container.Container, error) {
	if AppConfig == nil {
		return nil, fmt.Errorf("configuration is not loaded")
	}
	settings, err := AppConfig.ForEnvironment(environment)
	if err != nil {
		return nil, err
	}
	return container.NewContainer(ctx, AppConfig, settings)
}

// ResolvePeriod parses a MM-YYYY month flag, defaulting to the month before now.
func ResolvePeriod(month string, now time.Time) (dateutils.Period, error) {
	if month == "" {
		return dateutils.LastMonth(now), nil
	}
	return dateutils.ParsePeriod(month)
}

// Context returns the command context, or a background context when the
// command was executed without one.
func Context(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
