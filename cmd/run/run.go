// Package run implements the reconciliation command
package run

import (
	"fmt"
	"time"

	"fjacquet/finance-etl/cmd/root"
	"fjacquet/finance-etl/internal/logging"
	"fjacquet/finance-etl/internal/pipeline"

	"github.com/spf13/cobra"
)

type runFlags struct {
	Environment  string
	WithLabeling bool
	Actions      string
	Cleanup      string
	Month        string
}

var flags runFlags

// Cmd represents the run command
var Cmd = &cobra.Command{
	Use:   "run",
	Short: "Reconcile a month of transactions into the ledger",
	Long: `Fetch the transactions of one month, classify them into incomes, expenses and
investments and merge them into the ledger. A failure after fetching removes the
month from the ledger again.

Example:
  finance-etl run -e production -l -a all -c mail -m 03-2025`,
	RunE: runFunc,
}

func init() {
	Cmd.Flags().StringVarP(&flags.Environment, "environment", "e", "", "Environment (development, production)")
	Cmd.Flags().BoolVarP(&flags.WithLabeling, "with-labeling", "l", false, "Label new expenses and incomes with the LLM")
	Cmd.Flags().StringVarP(&flags.Actions, "actions", "a", string(pipeline.ActionAll), "Sources to ingest (all, fio, mail, none)")
	Cmd.Flags().StringVarP(&flags.Cleanup, "cleanup", "c", string(pipeline.CleanupNone), "Cleanup after the run (all, mail, sheets, none)")
	Cmd.Flags().StringVarP(&flags.Month, "month", "m", "", "Month to process as MM-YYYY (default: last month)")
}

// parseOptions validates the flags before any I/O happens.
func parseOptions(f runFlags, now time.Time) (pipeline.Options, error) {
	actions, err := pipeline.ParseAction(f.Actions)
	if err != nil {
		return pipeline.Options{}, err
	}
	cleanup, err := pipeline.ParseCleanupMode(f.Cleanup)
	if err != nil {
		return pipeline.Options{}, err
	}
	period, err := root.ResolvePeriod(f.Month, now)
	if err != nil {
		return pipeline.Options{}, err
	}
	return pipeline.Options{
		Actions:      actions,
		Cleanup:      cleanup,
		WithLabeling: f.WithLabeling,
		Period:       period,
	}, nil
}

func runFunc(cmd *cobra.Command, args []string) error {
	opts, err := parseOptions(flags, time.Now())
	if err != nil {
		return err
	}

	ctx := root.Context(cmd)
	appContainer, err := root.NewContainer(ctx, flags.Environment)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer func() { _ = appContainer.Close() }()

	logger := appContainer.GetLogger()
	logger.Info("Reconciliation started",
		logging.Field{Key: logging.FieldPeriod, Value: opts.Period.String()},
		logging.Field{Key: "actions", Value: string(opts.Actions)},
		logging.Field{Key: "cleanup", Value: string(opts.Cleanup)},
		logging.Field{Key: "with_labeling", Value: opts.WithLabeling})

	result, err := appContainer.GetPipeline().Run(ctx, opts)
	if err != nil {
		return err
	}

	if result.Summary != nil {
		logger.Info("Reconciliation completed",
			logging.Field{Key: logging.FieldRunID, Value: result.RunID},
			logging.Field{Key: "net_income", Value: result.Summary.NetIncome},
			logging.Field{Key: "status", Value: result.Summary.Status})
	}
	return nil
}
