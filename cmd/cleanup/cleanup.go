// Package cleanup implements the command that resets a month without
// running a reconciliation
package cleanup

import (
	"fmt"
	"time"

	"fjacquet/finance-etl/cmd/root"
	"fjacquet/finance-etl/internal/dateutils"
	"fjacquet/finance-etl/internal/pipeline"

	"github.com/spf13/cobra"
)

type cleanupFlags struct {
	Environment string
	Cleanup     string
	Month       string
}

var flags cleanupFlags

// Cmd represents the cleanup command
var Cmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove a month from the ledger or move its statement back to the inbox",
	Long: `Reset one month so that it can be reconciled again.

  sheets  removes the month's rows from every ledger category
  mail    moves the month's processed statement back to the inbox
  all     does both

Example:
  finance-etl cleanup -e development -c all -m 03-2025`,
	RunE: cleanupFunc,
}

func init() {
	Cmd.Flags().StringVarP(&flags.Environment, "environment", "e", "", "Environment (development, production)")
	Cmd.Flags().StringVarP(&flags.Cleanup, "cleanup", "c", string(pipeline.CleanupAll), "What to reset (all, mail, sheets)")
	Cmd.Flags().StringVarP(&flags.Month, "month", "m", "", "Month to reset as MM-YYYY (default: last month)")
}

func parseFlags(f cleanupFlags, now time.Time) (pipeline.CleanupMode, dateutils.Period, error) {
	mode, err := pipeline.ParseCleanupMode(f.Cleanup)
	if err != nil {
		return "", dateutils.Period{}, err
	}
	if mode == pipeline.CleanupNone {
		return "", dateutils.Period{}, fmt.Errorf("cleanup mode none has nothing to do")
	}
	period, err := root.ResolvePeriod(f.Month, now)
	if err != nil {
		return "", dateutils.Period{}, err
	}
	return mode, period, nil
}

func cleanupFunc(cmd *cobra.Command, args []string) error {
	mode, period, err := parseFlags(flags, time.Now())
	if err != nil {
		return err
	}

	ctx := root.Context(cmd)
	appContainer, err := root.NewContainer(ctx, flags.Environment)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer func() { _ = appContainer.Close() }()

	if err := appContainer.GetPipeline().Cleanup(ctx, mode, period); err != nil {
		return err
	}
	appContainer.GetLogger().Info(fmt.Sprintf("Cleanup %s completed for %s", mode, period))
	return nil
}
