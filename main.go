package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"fjacquet/finance-etl/cmd/cleanup"
	"fjacquet/finance-etl/cmd/root"
	"fjacquet/finance-etl/cmd/run"
	"fjacquet/finance-etl/internal/config"
	"fjacquet/finance-etl/internal/logging"

	"github.com/sirupsen/logrus"
)

func init() {
	// 1. Load environment variables silently first (no logging yet)
	envErr := loadEnvSilently()

	// 2. Honour LOG_LEVEL until the configuration is loaded
	root.Log = logging.NewLogrusAdapter(logLevelFromEnv(), "text")
	if envErr != nil {
		root.Log.WithError(envErr).Warn("Ignoring unreadable .env file")
	}

	// 3. Initialize root command
	root.Init()

	// 4. Add all subcommands
	root.Cmd.AddCommand(run.Cmd)
	root.Cmd.AddCommand(cleanup.Cmd)
}

// loadEnvSilently loads environment variables without logging anything
func loadEnvSilently() error {
	_, err := config.LoadEnv()
	return err
}

// logLevelFromEnv returns LOG_LEVEL when it names a valid level, info otherwise
func logLevelFromEnv() string {
	level := strings.ToLower(os.Getenv("LOG_LEVEL"))
	if _, err := logrus.ParseLevel(level); err != nil {
		return "info"
	}
	return level
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := root.Cmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
