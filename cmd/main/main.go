package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"shopee/catalog/internal/config"
	"shopee/catalog/internal/container"
	"shopee/catalog/internal/logging"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var errRunFailed = errors.New("extraction failed")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCmd(viper.New(), run).ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, errRunFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func newRootCmd(v *viper.Viper, runFn func(ctx context.Context, cfg *config.Config) error) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "shopee-categories",
		Short:         "Extracts the Shopee global category tree to CSV, XLSX and Postgres.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if noDB, _ := cmd.Flags().GetBool("no-db"); noDB {
				v.Set("database.enabled", false)
			}

			cfg, err := config.LoadWith(v, configPath)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			return runFn(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "path to a YAML config file (default ./config.yaml when present)")
	flags.String("csv", "", "CSV output path, empty string disables")
	flags.String("xlsx", "", "XLSX output path, empty string disables")
	flags.String("table", "", "Postgres table name")
	flags.String("if-exists", "", "what to do when the table exists: replace, append or fail")
	flags.Bool("no-db", false, "skip the Postgres sink")
	flags.String("log-level", "", "log level: debug, info, warn, error")

	bindings := map[string]string{
		"output.csv_path":    "csv",
		"output.xlsx_path":   "xlsx",
		"database.table":     "table",
		"database.if_exists": "if-exists",
		"log.level":          "log-level",
	}
	for key, name := range bindings {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", name, err))
		}
	}

	return cmd
}

func run(ctx context.Context, cfg *config.Config) error {
	logger, closer, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer closer.Close()

	logger.Info("🚀 Starting Shopee category extraction...")

	app, err := container.New(ctx, cfg, logger)
	if err != nil {
		logger.Errorf("❌ Failed to initialize: %v", err)
		return errRunFailed
	}
	defer app.Close()

	if !app.Run(ctx) {
		return errRunFailed
	}

	return nil
}
