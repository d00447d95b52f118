/*
main.go - Application entry point

PURPOSE:
  The rewards command line. Every subcommand reads configuration from the
  environment (and .env), opens the configured store and builds a
  rewards.Service around it.

COMMANDS:
  rewards serve                          Run the HTTP API
  rewards compute [--customer N] [--month M] [--json]
  rewards seed (--scenario S | --file F) [--append] | --list
  rewards export --out F.xlsx [--customer N] [--month M]

ENVIRONMENT:
  See config/config.go. DB_DRIVER selects sqlite (default), postgres or
  memory. Memory is only useful with serve, since nothing outlives the
  process.

EXAMPLES:
  # Load the demo data and print rewards for January
  rewards seed --scenario default
  rewards compute --month January

  # Run the API on another port against Postgres
  APP_ADDR=:3000 DB_DRIVER=postgres PG_DSN=postgres://... rewards serve

SEE ALSO:
  - serve.go: HTTP server and graceful shutdown
  - api/server.go: Router configuration
*/
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/warp/customer-rewards/config"
	"github.com/warp/customer-rewards/logging"
	"github.com/warp/customer-rewards/rewards"
	"github.com/warp/customer-rewards/store/memory"
	"github.com/warp/customer-rewards/store/postgres"
	"github.com/warp/customer-rewards/store/sqlite"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// =============================================================================
// ROOT COMMAND
// =============================================================================

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "rewards",
		Short:        "Customer rewards engine",
		Long:         "Computes reward points from purchase transactions and serves them over HTTP.",
		SilenceUsage: true,
	}
	root.AddCommand(
		newServeCmd(),
		newComputeCmd(),
		newSeedCmd(),
		newExportCmd(),
	)
	return root
}

// =============================================================================
// SHARED SETUP
// =============================================================================

// app bundles what every subcommand needs.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	store  rewards.Repository
	svc    *rewards.Service
}

// openApp loads configuration, builds the logger and opens the store.
// Logs go to the command's stderr.
func openApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	svc := rewards.NewService(rewards.Options{
		Store:       store,
		Logger:      logger,
		Workers:     cfg.AggregateWorkers,
		ParallelMin: cfg.AggregateParallelMin,
	})
	return &app{cfg: cfg, logger: logger, store: store, svc: svc}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("close store", slog.Any("error", err))
	}
}

func openStore(ctx context.Context, cfg *config.Config) (rewards.Repository, error) {
	switch cfg.DBDriver {
	case config.DriverSQLite:
		store, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.SQLitePath, err)
		}
		return store, nil
	case config.DriverPostgres:
		store, err := postgres.New(ctx, cfg.PGDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		return store, nil
	case config.DriverMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.DBDriver)
	}
}

// queryFlags are the optional filters shared by compute and export.
type queryFlags struct {
	customer int64
	month    string
}

func (f *queryFlags) register(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&f.customer, "customer", 0, "only this customer id")
	cmd.Flags().StringVar(&f.month, "month", "", "only this month of the current year (e.g. January)")
}

// query leaves unset flags out, so --customer 0 passed explicitly still
// reaches validation.
func (f *queryFlags) query(cmd *cobra.Command) rewards.Query {
	var q rewards.Query
	if cmd.Flags().Changed("customer") {
		q = q.ForCustomer(rewards.CustomerID(f.customer))
	}
	if cmd.Flags().Changed("month") {
		q = q.ForMonth(f.month)
	}
	return q
}
