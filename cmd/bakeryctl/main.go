// Command bakeryctl runs storefront maintenance tasks: schema migrations,
// demo data, catalog imports and admin accounts.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"bakery-storefront/internal/config"
	"bakery-storefront/internal/db"
	"bakery-storefront/internal/logging"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// env is the shared runtime built once per invocation.
type env struct {
	cfg    config.Config
	logger *zap.Logger
}

func rootCmd() *cobra.Command {
	e := &env{}
	var logLevel string

	cmd := &cobra.Command{
		Use:           "bakeryctl",
		Short:         "Bakery storefront maintenance tool",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			logger, err := logging.New(cfg.LogLevel)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			e.cfg = cfg
			e.logger = logger
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if e.logger != nil {
				_ = e.logger.Sync()
			}
		},
	}
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		migrateCmd(e),
		seedCmd(e),
		importCmd(e),
		createAdminCmd(e),
	)
	return cmd
}

func (e *env) connect(ctx context.Context) (*pgxpool.Pool, error) {
	pool, err := db.Connect(ctx, e.cfg.DBConnString)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	return pool, nil
}
