package main

import (
	"fmt"

	"bakery-storefront/internal/migrate"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func migrateCmd(e *env) *cobra.Command {
	var createDB bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if createDB {
				if err := migrate.EnsureDatabase(ctx, e.cfg.DBConnString); err != nil {
					return fmt.Errorf("ensure database: %w", err)
				}
			}
			pool, err := e.connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := migrate.Apply(ctx, pool); err != nil {
				return fmt.Errorf("apply migrations: %w", err)
			}
			e.logger.Info("migrations applied")
			return nil
		},
	}
	cmd.Flags().BoolVar(&createDB, "create-db", false, "Create the target database when it does not exist")

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := migrate.Rollback(cmd.Context(), e.cfg.DBConnString, steps); err != nil {
				return fmt.Errorf("rollback: %w", err)
			}
			e.logger.Info("migrations rolled back", zap.Int("steps", steps))
			return nil
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "Number of migrations to roll back (0 rolls back all)")

	version := &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, dirty, err := migrate.Version(cmd.Context(), e.cfg.DBConnString)
			if err != nil {
				return fmt.Errorf("read version: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", v, dirty)
			return nil
		},
	}

	cmd.AddCommand(down, version)
	return cmd
}
