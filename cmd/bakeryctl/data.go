package main

import (
	"fmt"
	"os"
	"time"

	"bakery-storefront/internal/importer"
	productrepo "bakery-storefront/internal/repository/product"
	tokenrepo "bakery-storefront/internal/repository/token"
	userrepo "bakery-storefront/internal/repository/user"
	"bakery-storefront/internal/seed"
	authsvc "bakery-storefront/internal/service/auth"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (e *env) authService(pool *pgxpool.Pool) *authsvc.Service {
	return authsvc.New(userrepo.NewPostgres(pool, e.logger), tokenrepo.NewPostgres(pool, e.logger), e.cfg.JWTSecret, e.cfg.JWTTTL, e.logger)
}

func seedCmd(e *env) *cobra.Command {
	var admin seed.Admin
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the demo bakery catalog and an optional admin account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			pool, err := e.connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			return seed.Apply(ctx, productrepo.NewPostgres(pool, e.logger), e.authService(pool), admin, e.logger)
		},
	}
	cmd.Flags().StringVar(&admin.Name, "admin-name", "Bakery Admin", "Admin display name")
	cmd.Flags().StringVar(&admin.Email, "admin-email", "", "Admin email; no admin is created when empty")
	cmd.Flags().StringVar(&admin.Password, "admin-password", "", "Admin password")
	return cmd
}

func importCmd(e *env) *cobra.Command {
	var filePath string
	cmd := &cobra.Command{
		Use:   "import-products",
		Short: "Upsert products from a catalog CSV",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			f, err := os.Open(filePath)
			if err != nil {
				return fmt.Errorf("open file: %w", err)
			}
			defer f.Close()

			pool, err := e.connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			start := time.Now()
			count, err := importer.NewCSVImporter(f, productrepo.NewPostgres(pool, e.logger), e.logger).Run(ctx)
			if err != nil {
				return fmt.Errorf("import failed after %d products: %w", count, err)
			}
			e.logger.Info("catalog imported",
				zap.Int("products", count),
				zap.Duration("took", time.Since(start).Truncate(time.Millisecond)),
			)
			return nil
		},
	}
	cmd.Flags().StringVarP(&filePath, "file", "f", "", "Path to the catalog CSV")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func createAdminCmd(e *env) *cobra.Command {
	var in authsvc.RegisterInput
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create a back-office admin account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			pool, err := e.connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			u, err := e.authService(pool).CreateAdmin(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin %s created (%s)\n", u.Email, u.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "Display name")
	cmd.Flags().StringVar(&in.Email, "email", "", "Login email")
	cmd.Flags().StringVar(&in.Password, "password", "", "Password (min 8 chars, letters and digits)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
