package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bakery-storefront/internal/config"
	"bakery-storefront/internal/db"
	"bakery-storefront/internal/domain"
	"bakery-storefront/internal/events"
	"bakery-storefront/internal/httpserver"
	"bakery-storefront/internal/logging"
	"bakery-storefront/internal/metrics"
	"bakery-storefront/internal/migrate"
	addressrepo "bakery-storefront/internal/repository/address"
	cartrepo "bakery-storefront/internal/repository/cart"
	orderrepo "bakery-storefront/internal/repository/order"
	outboxrepo "bakery-storefront/internal/repository/outbox"
	productrepo "bakery-storefront/internal/repository/product"
	tokenrepo "bakery-storefront/internal/repository/token"
	userrepo "bakery-storefront/internal/repository/user"
	addresssvc "bakery-storefront/internal/service/address"
	authsvc "bakery-storefront/internal/service/auth"
	cartsvc "bakery-storefront/internal/service/cart"
	ordersvc "bakery-storefront/internal/service/order"
	productsvc "bakery-storefront/internal/service/product"
	"bakery-storefront/internal/settings"

	"go.uber.org/zap"
)

const tokenPurgeInterval = time.Hour

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "api: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		return fmt.Errorf("connect to db: %w", err)
	}
	defer dbpool.Close()

	if err := migrate.Apply(ctx, dbpool); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	pricing, err := settings.New(cfg.Pricing(), cfg.PricingFile, logger)
	if err != nil {
		return fmt.Errorf("load pricing: %w", err)
	}
	m := metrics.New()

	publisher, err := events.NewPublisher(events.Settings{
		Driver:       cfg.EventsDriver,
		KafkaBrokers: cfg.KafkaBrokers,
		KafkaTopic:   cfg.KafkaTopic,
		NATSURL:      cfg.NATSURL,
		NATSSubject:  cfg.NATSSubject,
	}, logger)
	if err != nil {
		return fmt.Errorf("init event publisher: %w", err)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("close publisher", zap.Error(err))
		}
	}()

	userRepo := userrepo.NewPostgres(dbpool, logger)
	tokenRepo := tokenrepo.NewPostgres(dbpool, logger)
	productRepo := productrepo.NewPostgres(dbpool, logger)

	authService := authsvc.New(userRepo, tokenRepo, cfg.JWTSecret, cfg.JWTTTL, logger)
	productService := productsvc.New(productRepo)
	cartService := cartsvc.New(cartrepo.NewPostgres(dbpool, logger), productRepo, logger)
	addressService := addresssvc.New(addressrepo.NewPostgres(dbpool, logger), logger)
	orderService := ordersvc.New(orderrepo.NewPostgres(dbpool, logger),
		ordersvc.WithStatusMode(domain.ParseStatusMode(cfg.OrderStatusMode)),
		ordersvc.WithPricing(pricing),
		ordersvc.WithMetrics(m),
		ordersvc.WithLogger(logger),
	)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		AuthSvc:     authService,
		ProductSvc:  productService,
		CartSvc:     cartService,
		AddressSvc:  addressService,
		OrderSvc:    orderService,
		Pricing:     pricing,
		Metrics:     m,
		CORSOrigins: cfg.CORSOrigins,
	})
	if err != nil {
		return fmt.Errorf("init server: %w", err)
	}

	relay := events.NewRelay(outboxrepo.NewPostgres(dbpool, logger), publisher, cfg.OutboxInterval, m, logger)
	go relay.Run(ctx)
	go func() {
		if err := pricing.Watch(ctx); err != nil {
			logger.Warn("pricing watcher stopped", zap.Error(err))
		}
	}()
	go purgeRevokedTokens(ctx, tokenRepo, logger)

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
		return err
	}
	logger.Info("server stopped")
	return nil
}

func purgeRevokedTokens(ctx context.Context, repo tokenrepo.Repository, logger *zap.Logger) {
	ticker := time.NewTicker(tokenPurgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := repo.PurgeExpired(ctx, time.Now())
			if err != nil {
				logger.Warn("purge revoked tokens", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Debug("purged revoked tokens", zap.Int64("count", n))
			}
		}
	}
}
