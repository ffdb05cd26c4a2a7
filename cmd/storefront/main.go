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

	"go.uber.org/zap"

	"github.com/Shashankesi/Threadly/internal/cart"
	"github.com/Shashankesi/Threadly/internal/catalog"
	"github.com/Shashankesi/Threadly/internal/checkout"
	"github.com/Shashankesi/Threadly/internal/config"
	"github.com/Shashankesi/Threadly/internal/db"
	"github.com/Shashankesi/Threadly/internal/events"
	httpapi "github.com/Shashankesi/Threadly/internal/http"
	"github.com/Shashankesi/Threadly/internal/session"
	"github.com/Shashankesi/Threadly/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("storefront stopped", zap.Error(err))
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = lvl
	return zcfg.Build(zap.Fields(zap.String("service", "storefront")))
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kv, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	coupons := checkout.DefaultCoupons()
	if cfg.CouponsFile != "" {
		if coupons, err = checkout.LoadCoupons(cfg.CouponsFile); err != nil {
			return err
		}
		logger.Info("coupons loaded", zap.String("file", cfg.CouponsFile), zap.Int("count", len(coupons)))
	}

	publisher, closePublisher, err := openPublisher(cfg, logger)
	if err != nil {
		return err
	}
	defer closePublisher()

	carts := cart.NewStore(kv, logger)
	carts.Subscribe(func(count int) {
		logger.Debug("cart changed", zap.Int("items", count))
	})

	handler := httpapi.NewHandler(httpapi.Deps{
		Cart:    carts,
		Session: session.New(kv, logger),
		Catalog: catalog.Default(),
		Logger:  logger,
		WizardOptions: []checkout.Option{
			checkout.WithCoupons(coupons),
			checkout.WithPublisher(publisher),
			checkout.WithLogger(logger),
		},
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(handler, cfg.CORSAllowOrigins),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.HTTPAddr), zap.String("store", cfg.StoreBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown error", zap.Error(err))
	}
	logger.Info("shutdown complete")
	return nil
}

func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (store.KV, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		return store.NewMemory(), func() {}, nil
	case config.BackendPostgres:
		if cfg.RunMigrations {
			if err := db.RunMigrations(cfg.DatabaseDSN, logger); err != nil {
				return nil, nil, fmt.Errorf("run migrations: %w", err)
			}
		}
		pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open database: %w", err)
		}
		return store.NewPostgres(pool), pool.Close, nil
	default:
		logger.Info("using file store", zap.String("path", cfg.StoreFile))
		return store.NewFile(cfg.StoreFile, logger), func() {}, nil
	}
}

func openPublisher(cfg config.Config, logger *zap.Logger) (checkout.OrderPublisher, func(), error) {
	if cfg.RabbitMQURL == "" {
		logger.Info("RABBITMQ_URL not set, order events are logged only")
		return events.NewLogPublisher(cfg.EventProducer, logger), func() {}, nil
	}

	conn, err := events.Dial(cfg.RabbitMQURL)
	if err != nil {
		return nil, nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	pub, err := events.NewPublisher(conn, cfg.EventProducer, logger)
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("create publisher: %w", err)
	}
	return pub, func() {
		if err := pub.Close(); err != nil {
			logger.Warn("publisher close error", zap.Error(err))
		}
		if err := conn.Close(); err != nil {
			logger.Warn("rabbitmq close error", zap.Error(err))
		}
	}, nil
}
