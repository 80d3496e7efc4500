package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/CameronXie/order-management/internal/api/rest"
	"github.com/CameronXie/order-management/internal/api/rest/handlers"
	"github.com/CameronXie/order-management/internal/api/rest/middlewares"
	"github.com/CameronXie/order-management/internal/config"
	"github.com/CameronXie/order-management/internal/coordinator"
	"github.com/CameronXie/order-management/internal/metrics"
	"github.com/CameronXie/order-management/internal/repository/sqlstore"
	"github.com/CameronXie/order-management/internal/version"
)

const (
	ReadHeaderTimeout = 5 * time.Second
	ReadTimeout       = 10 * time.Second
	WriteTimeout      = 20 * time.Second
	IdleTimeout       = 60 * time.Second

	dbConnectTimeout = 10 * time.Second
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger.Info("api_starting", "version", version.Version)

	if err := run(logger); err != nil {
		logger.Error("api_exited", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load_config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := initializeDatabase(ctx, logger, cfg)
	if err != nil {
		logger.Error("db_init_failed", "driver", cfg.Dialect.Name, "error", err)
		return err
	}
	defer store.Close()

	registry := metrics.NewRegistry()
	orders := coordinator.New(
		store,
		coordinator.WithLogger(logger),
		coordinator.WithRecorder(registry),
	)

	handler := rest.NewMuxWithHandlers(&rest.RouterConfig{
		HealthHandler:  handlers.NewHealthHandler(store, logger),
		MetricsHandler: registry.Handler(),
		OrderHandler:   handlers.NewOrderHandler(orders, logger),
		ProductHandler: handlers.NewProductHandler(store, logger),
		ClientHandler:  handlers.NewClientHandler(store, logger),
		Middlewares: []middlewares.Middleware{
			middlewares.NewTimeoutMiddleware(cfg.RequestTimeout),
			middlewares.NewAccessLogMiddleware(registry, logger),
		},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("api_listening", "addr", server.Addr, "driver", cfg.Dialect.Name)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("api_shutting_down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// initializeDatabase opens the store, verifies connectivity and optionally migrates the schema.
func initializeDatabase(ctx context.Context, logger *slog.Logger, cfg *config.Config) (*sqlstore.Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, dbConnectTimeout)
	defer cancel()

	store, err := sqlstore.Open(connectCtx, cfg.Dialect, cfg.DSN)
	if err != nil {
		return nil, err
	}

	if cfg.Migrate {
		if err := store.Migrate(connectCtx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		logger.Info("db_migrated", "driver", cfg.Dialect.Name)
	}

	return store, nil
}
