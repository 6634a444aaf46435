package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/net/http2"

	"github.com/mmynk/pms/internal/api"
	"github.com/mmynk/pms/internal/auth"
	"github.com/mmynk/pms/internal/config"
	"github.com/mmynk/pms/internal/events"
	"github.com/mmynk/pms/internal/metrics"
	"github.com/mmynk/pms/internal/service"
	"github.com/mmynk/pms/internal/storage/mysql"
	"github.com/mmynk/pms/internal/storage/sqlite"
	"github.com/mmynk/pms/internal/storage/sqlstore"
	"github.com/mmynk/pms/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.SetupWithOptions(cfg.LogFormat, logging.ParseLevel(cfg.LogLevel))

	if err := run(cfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	m := metrics.New()
	store.OnRetry(m.TxRetried)

	publisher, closePublisher := newPublisher(cfg)
	defer closePublisher()

	svc := service.New(store,
		service.WithLocation(cfg.PropertyTZ),
		service.WithPublisher(publisher),
		service.WithMetrics(m),
	)
	authn := auth.NewPasswordAuthenticator(store, cfg.BcryptCost)
	tokens := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)

	e := api.NewRouter(api.New(svc, authn, tokens).Handler(), m.Handler(), store.DB())

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "address", cfg.Addr(), "env", cfg.Env, "db_driver", cfg.DBDriver)
		errCh <- e.StartH2CServer(cfg.Addr(), &http2.Server{})
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func openStore(cfg config.Config) (*sqlstore.Store, error) {
	switch cfg.DBDriver {
	case "mysql":
		store, err := mysql.New(mysql.Config{
			User:     cfg.DBUser,
			Password: cfg.DBPass,
			Host:     cfg.DBHost,
			Port:     cfg.DBPort,
			Name:     cfg.DBName,
		})
		if err != nil {
			return nil, err
		}
		slog.Info("Storage initialized", "driver", "mysql", "host", cfg.DBHost, "database", cfg.DBName)
		return store, nil
	default:
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		store, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		slog.Info("Storage initialized", "driver", "sqlite", "database", cfg.DBPath)
		return store, nil
	}
}

// newPublisher connects to RabbitMQ when AMQP_URL is set. Without a broker,
// or when it is unreachable at startup, events are only logged.
func newPublisher(cfg config.Config) (events.Publisher, func()) {
	if cfg.AMQPURL == "" {
		return events.LogPublisher{}, func() {}
	}
	p, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		slog.Warn("Event broker unavailable, logging events instead", "error", err)
		return events.LogPublisher{}, func() {}
	}
	slog.Info("Publishing events", "exchange", cfg.AMQPExchange)
	return p, func() {
		if err := p.Close(); err != nil {
			slog.Warn("Failed to close event publisher", "error", err)
		}
	}
}
