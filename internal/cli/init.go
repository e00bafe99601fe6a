// Package cli provides common CLI initialization utilities shared by the
// jbudget commands.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"jbudget/internal/amqp"
	"jbudget/internal/backend"
	"jbudget/internal/config"
	"jbudget/internal/log"
	"jbudget/internal/services"
)

// SetupLogger initializes structured logging on stderr, so command output
// on stdout stays clean. An unknown level falls back to info.
// Returns the configured logger and sets it as the default logger.
func SetupLogger(level string) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Component = log.ComponentCLI
	cfg.Output = os.Stderr
	if lvl, err := log.ParseLevel(level); err == nil {
		cfg.Level = lvl
	}
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
func LoadAndValidateConfig(logger *log.Logger) (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed",
			log.FieldError, err.Error(),
			log.FieldErrorType, log.ErrorTypeConfiguration)
		return nil, err
	}
	return cfg, nil
}

// OpenStore builds the store selected by cfg.
func OpenStore(ctx context.Context, logger *log.Logger, cfg backend.Config) (*backend.BackendResult, error) {
	result, err := backend.NewFactory(logger).CreateBackend(ctx, cfg)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to open store",
			log.FieldBackend, cfg.Type.String(),
			log.FieldError, err.Error(),
			log.FieldErrorType, log.ErrorTypePersistence)
		return nil, err
	}
	return result, nil
}

// NewAMQPClient connects to the broker described by cfg.
func NewAMQPClient(ctx context.Context, logger *log.Logger, cfg *config.Config) (*amqp.Client, error) {
	attempts := uint64(1)
	if cfg.AMQPConnectRetries > 1 {
		attempts = uint64(cfg.AMQPConnectRetries)
	}
	return amqp.NewClient(ctx, amqp.Config{
		URL:        cfg.AMQPURL,
		Exchange:   cfg.AMQPExchange,
		RoutingKey: cfg.AMQPRoutingKey,
		Queue:      cfg.AMQPQueue,
		Attempts:   attempts,
	}, logger)
}

// NewNotifier returns the change-event publisher, or nil when AMQP is not
// configured or unreachable. Events are optional, so a failed connection
// is logged and the command continues without them.
func NewNotifier(ctx context.Context, logger *log.Logger, cfg *config.Config) (services.Notifier, backend.CleanupFunc) {
	if !cfg.AMQPEnabled() {
		return nil, nil
	}
	client, err := NewAMQPClient(ctx, logger, cfg)
	if err != nil {
		logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without events",
			log.FieldError, err.Error(),
			log.FieldErrorType, log.ErrorTypeNetwork)
		return nil, nil
	}
	logger.InfoContext(ctx, "Initialized AMQP client",
		"exchange", cfg.AMQPExchange,
		"routing_key", cfg.AMQPRoutingKey)
	return client, client.Close
}

// Session bundles an open ledger with the resources behind it.
type Session struct {
	Ledger  *services.Ledger
	Config  *config.Config
	Backend backend.Config
	cleanup []backend.CleanupFunc
}

// OpenSession loads the configuration, opens the store and notifier and
// builds the ledger over them.
func OpenSession(ctx context.Context, logger *log.Logger) (*Session, error) {
	cfg, err := LoadAndValidateConfig(logger)
	if err != nil {
		return nil, err
	}
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	result, err := OpenStore(ctx, logger, bcfg)
	if err != nil {
		return nil, err
	}
	s := &Session{Config: cfg, Backend: bcfg, cleanup: []backend.CleanupFunc{result.Close}}

	notifier, closeNotifier := NewNotifier(ctx, logger, cfg)
	if closeNotifier != nil {
		s.cleanup = append(s.cleanup, closeNotifier)
	}

	ledger, err := services.NewLedger(ctx, result.Store, notifier, logger)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	s.Ledger = ledger
	return s, nil
}

// Close releases the session resources in reverse order.
func (s *Session) Close() error {
	var first error
	for i := len(s.cleanup) - 1; i >= 0; i-- {
		if err := s.cleanup[i](); err != nil && first == nil {
			first = err
		}
	}
	s.cleanup = nil
	return first
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func()) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		if cleanup != nil {
			cleanup()
		}

		cancel()

		select {
		case <-shutdownCtx.Done():
			logger.Warn("Shutdown timeout reached")
		case <-time.After(100 * time.Millisecond):
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}
