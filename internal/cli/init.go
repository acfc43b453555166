// Package cli holds the start-up steps shared by the spendlog binaries.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"spendlog/internal/advisor"
	"spendlog/internal/amqp"
	"spendlog/internal/config"
	"spendlog/internal/log"
	"spendlog/internal/services"
	"spendlog/internal/storage"
)

// SetupLogger initializes structured logging at the given level and sets it
// as the default logger.
func SetupLogger(level string) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Level = log.ParseLevel(level)
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
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// InitSQLite initializes a SQLite repository with the given path.
// Returns the repository or exits the process on failure.
func InitSQLite(ctx context.Context, logger *log.Logger, dbPath string) *storage.SQLiteRepository {
	sqliteRepo, err := storage.NewSQLiteRepository(ctx, dbPath, logger)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", log.FieldError, err, "path", dbPath)
		os.Exit(1)
	}
	return sqliteRepo
}

// InitPublisher connects the expense event publisher. It returns nil when
// events are disabled or the broker is unreachable; the server runs without
// events in both cases.
func InitPublisher(logger *log.Logger, cfg *config.Config) services.EventPublisher {
	if !cfg.EventsEnabled() {
		logger.WithComponent(log.ComponentAMQP).Info("AMQP_URL not set, expense events disabled")
		return nil
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey)
	if err != nil {
		logger.WithComponent(log.ComponentAMQP).Warn("AMQP unavailable, expense events disabled",
			log.FieldError, err)
		return nil
	}

	logger.WithComponent(log.ComponentAMQP).Info("AMQP publisher connected",
		"exchange", cfg.AMQPExchange,
		"routing_key", cfg.AMQPRoutingKey)
	return client
}

// InitAdvisorModel builds the chat model. Without an API key, or if the
// client cannot be built, it returns nil and chat replies carry an error
// while every expense endpoint keeps working.
func InitAdvisorModel(ctx context.Context, logger *log.Logger, cfg *config.Config) advisor.Model {
	if !cfg.ChatEnabled() {
		logger.WithComponent(log.ComponentAdvisor).Warn("GEMINI_API_KEY not set, chat advisor disabled")
		return nil
	}

	model, err := advisor.NewGemini(ctx, advisor.GeminiConfig{
		APIKey:   cfg.GeminiAPIKey,
		Model:    cfg.GeminiModel,
		Endpoint: cfg.GeminiEndpoint,
	}, logger)
	if err != nil {
		logger.WithComponent(log.ComponentAdvisor).Error("Failed to create chat model, chat advisor disabled",
			log.FieldError, err)
		return nil
	}

	logger.WithComponent(log.ComponentAdvisor).Info("Chat advisor ready",
		log.FieldModel, model.Model())
	return model
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM. Once it
// fires, cleanup runs with a context bounded by timeout and done is closed
// when cleanup returns.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(ctx context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		signal.Stop(sigChan)
		logger.Info("Shutdown signal received", "signal", sig.String(), log.FieldOperation, log.OpShutdown)

		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		if cleanup != nil {
			cleanup(shutdownCtx)
		}

		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
		} else {
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup finished.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
