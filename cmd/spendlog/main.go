package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"time"

	"spendlog/internal/advisor"
	"spendlog/internal/cli"
	apphttp "spendlog/internal/http"
	"spendlog/internal/log"
	"spendlog/internal/services"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	repo := cli.InitSQLite(startupCtx, logger, cfg.SQLiteDBPath)
	publisher := cli.InitPublisher(logger, cfg)
	model := cli.InitAdvisorModel(startupCtx, logger, cfg)
	cancelStartup()

	svc := services.NewExpenseService(repo, publisher, logger)
	session := advisor.NewSession(model, logger)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Config{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	}, svc, session, logger)

	srv.ReadTimeout = 15 * time.Second
	// chat replies wait on the model, so writes get more room than reads
	srv.WriteTimeout = 90 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if err := svc.Close(); err != nil {
			logger.Error("Failed to close expense service", log.FieldError, err)
		}
		if closer, ok := model.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				logger.Error("Failed to close chat model", log.FieldError, err)
			}
		}
	})

	go func() {
		logger.Info("Starting spendlog server",
			"port", cfg.Port,
			"db_path", cfg.SQLiteDBPath,
			"chat_enabled", model != nil,
			"events_enabled", publisher != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
			os.Exit(1)
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
