package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"financas/internal/auth"
	"financas/internal/backend"
	"financas/internal/cli"
	apphttp "financas/internal/http"
	"financas/internal/log"
	"financas/internal/services"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentApp)

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	be, err := backend.NewFactory(logger).CreateBackend(context.Background(), bcfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	deps := apphttp.Deps{
		Auth:       auth.NewService(be.Store, auth.Config{SessionTTL: cfg.SessionTTL}, logger),
		Budgets:    services.NewBudgetService(be.Store, be.Publisher, logger),
		FixedCosts: services.NewFixedCostService(be.Store, logger),
		Goals:      services.NewGoalService(be.Store, logger),
		Ledger:     services.NewLedgerService(be.Store, logger),
	}
	if p, ok := be.Store.(apphttp.Pinger); ok {
		deps.Ready = p
	}

	srv := apphttp.NewServer(":"+cfg.Port, deps, apphttp.Options{RateLimitPerMinute: cfg.RateLimitPerMinute}, logger)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	_, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if err := be.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	logger.Info("Starting financas server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"amqp_enabled", be.Publisher != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-done
	logger.Info("Server stopped gracefully")
}
