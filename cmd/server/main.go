package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"shiptrack/internal/audit"
	"shiptrack/internal/config"
	"shiptrack/internal/diag"
	"shiptrack/internal/infrastructure/logger"
	"shiptrack/internal/orders"
	"shiptrack/internal/server"
	"shiptrack/internal/tracking"
	"shiptrack/internal/upstream"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log.Level)
	if err != nil {
		log.Fatalf("creating logger: %v", err)
	}
	defer zapLogger.Sync()

	client := upstream.NewClient(cfg.Shop, zapLogger)
	verifier := tracking.NewVerifier(zapLogger)

	locator, ordersCtrl := orders.NewModule(client, verifier, zapLogger)
	auditCtrl := audit.NewModule(locator, verifier, zapLogger)
	diagCtrl := diag.NewController(client, zapLogger)

	router := server.NewRouter(cfg.CORS, ordersCtrl, auditCtrl, diagCtrl, zapLogger)

	srv := server.New(cfg.Server.Port, router, zapLogger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil {
			zapLogger.Fatal("server error", zap.Error(err))
		}
	}()

	zapLogger.Info("order tracking proxy ready",
		zap.String("shop", cfg.Shop.Slug),
		zap.Int("port", cfg.Server.Port))

	<-quit
	zapLogger.Info("received shutdown signal")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Fatal("server shutdown failed", zap.Error(err))
	}

	zapLogger.Info("server stopped gracefully")
}
