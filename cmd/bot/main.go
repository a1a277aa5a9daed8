package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"teachme/internal/backend"
	"teachme/internal/config"
	"teachme/internal/handler"
	"teachme/internal/messenger"
	"teachme/internal/service"
	"teachme/internal/session"
	"teachme/internal/webhook"

	"go.uber.org/zap"
)

func main() {
	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting TeachMe bot")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	logger.Info("Configuration loaded successfully",
		zap.Int("level_up_interval", cfg.LevelUpInterval),
	)

	// Initialize collaborators
	backendClient := backend.NewClient(cfg.BackendEndpoint, logger)
	sender := messenger.NewClient(cfg.PageAccessToken, logger)

	// Initialize core
	store := session.NewStore(cfg.LevelUpInterval)
	engine := service.NewReviewEngine(store, backendClient, backendClient, sender, cfg.ServerURL, logger)
	router := handler.NewRouter(store, engine, sender, logger)

	// Initialize webhook gateway
	srv := webhook.NewServer(cfg.AppSecret, cfg.ValidationToken, cfg.AssetsDir, router, logger)

	httpServer := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.Addr()))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan

	logger.Info("Shutdown signal received, stopping server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}
