package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/desertflora/plantrag/api"
	"github.com/desertflora/plantrag/internal/app"
	"github.com/desertflora/plantrag/internal/config"
)

// runServe initializes and starts the HTTP API server.
func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	addr, err := parseServeAddr(cfg.Addr)
	if err != nil {
		return fmt.Errorf("parsing address: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := slog.Default()
	logger.Info("starting HTTP API server", "version", Version)

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	apiServer, err := api.NewServer(api.ServerConfig{
		Logger:         logger,
		Pipeline:       a.System,
		CollectionName: cfg.CollectionName,
		EmbeddingModel: cfg.EmbeddingModel,
		DefaultTopK:    config.DefaultTopK,
		MaxTopK:        config.MaxRequestTopK,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	return apiServer.Run(ctx, addr, logger)
}
