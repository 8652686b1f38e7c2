// Package app wires the application together: configuration, Genkit
// (embedding and generation models), the Qdrant-backed vector store, and
// the RAG pipeline on top of them.
//
// All handles created here are initialized once at startup and shared
// read-only across concurrent requests; Close releases them on shutdown.
package app

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/genkit"

	"github.com/desertflora/plantrag/internal/config"
	"github.com/desertflora/plantrag/internal/embed"
	"github.com/desertflora/plantrag/internal/log"
	"github.com/desertflora/plantrag/internal/rag"
	"github.com/desertflora/plantrag/internal/vectorstore"
)

// App holds the initialized application components.
type App struct {
	Config   *config.Config
	Genkit   *genkit.Genkit
	Embedder embed.Embedder
	Store    *vectorstore.Store
	System   *rag.System

	logger log.Logger
}

// Setup creates and initializes the application.
// Configuration must already be validated; a missing OPENAI_API_KEY or an
// unloadable model aborts here, before the process starts serving.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (_ *App, retErr error) {
	if logger == nil {
		logger = log.NewNop()
	}
	a := &App{Config: cfg, logger: logger}

	// On error, release everything already initialized
	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	g, embedder, err := provideGenkit(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Genkit = g
	a.Embedder = embedder

	store, err := provideStore(cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Store = store

	a.System = provideSystem(cfg, g, embedder, store, logger)

	return a, nil
}

// Close releases the vector-store connection. Idempotent.
func (a *App) Close() error {
	if a.Store == nil {
		return nil
	}
	err := a.Store.Close()
	a.Store = nil
	return err
}

// provideStore connects the Qdrant-backed vector store.
// The gRPC channel connects lazily, so an unreachable store does not fail
// startup; the health endpoint reports it as degraded instead.
func provideStore(cfg *config.Config, logger log.Logger) (*vectorstore.Store, error) {
	host, err := cfg.QdrantHost()
	if err != nil {
		return nil, err
	}

	store, err := vectorstore.New(vectorstore.Config{
		Host:       host,
		Port:       cfg.QdrantGRPCPort,
		APIKey:     cfg.QdrantAPIKey,
		Collection: cfg.CollectionName,
		Dimension:  cfg.VectorDimension,
	}, logger.With("component", "vectorstore"))
	if err != nil {
		return nil, fmt.Errorf("connecting vector store: %w", err)
	}

	logger.Info("vector store client initialized",
		"host", host, "port", cfg.QdrantGRPCPort, "collection", cfg.CollectionName)
	return store, nil
}

// provideSystem assembles the retrieval pipeline from its parts.
func provideSystem(cfg *config.Config, g *genkit.Genkit, embedder embed.Embedder, store *vectorstore.Store, logger log.Logger) *rag.System {
	retriever := rag.NewRetriever(
		embedder,
		store,
		config.RetrievalCeiling,
		cfg.SearchTimeout,
		logger.With("component", "retriever"),
	)

	model := rag.NewGenkitModel(g, cfg.FullGenerationModelName(), cfg.Temperature, cfg.MaxTokens)
	generator := rag.NewGenerator(
		model,
		logger.With("component", "generator"),
		rag.WithGenerateTimeout(cfg.GenerateTimeout),
		rag.WithRateLimit(llmRate, llmBurst),
	)

	return rag.NewSystem(retriever, generator, store, cfg.GenerationModel,
		logger.With("component", "rag"))
}
