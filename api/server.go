// Package api exposes the retrieval pipeline over HTTP as a small JSON API:
// question answering, retrieval-only search, collection statistics, and a
// health probe.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/desertflora/plantrag/internal/log"
	"github.com/desertflora/plantrag/internal/plants"
)

// Pipeline is the set of operations the API serves. *rag.System satisfies it.
type Pipeline interface {
	Answer(ctx context.Context, question string, topK int) (plants.AnswerResponse, error)
	SearchOnly(ctx context.Context, question string, topK int) ([]plants.RetrievalResult, error)
	Stats(ctx context.Context) (plants.CollectionStats, error)
	Healthy(ctx context.Context) bool
}

// ServerConfig contains configuration for creating the API server.
type ServerConfig struct {
	Logger         log.Logger
	Pipeline       Pipeline // Required
	CollectionName string
	EmbeddingModel string
	DefaultTopK    int
	MaxTopK        int
}

// Server is the JSON API HTTP server.
type Server struct {
	handler http.Handler
}

// NewServer creates the API server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Pipeline == nil {
		return nil, errors.New("pipeline is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	h := &handler{
		pipeline:       cfg.Pipeline,
		collectionName: cfg.CollectionName,
		embeddingModel: cfg.EmbeddingModel,
		defaultTopK:    cfg.DefaultTopK,
		maxTopK:        cfg.MaxTopK,
		logger:         logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /", h.root)
	mux.HandleFunc("GET /health", h.health)
	mux.HandleFunc("POST /query", h.query)
	mux.HandleFunc("POST /search", h.search)
	mux.HandleFunc("GET /stats", h.stats)

	// Middleware stack (outermost first): Recovery → Logging → Routes
	var hdl http.Handler = mux
	hdl = loggingMiddleware(logger)(hdl)
	hdl = recoveryMiddleware(logger)(hdl)

	return &Server{handler: hdl}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves HTTP on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string, logger log.Logger) error {
	if logger == nil {
		logger = log.NewNop()
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2 * time.Minute, // generation can be slow
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serving http: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return <-errCh
}
