package rag

import (
	"context"
	"fmt"
	"time"

	"github.com/desertflora/plantrag/internal/config"
	"github.com/desertflora/plantrag/internal/embed"
	"github.com/desertflora/plantrag/internal/log"
	"github.com/desertflora/plantrag/internal/plants"
)

// Searcher is the slice of the vector store the retriever consumes.
// Defined here, by the consumer, so tests can substitute a mock.
type Searcher interface {
	Search(ctx context.Context, vector []float32, topK int) ([]plants.RetrievalResult, error)
}

// Retriever embeds a question and fetches the most similar documents.
type Retriever struct {
	embedder embed.Embedder
	searcher Searcher
	ceiling  int
	timeout  time.Duration
	logger   log.Logger
}

// NewRetriever creates a Retriever. A non-positive ceiling falls back to
// config.RetrievalCeiling; a zero timeout disables the search deadline.
func NewRetriever(embedder embed.Embedder, searcher Searcher, ceiling int, timeout time.Duration, logger log.Logger) *Retriever {
	if ceiling < 1 {
		ceiling = config.RetrievalCeiling
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Retriever{
		embedder: embedder,
		searcher: searcher,
		ceiling:  ceiling,
		timeout:  timeout,
		logger:   logger,
	}
}

// Retrieve returns at most topK documents ordered by descending similarity.
// topK must be positive; values above the ceiling are clamped rather than
// rejected, to bound response size and latency. An empty collection yields
// an empty result list, not an error.
func (r *Retriever) Retrieve(ctx context.Context, question string, topK int) ([]plants.RetrievalResult, error) {
	if topK < 1 {
		return nil, fmt.Errorf("%w: must be positive, got %d", config.ErrInvalidTopK, topK)
	}
	if topK > r.ceiling {
		r.logger.Debug("clamping top_k", "requested", topK, "ceiling", r.ceiling)
		topK = r.ceiling
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	vector, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embedding question: %w", err)
	}

	results, err := r.searcher.Search(ctx, vector, topK)
	if err != nil {
		return nil, fmt.Errorf("searching documents: %w", err)
	}

	r.logger.Debug("retrieved documents", "question_length", len(question),
		"top_k", topK, "hits", len(results))
	return results, nil
}
