// Package embed turns text into fixed-dimension vectors.
//
// The production implementation bridges a Genkit ai.Embedder (served by
// Ollama running a sentence-embedding model) to the small interface the
// retrieval pipeline consumes.
package embed

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"

	"github.com/desertflora/plantrag/internal/log"
)

// Embedder converts text into embedding vectors.
// Deterministic for a fixed model version. Empty input is valid and yields
// a low-information vector, not an error.
type Embedder interface {
	// Embed returns the embedding vector for one text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per input text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// GenkitEmbedder adapts a Genkit ai.Embedder to the Embedder interface.
// Safe for concurrent use; the underlying model handle is read-only after
// initialization.
type GenkitEmbedder struct {
	embedder ai.Embedder
	logger   log.Logger
}

// NewGenkit creates an Embedder backed by the given Genkit embedder.
func NewGenkit(embedder ai.Embedder, logger log.Logger) *GenkitEmbedder {
	if logger == nil {
		logger = log.NewNop()
	}
	return &GenkitEmbedder{embedder: embedder, logger: logger}
}

// Embed implements Embedder.
func (e *GenkitEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.embedder.Embed(ctx, &ai.EmbedRequest{
		Input: []*ai.Document{
			ai.DocumentFromText(text, nil),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("embed failed: %w", err)
	}

	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}

	return resp.Embeddings[0].Embedding, nil
}

// EmbedBatch implements Embedder. The response order matches the input order.
func (e *GenkitEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	input := make([]*ai.Document, len(texts))
	for i, text := range texts {
		input[i] = ai.DocumentFromText(text, nil)
	}

	resp, err := e.embedder.Embed(ctx, &ai.EmbedRequest{Input: input})
	if err != nil {
		return nil, fmt.Errorf("embed batch failed: %w", err)
	}

	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d inputs",
			len(resp.Embeddings), len(texts))
	}

	vectors := make([][]float32, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		if len(emb.Embedding) == 0 {
			return nil, fmt.Errorf("empty embedding at index %d", i)
		}
		vectors[i] = emb.Embedding
	}

	e.logger.Debug("embedded batch", "count", len(vectors), "dimension", len(vectors[0]))
	return vectors, nil
}
