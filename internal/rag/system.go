package rag

import (
	"context"
	"fmt"
	"time"

	"github.com/desertflora/plantrag/internal/log"
	"github.com/desertflora/plantrag/internal/plants"
)

// DocumentRetriever produces ranked documents for a question.
type DocumentRetriever interface {
	Retrieve(ctx context.Context, question string, topK int) ([]plants.RetrievalResult, error)
}

// AnswerGenerator composes an answer from a question and its context.
type AnswerGenerator interface {
	Generate(ctx context.Context, question string, docs []plants.RetrievalResult) (string, error)
}

// StatsProvider reports collection state for the stats and health paths.
type StatsProvider interface {
	Stats(ctx context.Context) (plants.CollectionStats, error)
	Healthy(ctx context.Context) bool
}

// System composes the retriever and the generator into the public pipeline
// operations. It holds no mutable state; concurrent calls are independent.
type System struct {
	retriever DocumentRetriever
	generator AnswerGenerator
	stats     StatsProvider
	modelID   string
	logger    log.Logger
}

// NewSystem creates the orchestrator. modelID is recorded on every answer
// so responses identify which generation model produced them.
func NewSystem(retriever DocumentRetriever, generator AnswerGenerator, stats StatsProvider, modelID string, logger log.Logger) *System {
	if logger == nil {
		logger = log.NewNop()
	}
	return &System{
		retriever: retriever,
		generator: generator,
		stats:     stats,
		modelID:   modelID,
		logger:    logger,
	}
}

// Answer runs the full pipeline: retrieve, generate, assemble.
func (s *System) Answer(ctx context.Context, question string, topK int) (plants.AnswerResponse, error) {
	start := time.Now()

	docs, err := s.retriever.Retrieve(ctx, question, topK)
	if err != nil {
		return plants.AnswerResponse{}, fmt.Errorf("retrieving context: %w", err)
	}

	answer, err := s.generator.Generate(ctx, question, docs)
	if err != nil {
		return plants.AnswerResponse{}, fmt.Errorf("generating answer: %w", err)
	}

	s.logger.Info("answered question",
		"documents", len(docs),
		"elapsed", time.Since(start),
	)

	return plants.AnswerResponse{
		Question:  question,
		Answer:    answer,
		Retrieved: docs,
		Timestamp: time.Now().UTC(),
		Model:     s.modelID,
	}, nil
}

// SearchOnly runs retrieval without generation, for callers that want
// sources without paying LLM latency or cost.
func (s *System) SearchOnly(ctx context.Context, question string, topK int) ([]plants.RetrievalResult, error) {
	return s.retriever.Retrieve(ctx, question, topK)
}

// Stats reports collection statistics.
func (s *System) Stats(ctx context.Context) (plants.CollectionStats, error) {
	return s.stats.Stats(ctx)
}

// Healthy reports whether the vector store is reachable.
func (s *System) Healthy(ctx context.Context) bool {
	return s.stats.Healthy(ctx)
}
