package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/desertflora/plantrag/internal/embed"
	"github.com/desertflora/plantrag/internal/log"
	"github.com/desertflora/plantrag/internal/plants"
	"github.com/desertflora/plantrag/internal/vectorstore"
)

// CollectionWriter is the write side of the vector store the indexer needs.
type CollectionWriter interface {
	Recreate(ctx context.Context) error
	Upsert(ctx context.Context, records []vectorstore.Record) error
}

// Summary reports what an ingestion run did.
type Summary struct {
	Documents int
	Batches   int
	Elapsed   time.Duration
}

// Indexer embeds documents in batches and upserts them into a freshly
// recreated collection.
type Indexer struct {
	embedder  embed.Embedder
	store     CollectionWriter
	batchSize int
	logger    log.Logger
}

// NewIndexer creates an Indexer. A non-positive batchSize defaults to 32.
func NewIndexer(embedder embed.Embedder, store CollectionWriter, batchSize int, logger log.Logger) *Indexer {
	if batchSize < 1 {
		batchSize = 32
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Indexer{
		embedder:  embedder,
		store:     store,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Run recreates the collection and ingests all documents.
// Recreating rather than upserting in place guarantees the collection only
// contains the current corpus.
func (x *Indexer) Run(ctx context.Context, docs []plants.Document) (Summary, error) {
	start := time.Now()

	if err := x.store.Recreate(ctx); err != nil {
		return Summary{}, fmt.Errorf("preparing collection: %w", err)
	}

	batches := 0
	for begin := 0; begin < len(docs); begin += x.batchSize {
		end := min(begin+x.batchSize, len(docs))
		batch := docs[begin:end]

		texts := make([]string, len(batch))
		for i, doc := range batch {
			texts[i] = doc.EmbeddingText()
		}

		vectors, err := x.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return Summary{}, fmt.Errorf("embedding batch %d: %w", batches+1, err)
		}

		records := make([]vectorstore.Record, len(batch))
		for i, doc := range batch {
			records[i] = vectorstore.Record{Document: doc, Vector: vectors[i]}
		}

		if err := x.store.Upsert(ctx, records); err != nil {
			return Summary{}, fmt.Errorf("upserting batch %d: %w", batches+1, err)
		}

		batches++
		x.logger.Info("ingested batch", "batch", batches, "documents", len(batch))
	}

	return Summary{
		Documents: len(docs),
		Batches:   batches,
		Elapsed:   time.Since(start),
	}, nil
}
