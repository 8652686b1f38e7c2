package cmd

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/desertflora/plantrag/internal/app"
	"github.com/desertflora/plantrag/internal/config"
	"github.com/desertflora/plantrag/internal/ingest"
)

// runIngest rebuilds the vector-store collection from a corpus file.
// The collection is dropped and recreated, so a failed run leaves an
// incomplete collection; rerun ingestion to repair it.
func runIngest() error {
	flags := flag.NewFlagSet("ingest", flag.ContinueOnError)
	flags.SetOutput(os.Stderr)
	file := flags.String("file", "", "Path to the corpus (.json array or .jsonl)")
	batch := flags.Int("batch", 0, "Documents per embed/upsert batch (default from config)")
	if err := flags.Parse(os.Args[2:]); err != nil {
		return fmt.Errorf("parsing ingest flags: %w", err)
	}
	if *file == "" {
		return fmt.Errorf("ingest requires -file <path>")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	batchSize := cfg.IngestBatchSize
	if *batch > 0 {
		batchSize = *batch
	}

	docs, err := ingest.LoadDataset(*file)
	if err != nil {
		return fmt.Errorf("loading corpus: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := slog.Default()
	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	color.Cyan("Ingesting %d documents into %q (batch size %d)", len(docs), cfg.CollectionName, batchSize)

	indexer := ingest.NewIndexer(a.Embedder, a.Store, batchSize, logger)
	summary, err := indexer.Run(ctx, docs)
	if err != nil {
		return fmt.Errorf("ingesting corpus: %w", err)
	}

	color.Green("Done: %d documents in %d batches (%s)",
		summary.Documents, summary.Batches, summary.Elapsed.Round(time.Millisecond))
	return nil
}
