package cmd

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"github.com/desertflora/plantrag/internal/app"
	"github.com/desertflora/plantrag/internal/config"
	"github.com/desertflora/plantrag/internal/evalrun"
)

// runEval measures retrieval quality against a labeled question set.
func runEval() error {
	flags := flag.NewFlagSet("eval", flag.ContinueOnError)
	flags.SetOutput(os.Stderr)
	file := flags.String("file", "", "Path to the evaluation set (.json array of cases)")
	topK := flags.Int("top-k", config.DefaultTopK, "Documents retrieved per question")
	if err := flags.Parse(os.Args[2:]); err != nil {
		return fmt.Errorf("parsing eval flags: %w", err)
	}
	if *file == "" {
		return fmt.Errorf("eval requires -file <path>")
	}

	cases, err := evalrun.LoadCases(*file)
	if err != nil {
		return fmt.Errorf("loading eval set: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
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

	harness := evalrun.NewHarness(a.System, logger)
	report, err := harness.Run(ctx, cases, *topK)
	if err != nil {
		return fmt.Errorf("running evaluation: %w", err)
	}

	printReport(report)
	return nil
}

// printReport renders per-case results and aggregate metrics.
func printReport(report evalrun.Report) {
	for _, res := range report.Results {
		switch {
		case res.Err != nil:
			color.Red("ERR   %-50s %v", res.Case.Question, res.Err)
		case res.Rank == 0:
			color.Red("MISS  %-50s expected %s", res.Case.Question, res.Case.ExpectedID)
		case res.Rank == 1:
			color.Green("HIT   %-50s rank 1", res.Case.Question)
		default:
			color.Yellow("HIT   %-50s rank %d", res.Case.Question, res.Rank)
		}
	}

	fmt.Println()
	fmt.Printf("Cases:    %d (errors: %d)\n", len(report.Results), report.Errors)
	fmt.Printf("Hits@%d:   %d\n", report.TopK, report.Hits)
	fmt.Printf("Hit rate: %.3f\n", report.HitRate)
	fmt.Printf("MRR:      %.3f\n", report.MRR)
}
