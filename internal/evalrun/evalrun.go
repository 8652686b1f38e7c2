// Package evalrun measures retrieval quality offline: for each evaluation
// case it runs a search-only query and checks where the expected document
// landed, producing hit rate and mean reciprocal rank.
package evalrun

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/desertflora/plantrag/internal/log"
	"github.com/desertflora/plantrag/internal/plants"
)

// Case is one labeled retrieval example.
type Case struct {
	Question   string `json:"question"`
	ExpectedID string `json:"expected_id"`
}

// CaseResult records where the expected document ranked for one case.
// Rank is 0 when the document was not retrieved at all.
type CaseResult struct {
	Case Case
	Rank int
	Err  error
}

// Report aggregates a full evaluation run.
type Report struct {
	TopK    int
	Results []CaseResult
	Hits    int
	Errors  int
	HitRate float64
	MRR     float64
}

// Searcher is the retrieval-only operation the harness drives.
type Searcher interface {
	SearchOnly(ctx context.Context, question string, topK int) ([]plants.RetrievalResult, error)
}

// LoadCases reads evaluation cases from a JSON array file.
func LoadCases(path string) ([]Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading eval set: %w", err)
	}

	var cases []Case
	if err := json.Unmarshal(data, &cases); err != nil {
		return nil, fmt.Errorf("parsing eval set %s: %w", path, err)
	}
	for i, c := range cases {
		if c.Question == "" || c.ExpectedID == "" {
			return nil, fmt.Errorf("eval case %d is missing question or expected_id", i)
		}
	}
	return cases, nil
}

// Harness runs evaluation cases against a Searcher.
type Harness struct {
	searcher Searcher
	logger   log.Logger
}

// NewHarness creates an evaluation harness.
func NewHarness(searcher Searcher, logger log.Logger) *Harness {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Harness{searcher: searcher, logger: logger}
}

// Run evaluates all cases at the given topK. Per-case retrieval errors are
// recorded and scored as misses rather than aborting the run.
func (h *Harness) Run(ctx context.Context, cases []Case, topK int) (Report, error) {
	if len(cases) == 0 {
		return Report{}, fmt.Errorf("no evaluation cases")
	}
	if topK < 1 {
		return Report{}, fmt.Errorf("top_k must be positive, got %d", topK)
	}

	report := Report{TopK: topK, Results: make([]CaseResult, 0, len(cases))}
	var reciprocalSum float64

	for _, c := range cases {
		results, err := h.searcher.SearchOnly(ctx, c.Question, topK)
		if err != nil {
			h.logger.Warn("eval case failed", "question", c.Question, "error", err)
			report.Results = append(report.Results, CaseResult{Case: c, Err: err})
			report.Errors++
			continue
		}

		rank := rankOf(results, c.ExpectedID)
		report.Results = append(report.Results, CaseResult{Case: c, Rank: rank})
		if rank > 0 {
			report.Hits++
			reciprocalSum += 1.0 / float64(rank)
		}
	}

	total := float64(len(cases))
	report.HitRate = float64(report.Hits) / total
	report.MRR = reciprocalSum / total
	return report, nil
}

// rankOf returns the 1-based rank of the expected document, or 0 if absent.
func rankOf(results []plants.RetrievalResult, expectedID string) int {
	for i, res := range results {
		if res.Document.ID == expectedID {
			return i + 1
		}
	}
	return 0
}
