package rag

import (
	"context"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/desertflora/plantrag/internal/log"
	"github.com/desertflora/plantrag/internal/plants"
)

// NoContextAnswer is returned when retrieval produced no documents.
// Policy: the generator does not call the LLM without context — a
// context-free answer could not be grounded or cited.
const NoContextAnswer = "I could not find any relevant documents in the " +
	"knowledge base for this question. Try rephrasing it, or ask about a " +
	"specific Arizona desert plant."

// ModelCaller is the single LLM operation the generator consumes.
type ModelCaller interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Generator assembles a grounded prompt and asks the hosted model for an
// answer. LLM calls are rate-limited and retried with exponential backoff.
type Generator struct {
	model   ModelCaller
	retry   RetryConfig
	limiter *rate.Limiter
	timeout time.Duration
	logger  log.Logger
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithRetryConfig overrides the default retry behavior.
func WithRetryConfig(cfg RetryConfig) GeneratorOption {
	return func(g *Generator) { g.retry = cfg }
}

// WithRateLimit bounds outbound LLM calls to r requests per second with the
// given burst.
func WithRateLimit(r rate.Limit, burst int) GeneratorOption {
	return func(g *Generator) { g.limiter = rate.NewLimiter(r, burst) }
}

// WithGenerateTimeout bounds each full generation (including retries).
func WithGenerateTimeout(d time.Duration) GeneratorOption {
	return func(g *Generator) { g.timeout = d }
}

// NewGenerator creates a Generator around the given model caller.
func NewGenerator(model ModelCaller, logger log.Logger, opts ...GeneratorOption) *Generator {
	if logger == nil {
		logger = log.NewNop()
	}
	g := &Generator{
		model:  model,
		retry:  DefaultRetryConfig(),
		logger: logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns the model's answer to the question, grounded in the
// retrieved documents. With no documents it returns NoContextAnswer without
// calling the model. The model output is returned verbatim apart from
// whitespace trimming.
func (g *Generator) Generate(ctx context.Context, question string, docs []plants.RetrievalResult) (string, error) {
	if len(docs) == 0 {
		g.logger.Debug("no documents retrieved, skipping generation")
		return NoContextAnswer, nil
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	prompt := buildPrompt(question, docs)

	answer, err := g.generateWithRetry(ctx, prompt)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(answer), nil
}
