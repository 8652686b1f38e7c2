package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/compat_oai/openai"
	"github.com/firebase/genkit/go/plugins/ollama"
	"golang.org/x/time/rate"

	"github.com/desertflora/plantrag/internal/config"
	"github.com/desertflora/plantrag/internal/embed"
	"github.com/desertflora/plantrag/internal/log"
)

// Outbound LLM call budget. Generation is the expensive leg of the
// pipeline; a modest limit keeps a burst of questions from exhausting the
// provider quota.
const (
	llmRate  = rate.Limit(2)
	llmBurst = 4
)

// provideGenkit initializes Genkit with the OpenAI plugin (answer
// generation, reads OPENAI_API_KEY from the environment) and the Ollama
// plugin (sentence embeddings served locally).
func provideGenkit(ctx context.Context, cfg *config.Config, logger log.Logger) (*genkit.Genkit, embed.Embedder, error) {
	ollamaPlugin := &ollama.Ollama{ServerAddress: cfg.OllamaHost}

	g := genkit.Init(ctx,
		genkit.WithPlugins(ollamaPlugin, &openai.OpenAI{}),
	)
	if g == nil {
		return nil, nil, errors.New("initializing genkit")
	}

	// Ollama requires explicit embedder registration (no auto-discovery)
	ollamaPlugin.DefineEmbedder(g, cfg.OllamaHost, cfg.EmbeddingModel, nil)

	aiEmbedder := ollama.Embedder(g, cfg.OllamaHost)
	if aiEmbedder == nil {
		return nil, nil, fmt.Errorf("embedder %q not found on %s", cfg.EmbeddingModel, cfg.OllamaHost)
	}

	logger.Info("initialized Genkit",
		"generation_model", cfg.FullGenerationModelName(),
		"embedding_model", cfg.EmbeddingModel,
		"ollama_host", cfg.OllamaHost,
	)

	return g, embed.NewGenkit(aiEmbedder, logger.With("component", "embedder")), nil
}
