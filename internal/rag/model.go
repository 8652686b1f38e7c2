package rag

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// GenkitModel calls a hosted chat model through Genkit.
type GenkitModel struct {
	g           *genkit.Genkit
	modelName   string // provider-qualified, e.g. "openai/gpt-4o-mini"
	temperature float32
	maxTokens   int
}

// NewGenkitModel creates a ModelCaller backed by the named Genkit model.
func NewGenkitModel(g *genkit.Genkit, modelName string, temperature float32, maxTokens int) *GenkitModel {
	return &GenkitModel{
		g:           g,
		modelName:   modelName,
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

// Generate implements ModelCaller.
func (m *GenkitModel) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := genkit.Generate(ctx, m.g,
		ai.WithModelName(m.modelName),
		ai.WithPrompt(prompt),
		ai.WithConfig(&ai.GenerationCommonConfig{
			Temperature:     float64(m.temperature),
			MaxOutputTokens: m.maxTokens,
		}),
	)
	if err != nil {
		return "", fmt.Errorf("calling %s: %w", m.modelName, err)
	}
	return resp.Text(), nil
}
