package config

import (
	"fmt"
	"os"
)

// Validate validates configuration values.
// Returns sentinel errors that can be checked with errors.Is().
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	// API key validation: the process refuses to serve without it, since
	// answering without a generation model would silently break /query.
	if os.Getenv("OPENAI_API_KEY") == "" {
		return fmt.Errorf("%w: OPENAI_API_KEY environment variable is required",
			ErrMissingAPIKey)
	}

	if _, err := c.QdrantHost(); err != nil {
		return err
	}

	if c.QdrantGRPCPort < 1 || c.QdrantGRPCPort > 65535 {
		return fmt.Errorf("%w: must be between 1 and 65535, got %d",
			ErrInvalidQdrantPort, c.QdrantGRPCPort)
	}

	if c.CollectionName == "" {
		return fmt.Errorf("%w: collection_name cannot be empty", ErrInvalidCollectionName)
	}

	if c.EmbeddingModel == "" {
		return fmt.Errorf("%w: embedding_model cannot be empty", ErrInvalidEmbeddingModel)
	}

	if c.VectorDimension < 1 {
		return fmt.Errorf("%w: must be positive, got %d", ErrInvalidDimension, c.VectorDimension)
	}

	if c.GenerationModel == "" {
		return fmt.Errorf("%w: generation_model cannot be empty", ErrInvalidGenerationModel)
	}

	// Temperature range per the OpenAI chat completions API
	if c.Temperature < 0.0 || c.Temperature > 2.0 {
		return fmt.Errorf("%w: must be between 0.0 and 2.0, got %.2f",
			ErrInvalidTemperature, c.Temperature)
	}

	if c.MaxTokens < 1 {
		return fmt.Errorf("%w: must be positive, got %d", ErrInvalidMaxTokens, c.MaxTokens)
	}

	if c.IngestBatchSize < 1 {
		return fmt.Errorf("ingest_batch_size must be positive, got %d", c.IngestBatchSize)
	}

	return nil
}
