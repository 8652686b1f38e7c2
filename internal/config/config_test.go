package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validConfig returns a configuration that passes Validate when
// OPENAI_API_KEY is present in the environment.
func validConfig() *Config {
	return &Config{
		QdrantURL:       "http://localhost:6333",
		QdrantGRPCPort:  6334,
		CollectionName:  "arizona_plants",
		VectorDimension: 384,
		EmbeddingModel:  DefaultEmbeddingModel,
		OllamaHost:      "http://localhost:11434",
		GenerationModel: DefaultGenerationModel,
		Temperature:     0.7,
		MaxTokens:       500,
		Addr:            "127.0.0.1:8000",
		SearchTimeout:   10 * time.Second,
		GenerateTimeout: 60 * time.Second,
		IngestBatchSize: 32,
	}
}

func TestValidate_OK(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_MissingAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	err := validConfig().Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestValidate_NilConfig(t *testing.T) {
	var cfg *Config
	assert.ErrorIs(t, cfg.Validate(), ErrConfigNil)
}

func TestValidate_BadValues(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"empty collection", func(c *Config) { c.CollectionName = "" }, ErrInvalidCollectionName},
		{"empty embedding model", func(c *Config) { c.EmbeddingModel = "" }, ErrInvalidEmbeddingModel},
		{"zero dimension", func(c *Config) { c.VectorDimension = 0 }, ErrInvalidDimension},
		{"negative dimension", func(c *Config) { c.VectorDimension = -1 }, ErrInvalidDimension},
		{"empty generation model", func(c *Config) { c.GenerationModel = "" }, ErrInvalidGenerationModel},
		{"temperature too high", func(c *Config) { c.Temperature = 2.5 }, ErrInvalidTemperature},
		{"temperature negative", func(c *Config) { c.Temperature = -0.1 }, ErrInvalidTemperature},
		{"zero max tokens", func(c *Config) { c.MaxTokens = 0 }, ErrInvalidMaxTokens},
		{"port out of range", func(c *Config) { c.QdrantGRPCPort = 70000 }, ErrInvalidQdrantPort},
		{"port zero", func(c *Config) { c.QdrantGRPCPort = 0 }, ErrInvalidQdrantPort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestQdrantHost(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{"http url", "http://localhost:6333", "localhost", false},
		{"https url", "https://qdrant.example.com:6333", "qdrant.example.com", false},
		{"bare host port", "qdrant:6333", "qdrant", false},
		{"bare host", "qdrant", "qdrant", false},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.QdrantURL = tt.url
			host, err := cfg.QdrantHost()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidQdrantURL)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, host)
		})
	}
}

func TestFullGenerationModelName(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, "openai/gpt-4o-mini", cfg.FullGenerationModelName())

	cfg.GenerationModel = "openai/gpt-4o"
	assert.Equal(t, "openai/gpt-4o", cfg.FullGenerationModelName())
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Chdir(t.TempDir()) // no config.yaml present

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:6333", cfg.QdrantURL)
	assert.Equal(t, 6334, cfg.QdrantGRPCPort)
	assert.Equal(t, "arizona_plants", cfg.CollectionName)
	assert.Equal(t, DefaultEmbeddingModel, cfg.EmbeddingModel)
	assert.Equal(t, DefaultVectorDimension, cfg.VectorDimension)
	assert.Equal(t, DefaultGenerationModel, cfg.GenerationModel)
	assert.Equal(t, 10*time.Second, cfg.SearchTimeout)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("QDRANT_URL", "http://qdrant.internal:6333")
	t.Setenv("COLLECTION_NAME", "sonoran_flora")
	t.Setenv("EMBEDDING_MODEL", "all-minilm:latest")
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://qdrant.internal:6333", cfg.QdrantURL)
	assert.Equal(t, "sonoran_flora", cfg.CollectionName)
	assert.Equal(t, "all-minilm:latest", cfg.EmbeddingModel)
}

func TestLoad_MissingAPIKeyFails(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Chdir(t.TempDir())

	_, err := Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}
