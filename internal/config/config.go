// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (./config.yaml or ~/.plantrag/config.yaml)
//  3. Default values
//
// Error Handling:
//   - Uses sentinel errors for Go-idiomatic error checking with errors.Is()
//   - Wrap with context using fmt.Errorf("%w: details", ErrXxx)
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates a required API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidQdrantURL indicates the Qdrant URL cannot be parsed.
	ErrInvalidQdrantURL = errors.New("invalid Qdrant URL")

	// ErrInvalidQdrantPort indicates the Qdrant gRPC port is out of range.
	ErrInvalidQdrantPort = errors.New("invalid Qdrant gRPC port")

	// ErrInvalidCollectionName indicates the collection name is empty.
	ErrInvalidCollectionName = errors.New("invalid collection name")

	// ErrInvalidEmbeddingModel indicates the embedding model name is empty.
	ErrInvalidEmbeddingModel = errors.New("invalid embedding model")

	// ErrInvalidDimension indicates the vector dimension is not positive.
	ErrInvalidDimension = errors.New("invalid vector dimension")

	// ErrInvalidGenerationModel indicates the generation model name is empty.
	ErrInvalidGenerationModel = errors.New("invalid generation model")

	// ErrInvalidTemperature indicates the temperature value is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidMaxTokens indicates the max tokens value is out of range.
	ErrInvalidMaxTokens = errors.New("invalid max tokens")

	// ErrInvalidTopK indicates a top-k bound is out of range.
	ErrInvalidTopK = errors.New("invalid top_k")
)

const (
	// DefaultEmbeddingModel is the Ollama tag for
	// sentence-transformers/all-MiniLM-L6-v2, which produces 384-dim vectors.
	DefaultEmbeddingModel = "all-minilm:l6-v2"

	// DefaultVectorDimension matches the embedding model above.
	// The Qdrant collection is created with this dimension and rejects
	// vectors of any other size.
	DefaultVectorDimension = 384

	// DefaultGenerationModel is the hosted model used to compose answers.
	DefaultGenerationModel = "gpt-4o-mini"

	// DefaultTopK is the number of documents retrieved when the caller does
	// not specify top_k.
	DefaultTopK = 5

	// MaxRequestTopK is the largest top_k the API accepts from a client.
	MaxRequestTopK = 10

	// RetrievalCeiling is the hard upper bound on results fetched from the
	// vector store. Values above it are clamped, not rejected.
	RetrievalCeiling = 50
)

// GenerationProvider is the Genkit plugin prefix for the answer model.
const GenerationProvider = "openai"

// Config stores application configuration.
// SECURITY: the OpenAI API key is read by the Genkit plugin directly from the
// environment and is never stored here, so there is nothing to mask.
type Config struct {
	// Qdrant connection
	QdrantURL      string `mapstructure:"qdrant_url" json:"qdrant_url"`
	QdrantGRPCPort int    `mapstructure:"qdrant_grpc_port" json:"qdrant_grpc_port"`
	QdrantAPIKey   string `mapstructure:"qdrant_api_key" json:"-"`

	// Collection configuration
	CollectionName  string `mapstructure:"collection_name" json:"collection_name"`
	VectorDimension int    `mapstructure:"vector_dimension" json:"vector_dimension"`

	// Embedding configuration (served by Ollama)
	EmbeddingModel string `mapstructure:"embedding_model" json:"embedding_model"`
	OllamaHost     string `mapstructure:"ollama_host" json:"ollama_host"`

	// Generation configuration (hosted OpenAI model)
	GenerationModel string  `mapstructure:"generation_model" json:"generation_model"`
	Temperature     float32 `mapstructure:"temperature" json:"temperature"`
	MaxTokens       int     `mapstructure:"max_tokens" json:"max_tokens"`

	// HTTP server
	Addr string `mapstructure:"addr" json:"addr"`

	// Outbound call timeouts
	SearchTimeout   time.Duration `mapstructure:"search_timeout" json:"search_timeout"`
	GenerateTimeout time.Duration `mapstructure:"generate_timeout" json:"generate_timeout"`

	// Ingestion batch size for embedding and upserting documents
	IngestBatchSize int `mapstructure:"ingest_batch_size" json:"ingest_batch_size"`
}

// Load loads configuration.
// Priority: Environment variables > Configuration file > Default values
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".plantrag"))
	}

	setDefaults(v)
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		// Configuration file not found is not an error, use default values
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"config_name", "config.yaml")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// Validate immediately (fail-fast): serving with broken configuration
	// would silently return broken answers.
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(v *viper.Viper) {
	// Qdrant defaults (REST URL kept for compatibility; the Go client
	// speaks gRPC on its own port)
	v.SetDefault("qdrant_url", "http://localhost:6333")
	v.SetDefault("qdrant_grpc_port", 6334)

	// Collection defaults
	v.SetDefault("collection_name", "arizona_plants")
	v.SetDefault("vector_dimension", DefaultVectorDimension)

	// Embedding defaults
	v.SetDefault("embedding_model", DefaultEmbeddingModel)
	v.SetDefault("ollama_host", "http://localhost:11434")

	// Generation defaults
	v.SetDefault("generation_model", DefaultGenerationModel)
	v.SetDefault("temperature", 0.7)
	v.SetDefault("max_tokens", 500)

	// Server defaults
	v.SetDefault("addr", "127.0.0.1:8000")

	// Timeout defaults
	v.SetDefault("search_timeout", 10*time.Second)
	v.SetDefault("generate_timeout", 60*time.Second)

	// Ingestion defaults
	v.SetDefault("ingest_batch_size", 32)
}

// bindEnvVariables binds environment variables explicitly.
// OPENAI_API_KEY is read directly by the Genkit OpenAI plugin (not via
// Viper) and validated for presence in cfg.Validate().
func bindEnvVariables(v *viper.Viper) {
	// Helper to panic on unexpected bind errors (hardcoded strings can't fail).
	// If this panics, it's a BUG in our code, not a runtime error.
	mustBind := func(key, envVar string) {
		if err := v.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("qdrant_url", "QDRANT_URL")
	mustBind("qdrant_grpc_port", "QDRANT_GRPC_PORT")
	mustBind("qdrant_api_key", "QDRANT_API_KEY")
	mustBind("collection_name", "COLLECTION_NAME")
	mustBind("embedding_model", "EMBEDDING_MODEL")
	mustBind("ollama_host", "OLLAMA_HOST")
	mustBind("generation_model", "GENERATION_MODEL")
	mustBind("addr", "PLANTRAG_ADDR")
}

// QdrantHost extracts the hostname from QdrantURL for the gRPC channel.
func (c *Config) QdrantHost() (string, error) {
	u, err := url.Parse(c.QdrantURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidQdrantURL, err)
	}
	host := u.Hostname()
	if host == "" {
		// Bare "host:port" or "host" without a scheme
		host = strings.Split(c.QdrantURL, ":")[0]
	}
	if host == "" {
		return "", fmt.Errorf("%w: no host in %q", ErrInvalidQdrantURL, c.QdrantURL)
	}
	return host, nil
}

// FullGenerationModelName returns the provider-qualified model name for
// Genkit, e.g. "openai/gpt-4o-mini". If GenerationModel already contains a
// "/", it is returned as-is.
func (c *Config) FullGenerationModelName() string {
	if strings.Contains(c.GenerationModel, "/") {
		return c.GenerationModel
	}
	return GenerationProvider + "/" + c.GenerationModel
}
