// Package cmd provides CLI commands for plantrag.
//
// Commands:
//   - serve: HTTP API server for question answering and search
//   - ingest: load a document corpus into the vector store
//   - eval: measure retrieval quality against a labeled set
//
// Signal handling and graceful shutdown are implemented for all commands
// via context cancellation.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/desertflora/plantrag/internal/log"
)

// Execute is the main entry point for the plantrag CLI.
func Execute() error {
	// Local .env is a development convenience; absence is not an error
	_ = godotenv.Load()

	// Initialize logger once at entry point
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	slog.SetDefault(log.New(log.Config{Level: level, JSON: os.Getenv("LOG_FORMAT") == "json"}))

	if len(os.Args) < 2 {
		runHelp()
		return nil
	}

	switch os.Args[1] {
	case "serve":
		return runServe()
	case "ingest":
		return runIngest()
	case "eval":
		return runEval()
	case "version", "--version", "-v":
		runVersion()
		return nil
	case "help", "--help", "-h":
		runHelp()
		return nil
	default:
		return fmt.Errorf("unknown command: %s", os.Args[1])
	}
}

// runHelp displays the help message.
func runHelp() {
	fmt.Println("plantrag - Arizona desert plant question answering")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  plantrag serve [addr]          Start HTTP API server (default: 127.0.0.1:8000)")
	fmt.Println("  plantrag ingest -file <path>   Rebuild the collection from a JSON/JSONL corpus")
	fmt.Println("  plantrag eval -file <path>     Run retrieval evaluation against a labeled set")
	fmt.Println("  plantrag --version             Show version information")
	fmt.Println("  plantrag --help                Show this help")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  OPENAI_API_KEY     Required: API key for answer generation")
	fmt.Println("  QDRANT_URL         Optional: Qdrant URL (default: http://localhost:6333)")
	fmt.Println("  QDRANT_GRPC_PORT   Optional: Qdrant gRPC port (default: 6334)")
	fmt.Println("  COLLECTION_NAME    Optional: collection name (default: arizona_plants)")
	fmt.Println("  EMBEDDING_MODEL    Optional: Ollama embedding model (default: all-minilm:l6-v2)")
	fmt.Println("  OLLAMA_HOST        Optional: Ollama server (default: http://localhost:11434)")
	fmt.Println("  DEBUG              Optional: enable debug logging")
	fmt.Println()
	fmt.Println("A .env file in the working directory is loaded automatically.")
}
