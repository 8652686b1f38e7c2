// Package ingest loads the curated desert-plant corpus and writes it into
// the vector store: chunk-free documents in, embedded records out.
package ingest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertflora/plantrag/internal/plants"
)

// LoadDataset reads documents from a .json (array) or .jsonl (one document
// per line) file.
func LoadDataset(path string) ([]plants.Document, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return loadJSON(path)
	case ".jsonl":
		return loadJSONL(path)
	default:
		return nil, fmt.Errorf("unsupported dataset format %q (want .json or .jsonl)", filepath.Ext(path))
	}
}

func loadJSON(path string) ([]plants.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}

	var docs []plants.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("parsing dataset %s: %w", path, err)
	}
	return validate(docs)
}

func loadJSONL(path string) ([]plants.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading dataset: %w", err)
	}
	defer f.Close()

	var docs []plants.Document
	scanner := bufio.NewScanner(f)
	// Species descriptions can exceed bufio's default 64KiB line limit.
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var doc plants.Document
		if err := json.Unmarshal([]byte(text), &doc); err != nil {
			return nil, fmt.Errorf("parsing dataset %s line %d: %w", path, line, err)
		}
		docs = append(docs, doc)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading dataset %s: %w", path, err)
	}
	return validate(docs)
}

func validate(docs []plants.Document) ([]plants.Document, error) {
	seen := make(map[string]struct{}, len(docs))
	for i, doc := range docs {
		if doc.ID == "" {
			return nil, fmt.Errorf("document at index %d has no id", i)
		}
		if _, dup := seen[doc.ID]; dup {
			return nil, fmt.Errorf("duplicate document id %q", doc.ID)
		}
		seen[doc.ID] = struct{}{}
	}
	return docs, nil
}
