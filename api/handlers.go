package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/desertflora/plantrag/internal/log"
	"github.com/desertflora/plantrag/internal/plants"
	"github.com/desertflora/plantrag/internal/vectorstore"
)

const (
	// minQuestionLength is the minimum question length in runes.
	minQuestionLength = 3

	// maxSnippetLength caps document content returned by /query and
	// /search so responses stay small; full text lives in the vector
	// store.
	maxSnippetLength = 500
)

type handler struct {
	pipeline       Pipeline
	collectionName string
	embeddingModel string
	defaultTopK    int
	maxTopK        int
	logger         log.Logger
}

// questionRequest is the body of /query and /search.
type questionRequest struct {
	Question string `json:"question"`
	TopK     *int   `json:"top_k,omitempty"`
}

// searchResult is the flat, trimmed document view returned by /query and
// /search.
type searchResult struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	Score   float32 `json:"score"`
	Content string  `json:"content"`
	Type    string  `json:"type,omitempty"`
	Source  string  `json:"source,omitempty"`
}

type queryResponse struct {
	Question  string         `json:"question"`
	Answer    string         `json:"answer"`
	Retrieved []searchResult `json:"retrieved_documents"`
	Timestamp time.Time      `json:"timestamp"`
	Model     string         `json:"model"`
}

type searchResponse struct {
	Query     string         `json:"query"`
	Results   []searchResult `json:"results"`
	Count     int            `json:"count"`
	Timestamp time.Time      `json:"timestamp"`
}

type healthResponse struct {
	Status           string    `json:"status"`
	QdrantConnected  bool      `json:"qdrant_connected"`
	CollectionExists bool      `json:"collection_exists"`
	DocumentCount    uint64    `json:"document_count"`
	Timestamp        time.Time `json:"timestamp"`
}

type statsResponse struct {
	CollectionName  string    `json:"collection_name"`
	DocumentCount   uint64    `json:"document_count"`
	VectorDimension int       `json:"vector_dimension"`
	Status          string    `json:"status"`
	EmbeddingModel  string    `json:"embedding_model"`
	Timestamp       time.Time `json:"timestamp"`
}

// root describes the API for anyone poking at the base URL.
func (h *handler) root(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "not_found", "unknown endpoint", h.logger)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "plantrag",
		"endpoints": map[string]string{
			"GET /health":  "service and vector-store health",
			"POST /query":  "answer a question about Arizona desert plants",
			"POST /search": "retrieve similar documents without generation",
			"GET /stats":   "collection statistics",
		},
	}, h.logger)
}

// health reports service health. Always 200; degradation is expressed in
// the body so probes can distinguish "down" from "up but impaired".
func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	connected := h.pipeline.Healthy(ctx)

	var exists bool
	var count uint64
	if connected {
		if stats, err := h.pipeline.Stats(ctx); err == nil {
			exists = true
			count = stats.Count
		} else if !errors.Is(err, vectorstore.ErrCollectionNotFound) {
			h.logger.Warn("reading collection stats for health", "error", err)
		}
	}

	status := "healthy"
	if !connected || !exists {
		status = "degraded"
	}

	writeJSON(w, http.StatusOK, healthResponse{
		Status:           status,
		QdrantConnected:  connected,
		CollectionExists: exists,
		DocumentCount:    count,
		Timestamp:        time.Now().UTC(),
	}, h.logger)
}

// query runs the full pipeline and returns the generated answer with its
// supporting documents.
func (h *handler) query(w http.ResponseWriter, r *http.Request) {
	question, topK, ok := h.readQuestion(w, r)
	if !ok {
		return
	}

	answer, err := h.pipeline.Answer(r.Context(), question, topK)
	if err != nil {
		h.writePipelineError(w, "query", err)
		return
	}

	writeJSON(w, http.StatusOK, queryResponse{
		Question:  answer.Question,
		Answer:    answer.Answer,
		Retrieved: toSearchResults(answer.Retrieved),
		Timestamp: answer.Timestamp,
		Model:     answer.Model,
	}, h.logger)
}

// search runs retrieval only and returns trimmed document snippets.
func (h *handler) search(w http.ResponseWriter, r *http.Request) {
	question, topK, ok := h.readQuestion(w, r)
	if !ok {
		return
	}

	results, err := h.pipeline.SearchOnly(r.Context(), question, topK)
	if err != nil {
		h.writePipelineError(w, "search", err)
		return
	}

	out := toSearchResults(results)
	writeJSON(w, http.StatusOK, searchResponse{
		Query:     question,
		Results:   out,
		Count:     len(out),
		Timestamp: time.Now().UTC(),
	}, h.logger)
}

// toSearchResults flattens retrieval results into the wire shape shared by
// /query and /search, truncating content on the way out.
func toSearchResults(results []plants.RetrievalResult) []searchResult {
	out := make([]searchResult, len(results))
	for i, res := range results {
		out[i] = searchResult{
			ID:      res.Document.ID,
			Title:   res.Document.Title,
			Score:   res.Score,
			Content: truncate(res.Document.Content, maxSnippetLength),
			Type:    res.Document.Type,
			Source:  res.Document.Source,
		}
	}
	return out
}

// stats reports collection statistics.
func (h *handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.pipeline.Stats(r.Context())
	if err != nil {
		h.writePipelineError(w, "stats", err)
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{
		CollectionName:  h.collectionName,
		DocumentCount:   stats.Count,
		VectorDimension: stats.Dimension,
		Status:          stats.Status,
		EmbeddingModel:  h.embeddingModel,
		Timestamp:       time.Now().UTC(),
	}, h.logger)
}

// readQuestion decodes and validates the shared /query and /search request
// body. On failure it writes the error response and returns ok=false.
func (h *handler) readQuestion(w http.ResponseWriter, r *http.Request) (question string, topK int, ok bool) {
	var req questionRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body must be a JSON object with a question", h.logger)
		return "", 0, false
	}

	question = strings.TrimSpace(req.Question)
	if utf8.RuneCountInString(question) < minQuestionLength {
		writeError(w, http.StatusBadRequest, "invalid_question",
			fmt.Sprintf("question must be at least %d characters", minQuestionLength), h.logger)
		return "", 0, false
	}

	topK = h.defaultTopK
	if req.TopK != nil {
		topK = *req.TopK
		if topK < 1 || topK > h.maxTopK {
			writeError(w, http.StatusBadRequest, "invalid_top_k",
				fmt.Sprintf("top_k must be between 1 and %d", h.maxTopK), h.logger)
			return "", 0, false
		}
	}

	return question, topK, true
}

// writePipelineError maps pipeline failures to HTTP statuses: transient
// dependency failures become 503 so clients know to retry, everything else
// is a plain 500.
func (h *handler) writePipelineError(w http.ResponseWriter, op string, err error) {
	h.logger.Error("pipeline call failed", "op", op, "error", err)

	switch {
	case errors.Is(err, vectorstore.ErrCollectionNotFound):
		writeError(w, http.StatusServiceUnavailable, "collection_missing",
			"document collection does not exist; run ingestion first", h.logger)
	case vectorstore.IsRetryable(err):
		writeError(w, http.StatusServiceUnavailable, "dependency_unavailable",
			"a backing service is temporarily unavailable", h.logger)
	case errors.Is(err, vectorstore.ErrBadRequest):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error(), h.logger)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error", h.logger)
	}
}

// truncate shortens s to at most limit runes, appending "..." when trimmed.
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + "..."
}
