package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertflora/plantrag/internal/log"
	"github.com/desertflora/plantrag/internal/plants"
	"github.com/desertflora/plantrag/internal/vectorstore"
)

// mockPipeline scripts every pipeline operation.
type mockPipeline struct {
	answer    plants.AnswerResponse
	answerErr error

	results   []plants.RetrievalResult
	searchErr error

	collStats plants.CollectionStats
	statsErr  error

	healthy bool

	lastQuestion string
	lastTopK     int
}

func (m *mockPipeline) Answer(_ context.Context, question string, topK int) (plants.AnswerResponse, error) {
	m.lastQuestion, m.lastTopK = question, topK
	return m.answer, m.answerErr
}

func (m *mockPipeline) SearchOnly(_ context.Context, question string, topK int) ([]plants.RetrievalResult, error) {
	m.lastQuestion, m.lastTopK = question, topK
	return m.results, m.searchErr
}

func (m *mockPipeline) Stats(context.Context) (plants.CollectionStats, error) {
	return m.collStats, m.statsErr
}

func (m *mockPipeline) Healthy(context.Context) bool {
	return m.healthy
}

func newTestServer(t *testing.T, p Pipeline) http.Handler {
	t.Helper()
	srv, err := NewServer(ServerConfig{
		Logger:         log.NewNop(),
		Pipeline:       p,
		CollectionName: "arizona_plants",
		EmbeddingModel: "all-minilm:l6-v2",
		DefaultTopK:    5,
		MaxTopK:        10,
	})
	require.NoError(t, err)
	return srv.Handler()
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}

func TestNewServer_RequiresPipeline(t *testing.T) {
	_, err := NewServer(ServerConfig{Logger: log.NewNop()})
	assert.Error(t, err)
}

func TestQuery(t *testing.T) {
	p := &mockPipeline{
		answer: plants.AnswerResponse{
			Question: "What is a saguaro?",
			Answer:   "A giant columnar cactus.",
			Retrieved: []plants.RetrievalResult{
				{Document: plants.Document{ID: "saguaro-001", Title: "Saguaro"}, Score: 0.91, Rank: 1},
			},
			Timestamp: time.Now().UTC(),
			Model:     "gpt-4o-mini",
		},
	}
	h := newTestServer(t, p)

	w := doJSON(t, h, http.MethodPost, "/query", `{"question": "What is a saguaro?"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var body queryResponse
	decodeBody(t, w, &body)
	assert.Equal(t, "A giant columnar cactus.", body.Answer)
	assert.Equal(t, "gpt-4o-mini", body.Model)
	require.Len(t, body.Retrieved, 1)
	assert.Equal(t, "saguaro-001", body.Retrieved[0].ID)
	assert.Equal(t, "Saguaro", body.Retrieved[0].Title)

	assert.Equal(t, 5, p.lastTopK, "top_k defaults when omitted")
}

// The documents in a /query response are flat {id, title, score, content,
// type, source} objects with truncated content, same as /search — not the
// pipeline's internal result struct.
func TestQuery_RetrievedDocumentShape(t *testing.T) {
	p := &mockPipeline{
		answer: plants.AnswerResponse{
			Question: "What is a saguaro?",
			Answer:   "A giant columnar cactus.",
			Retrieved: []plants.RetrievalResult{
				{
					Document: plants.Document{
						ID:      "saguaro-001",
						Title:   "Saguaro",
						Content: strings.Repeat("s", 600),
						Type:    "species",
						Source:  "iNaturalist",
					},
					Score: 0.91,
					Rank:  1,
				},
			},
			Timestamp: time.Now().UTC(),
			Model:     "gpt-4o-mini",
		},
	}
	h := newTestServer(t, p)

	w := doJSON(t, h, http.MethodPost, "/query", `{"question": "What is a saguaro?"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]json.RawMessage
	decodeBody(t, w, &body)
	require.Contains(t, body, "retrieved_documents")

	var docs []map[string]any
	require.NoError(t, json.Unmarshal(body["retrieved_documents"], &docs))
	require.Len(t, docs, 1)

	doc := docs[0]
	for _, key := range []string{"id", "title", "score", "content", "type", "source"} {
		assert.Contains(t, doc, key)
	}
	assert.NotContains(t, doc, "document", "documents are flat, not nested")
	assert.NotContains(t, doc, "rank")

	content, _ := doc["content"].(string)
	assert.Len(t, content, maxSnippetLength+len("..."), "long content is truncated")
	assert.True(t, strings.HasSuffix(content, "..."))
}

func TestQuery_TopKForwarded(t *testing.T) {
	p := &mockPipeline{}
	h := newTestServer(t, p)

	w := doJSON(t, h, http.MethodPost, "/query", `{"question": "Which cacti bloom at night?", "top_k": 3}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, p.lastTopK)
	assert.Equal(t, "Which cacti bloom at night?", p.lastQuestion)
}

func TestQuery_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"malformed json", `{"question": `},
		{"unknown field", `{"question": "What is a saguaro?", "bogus": 1}`},
		{"question too short", `{"question": "hi"}`},
		{"question only whitespace", `{"question": "    "}`},
		{"top_k zero", `{"question": "What is a saguaro?", "top_k": 0}`},
		{"top_k negative", `{"question": "What is a saguaro?", "top_k": -2}`},
		{"top_k above maximum", `{"question": "What is a saguaro?", "top_k": 11}`},
	}

	p := &mockPipeline{}
	h := newTestServer(t, p)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, h, http.MethodPost, "/query", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)

			var body errorBody
			decodeBody(t, w, &body)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestQuery_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"store unavailable", vectorstore.ErrUnavailable, http.StatusServiceUnavailable},
		{"collection missing", vectorstore.ErrCollectionNotFound, http.StatusServiceUnavailable},
		{"bad request from store", vectorstore.ErrBadRequest, http.StatusBadRequest},
		{"unexpected failure", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(t, &mockPipeline{answerErr: tt.err})
			w := doJSON(t, h, http.MethodPost, "/query", `{"question": "What is a saguaro?"}`)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestSearch(t *testing.T) {
	longContent := strings.Repeat("x", 600)
	p := &mockPipeline{
		results: []plants.RetrievalResult{
			{Document: plants.Document{ID: "a", Title: "Saguaro", Content: longContent, Type: "species", Source: "iNaturalist"}, Score: 0.9, Rank: 1},
			{Document: plants.Document{ID: "b", Title: "Ocotillo", Content: "short"}, Score: 0.7, Rank: 2},
		},
	}
	h := newTestServer(t, p)

	w := doJSON(t, h, http.MethodPost, "/search", `{"question": "tall cactus"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var body searchResponse
	decodeBody(t, w, &body)
	assert.Equal(t, "tall cactus", body.Query)
	assert.Equal(t, 2, body.Count)
	require.Len(t, body.Results, 2)

	assert.Len(t, body.Results[0].Content, maxSnippetLength+len("..."), "long content is truncated")
	assert.True(t, strings.HasSuffix(body.Results[0].Content, "..."))
	assert.Equal(t, "short", body.Results[1].Content)
	assert.Equal(t, "iNaturalist", body.Results[0].Source)
	assert.False(t, body.Timestamp.IsZero())
}

func TestSearch_EmptyResults(t *testing.T) {
	h := newTestServer(t, &mockPipeline{})

	w := doJSON(t, h, http.MethodPost, "/search", `{"question": "underwater kelp"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var body searchResponse
	decodeBody(t, w, &body)
	assert.Zero(t, body.Count)
	assert.Empty(t, body.Results)
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		pipeline   *mockPipeline
		wantStatus string
		wantConn   bool
		wantExists bool
		wantCount  uint64
	}{
		{
			name:       "healthy",
			pipeline:   &mockPipeline{healthy: true, collStats: plants.CollectionStats{Count: 40}},
			wantStatus: "healthy",
			wantConn:   true,
			wantExists: true,
			wantCount:  40,
		},
		{
			name:       "store unreachable",
			pipeline:   &mockPipeline{healthy: false},
			wantStatus: "degraded",
		},
		{
			name:       "collection missing",
			pipeline:   &mockPipeline{healthy: true, statsErr: vectorstore.ErrCollectionNotFound},
			wantStatus: "degraded",
			wantConn:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(t, tt.pipeline)
			w := doJSON(t, h, http.MethodGet, "/health", "")
			require.Equal(t, http.StatusOK, w.Code, "health always answers 200")

			var body healthResponse
			decodeBody(t, w, &body)
			assert.Equal(t, tt.wantStatus, body.Status)
			assert.Equal(t, tt.wantConn, body.QdrantConnected)
			assert.Equal(t, tt.wantExists, body.CollectionExists)
			assert.Equal(t, tt.wantCount, body.DocumentCount)
			assert.False(t, body.Timestamp.IsZero())
		})
	}
}

func TestStats(t *testing.T) {
	h := newTestServer(t, &mockPipeline{
		collStats: plants.CollectionStats{Count: 40, Dimension: 384, Status: "green"},
	})

	w := doJSON(t, h, http.MethodGet, "/stats", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body statsResponse
	decodeBody(t, w, &body)
	assert.Equal(t, "arizona_plants", body.CollectionName)
	assert.Equal(t, uint64(40), body.DocumentCount)
	assert.Equal(t, 384, body.VectorDimension)
	assert.Equal(t, "green", body.Status)
	assert.Equal(t, "all-minilm:l6-v2", body.EmbeddingModel)
}

func TestStats_StoreDown(t *testing.T) {
	h := newTestServer(t, &mockPipeline{statsErr: vectorstore.ErrUnavailable})

	w := doJSON(t, h, http.MethodGet, "/stats", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRoot(t *testing.T) {
	h := newTestServer(t, &mockPipeline{})

	w := doJSON(t, h, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	decodeBody(t, w, &body)
	assert.Equal(t, "plantrag", body["service"])
}

func TestUnknownPath(t *testing.T) {
	h := newTestServer(t, &mockPipeline{})

	w := doJSON(t, h, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestServer(t, &mockPipeline{})

	w := doJSON(t, h, http.MethodGet, "/query", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestRecoveryMiddleware(t *testing.T) {
	panicking := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("handler bug")
	})
	h := recoveryMiddleware(log.NewNop())(panicking)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/query", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var body errorBody
	decodeBody(t, w, &body)
	assert.Equal(t, "internal_error", body.Error)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab...", truncate("abcdef", 2))
	assert.Equal(t, "日本...", truncate("日本語テキスト", 2), "truncation counts runes, not bytes")
}
