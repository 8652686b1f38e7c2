// Package plants defines the domain types shared across the retrieval
// pipeline: documents, retrieval results, and answer responses.
package plants

import "time"

// Document is one entry of the desert-plant corpus.
// Documents are immutable once ingested; only re-ingestion replaces them.
// Metadata must be map[string]string so it round-trips through the vector
// store payload without type surprises.
type Document struct {
	ID       string            `json:"id"`
	Title    string            `json:"title"`
	Content  string            `json:"content"`
	Source   string            `json:"source"` // e.g. "iNaturalist", "Extension"
	Type     string            `json:"type"`   // e.g. "species", "care-guide"
	Metadata map[string]string `json:"metadata,omitempty"`
}

// RetrievalResult pairs a document with its similarity score for one query.
// Rank is 1-based. Transient: produced per query, never persisted.
type RetrievalResult struct {
	Document Document `json:"document"`
	Score    float32  `json:"score"`
	Rank     int      `json:"rank"`
}

// AnswerResponse is the assembled output of the full RAG pipeline.
type AnswerResponse struct {
	Question  string            `json:"question"`
	Answer    string            `json:"answer"`
	Retrieved []RetrievalResult `json:"retrieved_documents"`
	Timestamp time.Time         `json:"timestamp"`
	Model     string            `json:"model"`
}

// CollectionStats describes the state of the vector-store collection.
type CollectionStats struct {
	Count     uint64 `json:"document_count"`
	Dimension int    `json:"vector_dimension"`
	Status    string `json:"status"`
}

// EmbeddingText returns the text embedded for a document: title and content
// combined, with the title first so it carries more weight.
func (d Document) EmbeddingText() string {
	if d.Title == "" {
		return d.Content
	}
	return d.Title + "\n\n" + d.Content
}
