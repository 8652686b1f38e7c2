package vectorstore

import (
	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/desertflora/plantrag/internal/plants"
)

// pointNamespace seeds deterministic point IDs so re-ingesting a document
// overwrites its previous record instead of duplicating it.
var pointNamespace = uuid.MustParse("8e2d6a4e-3b1f-4f6c-9d7a-2c5e8b0f1a39")

// pointID derives a stable UUID for a document id. Qdrant point ids must be
// unsigned integers or UUIDs, so free-form document ids go through SHA-1.
func pointID(docID string) string {
	return uuid.NewSHA1(pointNamespace, []byte(docID)).String()
}

// documentPayload flattens a document into the payload stored alongside its
// vector. The original document id lives in the payload because the point id
// is a derived UUID.
func documentPayload(doc plants.Document) map[string]any {
	payload := map[string]any{
		"id":      doc.ID,
		"title":   doc.Title,
		"content": doc.Content,
		"type":    doc.Type,
		"source":  doc.Source,
	}
	if len(doc.Metadata) > 0 {
		meta := make(map[string]any, len(doc.Metadata))
		for k, v := range doc.Metadata {
			meta[k] = v
		}
		payload["metadata"] = meta
	}
	return payload
}

// documentFromPayload maps a stored payload back into Document shape.
// Missing fields become zero values rather than errors; the store is the
// source of truth and the query path must tolerate older payloads.
func documentFromPayload(payload map[string]*qdrant.Value) plants.Document {
	doc := plants.Document{
		ID:      payload["id"].GetStringValue(),
		Title:   payload["title"].GetStringValue(),
		Content: payload["content"].GetStringValue(),
		Type:    payload["type"].GetStringValue(),
		Source:  payload["source"].GetStringValue(),
	}

	if meta := payload["metadata"].GetStructValue(); meta != nil {
		fields := meta.GetFields()
		if len(fields) > 0 {
			doc.Metadata = make(map[string]string, len(fields))
			for k, v := range fields {
				doc.Metadata[k] = v.GetStringValue()
			}
		}
	}

	return doc
}
