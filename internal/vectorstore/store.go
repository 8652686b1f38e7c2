// Package vectorstore wraps the Qdrant client behind the operations the
// retrieval pipeline needs: idempotent collection setup, batched upserts,
// similarity search, and collection stats.
//
// Error taxonomy: connectivity failures surface as ErrUnavailable
// (retryable); a missing collection surfaces as ErrCollectionNotFound and a
// malformed request as ErrBadRequest (both terminal). See errors.go.
package vectorstore

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"

	"github.com/desertflora/plantrag/internal/log"
	"github.com/desertflora/plantrag/internal/plants"
)

// Record is one (document, vector) pair to persist.
type Record struct {
	Document plants.Document
	Vector   []float32
}

// Config holds the connection and collection settings for a Store.
type Config struct {
	Host       string
	Port       int
	APIKey     string
	Collection string
	Dimension  int
}

// Store manages the desert-plant collection in Qdrant.
// Safe for concurrent use; the underlying client multiplexes one gRPC
// channel across requests.
type Store struct {
	client     *qdrant.Client
	collection string
	dimension  int
	logger     log.Logger
}

// New connects to Qdrant and returns a Store.
// Connection establishment is lazy in gRPC; failures surface on first call.
func New(cfg Config, logger log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.NewNop()
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("creating qdrant client: %w", err)
	}

	return &Store{
		client:     client,
		collection: cfg.Collection,
		dimension:  cfg.Dimension,
		logger:     logger,
	}, nil
}

// EnsureCollection creates the collection if it does not exist. Idempotent.
// Cosine distance matches the embedding model's training objective.
func (s *Store) EnsureCollection(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return classify("checking collection", err)
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(s.dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return classify("creating collection", err)
	}

	s.logger.Info("created collection", "name", s.collection, "dimension", s.dimension)
	return nil
}

// Recreate drops and recreates the collection. Used by ingestion for a
// fresh start; never called on the query path.
func (s *Store) Recreate(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return classify("checking collection", err)
	}
	if exists {
		if err := s.client.DeleteCollection(ctx, s.collection); err != nil {
			return classify("deleting collection", err)
		}
		s.logger.Info("deleted existing collection", "name", s.collection)
	}
	return s.EnsureCollection(ctx)
}

// Upsert writes records keyed by document id; existing ids are overwritten.
// The write waits for the store to acknowledge persistence.
func (s *Store) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, len(records))
	for i, rec := range records {
		if len(rec.Vector) != s.dimension {
			return fmt.Errorf("%w: record %q has dimension %d, collection expects %d",
				ErrBadRequest, rec.Document.ID, len(rec.Vector), s.dimension)
		}
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(pointID(rec.Document.ID)),
			Vectors: qdrant.NewVectors(rec.Vector...),
			Payload: qdrant.NewValueMap(documentPayload(rec.Document)),
		}
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return classify("upserting points", err)
	}

	s.logger.Debug("upserted records", "count", len(records))
	return nil
}

// Search returns up to topK records ordered by descending similarity.
// Ties are broken by store-internal order, which is not guaranteed stable
// across calls. An empty collection yields an empty slice, not an error.
func (s *Store) Search(ctx context.Context, vector []float32, topK int) ([]plants.RetrievalResult, error) {
	if topK < 1 {
		return nil, fmt.Errorf("%w: top_k must be positive, got %d", ErrBadRequest, topK)
	}

	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, classify("searching points", err)
	}

	results := make([]plants.RetrievalResult, 0, len(points))
	for i, point := range points {
		results = append(results, plants.RetrievalResult{
			Document: documentFromPayload(point.GetPayload()),
			Score:    point.GetScore(),
			Rank:     i + 1,
		})
	}
	return results, nil
}

// Stats returns the collection's document count, configured dimension, and
// status.
func (s *Store) Stats(ctx context.Context) (plants.CollectionStats, error) {
	info, err := s.client.GetCollectionInfo(ctx, s.collection)
	if err != nil {
		return plants.CollectionStats{}, classify("fetching collection info", err)
	}

	dim := s.dimension
	if params := info.GetConfig().GetParams().GetVectorsConfig().GetParams(); params != nil {
		dim = int(params.GetSize())
	}

	return plants.CollectionStats{
		Count:     info.GetPointsCount(),
		Dimension: dim,
		Status:    info.GetStatus().String(),
	}, nil
}

// Healthy reports whether the store answers its health check.
func (s *Store) Healthy(ctx context.Context) bool {
	_, err := s.client.HealthCheck(ctx)
	if err != nil {
		s.logger.Warn("qdrant health check failed", "error", err)
		return false
	}
	return true
}

// Close releases the gRPC channel.
func (s *Store) Close() error {
	return s.client.Close()
}
