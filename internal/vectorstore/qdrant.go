package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/qdrant/go-client/qdrant"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var qdrantTracer = otel.Tracer("agentic-context/vectorstore/qdrant")

const payloadContent = "content"

// QdrantConfig holds connection settings for a Qdrant server (gRPC port).
type QdrantConfig struct {
	Host   string
	Port   int
	APIKey string
	UseTLS bool
}

// QdrantStore implements Store on a remote Qdrant server. Collections use
// cosine distance and are sized from the first batch written to them.
type QdrantStore struct {
	client *qdrant.Client
	logger *zap.Logger

	// createMu serializes lazy collection creation.
	createMu sync.Mutex
	known    sync.Map
}

func NewQdrantStore(cfg QdrantConfig, logger *zap.Logger) (*QdrantStore, error) {
	if cfg.Host == "" {
		return nil, errors.New("qdrant: host is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:                   cfg.Host,
		Port:                   cfg.Port,
		APIKey:                 cfg.APIKey,
		UseTLS:                 cfg.UseTLS,
		SkipCompatibilityCheck: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}

	logger.Info("qdrant vector store configured",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
	)

	return &QdrantStore{client: client, logger: logger}, nil
}

func (s *QdrantStore) Backend() string { return "qdrant" }

func (s *QdrantStore) ensureCollection(ctx context.Context, name string, vectorSize int) error {
	if _, ok := s.known.Load(name); ok {
		return nil
	}

	s.createMu.Lock()
	defer s.createMu.Unlock()

	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("checking collection %s: %w", name, err)
	}
	if !exists {
		err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: name,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(vectorSize),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("creating collection %s: %w", name, err)
		}
		s.logger.Info("created qdrant collection",
			zap.String("collection", name),
			zap.Int("vector_size", vectorSize),
		)
	}

	s.known.Store(name, true)
	return nil
}

func (s *QdrantStore) AddDocuments(ctx context.Context, collectionName string, docs []Document) error {
	ctx, span := qdrantTracer.Start(ctx, "QdrantStore.AddDocuments")
	defer span.End()

	span.SetAttributes(
		attribute.String("collection", collectionName),
		attribute.Int("document_count", len(docs)),
	)

	if collectionName == "" {
		return ErrInvalidCollection
	}
	if err := validateDocuments(docs); err != nil {
		return err
	}

	if err := s.ensureCollection(ctx, collectionName, len(docs[0].Embedding)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	points := make([]*qdrant.PointStruct, len(docs))
	for i, doc := range docs {
		point, err := pointFromDocument(doc)
		if err != nil {
			return fmt.Errorf("document at index %d: %w", i, err)
		}
		points[i] = point
	}

	wait := true
	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collectionName,
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("upserting points: %w", err)
	}

	span.SetStatus(codes.Ok, "success")
	s.logger.Debug("added documents to qdrant",
		zap.String("collection", collectionName),
		zap.Int("count", len(docs)),
	)
	return nil
}

func (s *QdrantStore) Search(ctx context.Context, collectionName string, vector []float32, k int) ([]SearchResult, error) {
	ctx, span := qdrantTracer.Start(ctx, "QdrantStore.Search")
	defer span.End()

	span.SetAttributes(
		attribute.String("collection", collectionName),
		attribute.Int("k", k),
	)

	if collectionName == "" {
		return nil, ErrInvalidCollection
	}
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	exists, err := s.client.CollectionExists(ctx, collectionName)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("checking collection %s: %w", collectionName, err)
	}
	if !exists {
		span.SetStatus(codes.Ok, "collection not found")
		return []SearchResult{}, nil
	}

	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collectionName,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(true),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("searching collection %s: %w", collectionName, err)
	}

	out := make([]SearchResult, 0, len(points))
	for _, point := range points {
		out = append(out, resultFromPoint(point))
	}

	span.SetAttributes(attribute.Int("results_count", len(out)))
	span.SetStatus(codes.Ok, "success")
	return out, nil
}

func (s *QdrantStore) DeleteCollection(ctx context.Context, collectionName string) error {
	ctx, span := qdrantTracer.Start(ctx, "QdrantStore.DeleteCollection")
	defer span.End()

	span.SetAttributes(attribute.String("collection", collectionName))

	if collectionName == "" {
		return ErrInvalidCollection
	}

	s.createMu.Lock()
	defer s.createMu.Unlock()

	exists, err := s.client.CollectionExists(ctx, collectionName)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("checking collection %s: %w", collectionName, err)
	}
	if exists {
		if err := s.client.DeleteCollection(ctx, collectionName); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return fmt.Errorf("deleting collection %s: %w", collectionName, err)
		}
	}
	s.known.Delete(collectionName)

	span.SetStatus(codes.Ok, "success")
	s.logger.Info("deleted qdrant collection", zap.String("collection", collectionName))
	return nil
}

func (s *QdrantStore) Close() error {
	return s.client.Close()
}

func pointFromDocument(doc Document) (*qdrant.PointStruct, error) {
	payload, err := qdrant.TryValueMap(map[string]any{
		payloadContent: doc.Content,
		metaAgentID:    doc.Metadata.AgentID,
		metaChunkIndex: doc.Metadata.ChunkIndex,
		metaStartIndex: doc.Metadata.StartIndex,
	})
	if err != nil {
		return nil, fmt.Errorf("building payload: %w", err)
	}
	return &qdrant.PointStruct{
		Id:      qdrant.NewIDUUID(doc.ID),
		Vectors: qdrant.NewVectors(doc.Embedding...),
		Payload: payload,
	}, nil
}

func resultFromPoint(point *qdrant.ScoredPoint) SearchResult {
	return SearchResult{
		Document: Document{
			ID:      point.GetId().GetUuid(),
			Content: getPayloadString(point.GetPayload(), payloadContent),
			Metadata: ChunkMetadata{
				AgentID:    getPayloadString(point.GetPayload(), metaAgentID),
				ChunkIndex: int(getPayloadInt(point.GetPayload(), metaChunkIndex)),
				StartIndex: int(getPayloadInt(point.GetPayload(), metaStartIndex)),
			},
			Embedding: extractVector(point.GetVectors()),
		},
		Score: point.GetScore(),
	}
}

func getPayloadString(payload map[string]*qdrant.Value, key string) string {
	val, ok := payload[key]
	if !ok || val == nil {
		return ""
	}
	return val.GetStringValue()
}

func getPayloadInt(payload map[string]*qdrant.Value, key string) int64 {
	val, ok := payload[key]
	if !ok || val == nil {
		return 0
	}
	return val.GetIntegerValue()
}

func extractVector(vectors *qdrant.VectorsOutput) []float32 {
	if vectors == nil {
		return nil
	}
	if vec := vectors.GetVector(); vec != nil {
		if dense := vec.GetDense(); dense != nil {
			return dense.GetData()
		}
		// Older servers fill the flat data field only.
		return vec.GetData()
	}
	return nil
}

var _ Store = (*QdrantStore)(nil)
