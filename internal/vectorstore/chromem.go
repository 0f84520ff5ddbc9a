package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	chromem "github.com/philippgille/chromem-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var chromemTracer = otel.Tracer("agentic-context/vectorstore/chromem")

const (
	metaAgentID    = "agent_id"
	metaChunkIndex = "chunk_index"
	metaStartIndex = "start_index"
)

// errNoEmbeddingFunc guards against chromem embedding text on its own.
// Every document and query arrives with a precomputed vector.
var errNoEmbeddingFunc = errors.New("chromem: embeddings must be precomputed")

// ChromemConfig holds configuration for the chromem-go embedded vector database.
type ChromemConfig struct {
	// Path is the directory for persistent storage.
	Path string

	// Compress enables gzip compression for stored data.
	Compress bool
}

// ChromemStore implements Store on an embedded, file-persisted chromem-go DB.
type ChromemStore struct {
	db     *chromem.DB
	logger *zap.Logger
}

func NewChromemStore(cfg ChromemConfig, logger *zap.Logger) (*ChromemStore, error) {
	if cfg.Path == "" {
		return nil, errors.New("chromem: path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := chromem.NewPersistentDB(cfg.Path, cfg.Compress)
	if err != nil {
		return nil, fmt.Errorf("opening chromem db at %s: %w", cfg.Path, err)
	}

	logger.Info("chromem vector store opened",
		zap.String("path", cfg.Path),
		zap.Int("collections", len(db.ListCollections())),
	)

	return &ChromemStore{db: db, logger: logger}, nil
}

func embeddingFunc() chromem.EmbeddingFunc {
	return func(context.Context, string) ([]float32, error) {
		return nil, errNoEmbeddingFunc
	}
}

func (s *ChromemStore) Backend() string { return "chromem" }

func (s *ChromemStore) AddDocuments(ctx context.Context, collectionName string, docs []Document) error {
	ctx, span := chromemTracer.Start(ctx, "ChromemStore.AddDocuments")
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

	collection, err := s.db.GetOrCreateCollection(collectionName, nil, embeddingFunc())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("getting/creating collection %s: %w", collectionName, err)
	}

	chromemDocs := make([]chromem.Document, len(docs))
	for i, doc := range docs {
		chromemDocs[i] = chromem.Document{
			ID:        doc.ID,
			Content:   doc.Content,
			Metadata:  metadataToChromem(doc.Metadata),
			Embedding: doc.Embedding,
		}
	}

	// Concurrency of 1 since embeddings are already computed.
	if err := collection.AddDocuments(ctx, chromemDocs, 1); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("adding documents: %w", err)
	}

	span.SetStatus(codes.Ok, "success")
	s.logger.Debug("added documents to chromem",
		zap.String("collection", collectionName),
		zap.Int("count", len(docs)),
	)
	return nil
}

func (s *ChromemStore) Search(ctx context.Context, collectionName string, vector []float32, k int) ([]SearchResult, error) {
	ctx, span := chromemTracer.Start(ctx, "ChromemStore.Search")
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

	collection := s.db.GetCollection(collectionName, embeddingFunc())
	if collection == nil {
		span.SetStatus(codes.Ok, "collection not found")
		return []SearchResult{}, nil
	}

	// chromem rejects nResults greater than the document count.
	count := collection.Count()
	if count == 0 {
		span.SetStatus(codes.Ok, "empty collection")
		return []SearchResult{}, nil
	}
	if k > count {
		k = count
	}

	results, err := collection.QueryEmbedding(ctx, vector, k, nil, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("querying collection %s: %w", collectionName, err)
	}

	out := make([]SearchResult, 0, len(results))
	for _, r := range results {
		meta, err := metadataFromChromem(r.Metadata)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("document %s: %w", r.ID, err)
		}
		out = append(out, SearchResult{
			Document: Document{
				ID:        r.ID,
				Content:   r.Content,
				Metadata:  meta,
				Embedding: r.Embedding,
			},
			Score: r.Similarity,
		})
	}

	span.SetAttributes(attribute.Int("results_count", len(out)))
	span.SetStatus(codes.Ok, "success")
	return out, nil
}

func (s *ChromemStore) DeleteCollection(ctx context.Context, collectionName string) error {
	_, span := chromemTracer.Start(ctx, "ChromemStore.DeleteCollection")
	defer span.End()

	span.SetAttributes(attribute.String("collection", collectionName))

	if collectionName == "" {
		return ErrInvalidCollection
	}

	if err := s.db.DeleteCollection(collectionName); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("deleting collection %s: %w", collectionName, err)
	}

	span.SetStatus(codes.Ok, "success")
	s.logger.Info("deleted chromem collection", zap.String("collection", collectionName))
	return nil
}

// Close is a no-op; chromem persists on every write.
func (s *ChromemStore) Close() error {
	return nil
}

func metadataToChromem(m ChunkMetadata) map[string]string {
	return map[string]string{
		metaAgentID:    m.AgentID,
		metaChunkIndex: strconv.Itoa(m.ChunkIndex),
		metaStartIndex: strconv.Itoa(m.StartIndex),
	}
}

func metadataFromChromem(m map[string]string) (ChunkMetadata, error) {
	chunkIndex, err := strconv.Atoi(m[metaChunkIndex])
	if err != nil {
		return ChunkMetadata{}, fmt.Errorf("invalid %s metadata %q: %w", metaChunkIndex, m[metaChunkIndex], err)
	}
	startIndex, err := strconv.Atoi(m[metaStartIndex])
	if err != nil {
		return ChunkMetadata{}, fmt.Errorf("invalid %s metadata %q: %w", metaStartIndex, m[metaStartIndex], err)
	}
	return ChunkMetadata{
		AgentID:    m[metaAgentID],
		ChunkIndex: chunkIndex,
		StartIndex: startIndex,
	}, nil
}

// Ensure ChromemStore implements Store interface.
var _ Store = (*ChromemStore)(nil)
