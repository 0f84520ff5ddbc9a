// Package vectorstore persists chunk embeddings in one collection per tenant
// and serves nearest-neighbour queries over them.
package vectorstore

import (
	"context"
	"errors"
	"fmt"

	"agentic-context/internal/config"

	"go.uber.org/zap"
)

var (
	// ErrEmptyDocuments is returned when AddDocuments is called with nothing to add.
	ErrEmptyDocuments = errors.New("no documents to add")

	// ErrMissingEmbedding is returned when a document has no precomputed vector.
	ErrMissingEmbedding = errors.New("document has no embedding")

	// ErrInvalidCollection is returned for an empty collection name.
	ErrInvalidCollection = errors.New("collection name must not be empty")
)

// ChunkMetadata is stored alongside every chunk.
type ChunkMetadata struct {
	AgentID    string `json:"agent_id"`
	ChunkIndex int    `json:"chunk_index"`
	StartIndex int    `json:"start_index"`
}

// Document is a chunk with its precomputed embedding.
type Document struct {
	ID        string
	Content   string
	Metadata  ChunkMetadata
	Embedding []float32
}

// SearchResult is a stored document plus its cosine similarity to the query vector.
type SearchResult struct {
	Document
	Score float32
}

// Store is implemented by every vector backend.
type Store interface {
	// AddDocuments writes docs into collection, creating it on first write.
	AddDocuments(ctx context.Context, collection string, docs []Document) error

	// Search returns up to k documents nearest to vector, most similar first,
	// with their embeddings populated. A missing or empty collection yields no
	// results and no error.
	Search(ctx context.Context, collection string, vector []float32, k int) ([]SearchResult, error)

	// DeleteCollection removes a collection and all its documents. Deleting a
	// missing collection is not an error.
	DeleteCollection(ctx context.Context, collection string) error

	// Backend names the implementation for logs and metrics.
	Backend() string

	Close() error
}

// New opens the backend selected by cfg.VectorStore.
func New(cfg *config.Config, logger *zap.Logger) (Store, error) {
	switch cfg.VectorStore {
	case "chromem", "":
		return NewChromemStore(ChromemConfig{
			Path:     cfg.VectorStoreDir,
			Compress: cfg.VectorStoreCompress,
		}, logger)
	case "qdrant":
		return NewQdrantStore(QdrantConfig{
			Host:   cfg.QdrantHost,
			Port:   cfg.QdrantPort,
			APIKey: cfg.QdrantAPIKey,
			UseTLS: cfg.QdrantUseTLS,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown vector store: %s", cfg.VectorStore)
	}
}

func validateDocuments(docs []Document) error {
	if len(docs) == 0 {
		return ErrEmptyDocuments
	}
	for i, doc := range docs {
		if len(doc.Embedding) == 0 {
			return fmt.Errorf("document at index %d: %w", i, ErrMissingEmbedding)
		}
	}
	return nil
}
