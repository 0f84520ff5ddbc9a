package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"agentic-context/internal/ai"
	"agentic-context/internal/logger"
	"agentic-context/internal/telemetry"
	"agentic-context/internal/vectorstore"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AllowedExtensions lists the uploadable file types.
var AllowedExtensions = []string{".pdf", ".txt"}

// CollectionName is the vector collection that holds a tenant's chunks.
func CollectionName(agentID string) string {
	return "agent_" + agentID
}

// UploadFileName is the on-disk name of a tenant's raw upload.
func UploadFileName(agentID, filename string) string {
	return fmt.Sprintf("agent_%s-%s", agentID, filepath.Base(filename))
}

// IngestionService validates, stores, extracts, splits and indexes uploads.
type IngestionService struct {
	uploadDir string
	loader    *DocumentLoader
	splitter  *TextSplitter
	embedder  ai.Embedder
	store     vectorstore.Store
	metrics   *telemetry.Metrics
}

func NewIngestionService(uploadDir string, loader *DocumentLoader, splitter *TextSplitter, embedder ai.Embedder, store vectorstore.Store, metrics *telemetry.Metrics) *IngestionService {
	return &IngestionService{
		uploadDir: uploadDir,
		loader:    loader,
		splitter:  splitter,
		embedder:  embedder,
		store:     store,
		metrics:   metrics,
	}
}

// ValidateUpload checks the tenant id and file extension before anything is
// written, and returns the lower-case extension.
func ValidateUpload(filename, agentID string) (string, error) {
	const op = "ingest"

	if err := validateAgentID(agentID); err != nil {
		return "", &Error{Op: op, Kind: KindInvalidInput, Err: err}
	}

	base := filepath.Base(filename)
	if filename == "" || base == "." || base == string(filepath.Separator) {
		return "", invalidInput(op, "filename is required")
	}

	ext := strings.ToLower(filepath.Ext(base))
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return ext, nil
		}
	}
	return "", invalidInput(op, "File type not allowed. Allowed types: %s", strings.Join(AllowedExtensions, ", "))
}

func validateAgentID(agentID string) error {
	if strings.TrimSpace(agentID) == "" {
		return fmt.Errorf("agent_id is required")
	}
	if strings.ContainsAny(agentID, `/\`) || strings.Contains(agentID, "..") {
		return fmt.Errorf("agent_id must not contain path separators")
	}
	return nil
}

// Ingest stores content for agentID and returns the number of chunks indexed.
func (s *IngestionService) Ingest(ctx context.Context, content []byte, filename, agentID string) (int, error) {
	const op = "ingest"
	start := time.Now()

	ext, err := ValidateUpload(filename, agentID)
	if err != nil {
		return 0, err
	}

	count, err := s.ingest(ctx, op, ext, content, filename, agentID)
	s.metrics.RecordIngest(ctx, ext, count, time.Since(start).Seconds(), err == nil)
	if err != nil {
		logger.Error("ingestion failed",
			zap.String("agent_id", agentID),
			zap.String("filename", filename),
			zap.Error(err),
		)
		return 0, err
	}

	logger.Info("document ingested",
		zap.String("agent_id", agentID),
		zap.String("filename", filename),
		zap.Int("chunk_count", count),
		zap.Duration("duration", time.Since(start)),
	)
	return count, nil
}

func (s *IngestionService) ingest(ctx context.Context, op, ext string, content []byte, filename, agentID string) (int, error) {
	if _, err := s.saveFile(content, filename, agentID); err != nil {
		return 0, upstream(op, err)
	}

	text, err := s.loader.Load(ext, content)
	if err != nil {
		return 0, upstream(op, fmt.Errorf("extracting text: %w", err))
	}

	chunks, err := s.splitter.Split(text)
	if err != nil {
		return 0, upstream(op, err)
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return 0, upstream(op, err)
	}
	if len(vectors) != len(chunks) {
		return 0, upstream(op, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks)))
	}

	docs := make([]vectorstore.Document, len(chunks))
	for i, c := range chunks {
		docs[i] = vectorstore.Document{
			ID:      uuid.NewString(),
			Content: c.Text,
			Metadata: vectorstore.ChunkMetadata{
				AgentID:    agentID,
				ChunkIndex: i,
				StartIndex: c.StartIndex,
			},
			Embedding: vectors[i],
		}
	}

	err = s.store.AddDocuments(ctx, CollectionName(agentID), docs)
	s.metrics.RecordVectorStoreOperation(ctx, "add", s.store.Backend(), err == nil)
	if err != nil {
		return 0, upstream(op, err)
	}
	return len(docs), nil
}

func (s *IngestionService) saveFile(content []byte, filename, agentID string) (string, error) {
	if err := os.MkdirAll(s.uploadDir, 0755); err != nil {
		return "", fmt.Errorf("creating upload directory: %w", err)
	}
	path := filepath.Join(s.uploadDir, UploadFileName(agentID, filename))
	if err := os.WriteFile(path, content, 0600); err != nil {
		return "", fmt.Errorf("saving upload: %w", err)
	}
	return path, nil
}
