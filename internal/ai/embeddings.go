package ai

import (
	"context"
	"errors"
	"fmt"

	"agentic-context/internal/config"

	"github.com/google/generative-ai-go/genai"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/api/option"
)

var tracer = otel.Tracer("agentic-context/ai")

// Embedder turns text into vectors.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// NewEmbedder returns the embedder for cfg.EmbeddingsProvider.
// Default provider is OpenAI (text-embedding-3-small).
func NewEmbedder(ctx context.Context, cfg *config.Config) (Embedder, error) {
	switch cfg.EmbeddingsProvider {
	case "openai", "":
		return NewOpenAIEmbedder(cfg)
	case "google":
		return NewGoogleEmbedder(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown embeddings provider: %s", cfg.EmbeddingsProvider)
	}
}

// OpenAIEmbedder calls the OpenAI embeddings API through langchaingo.
type OpenAIEmbedder struct {
	embedder *embeddings.EmbedderImpl
	model    string
}

func NewOpenAIEmbedder(cfg *config.Config) (*OpenAIEmbedder, error) {
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY for embeddings")
	}

	opts := []openai.Option{
		openai.WithToken(cfg.OpenAIAPIKey),
		openai.WithEmbeddingModel(cfg.OpenAIEmbeddingsModel),
	}
	if cfg.OpenAIBaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.OpenAIBaseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating OpenAI client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	return &OpenAIEmbedder{embedder: embedder, model: cfg.OpenAIEmbeddingsModel}, nil
}

func (e *OpenAIEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, span := tracer.Start(ctx, "openai.embed_documents")
	defer span.End()
	span.SetAttributes(
		attribute.String("embeddings.model", e.model),
		attribute.Int("embeddings.count", len(texts)),
	)

	vectors, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("embedding documents: %w", err)
	}
	return vectors, nil
}

func (e *OpenAIEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	ctx, span := tracer.Start(ctx, "openai.embed_query")
	defer span.End()
	span.SetAttributes(attribute.String("embeddings.model", e.model))

	vector, err := e.embedder.EmbedQuery(ctx, text)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	return vector, nil
}

// GoogleEmbedder calls the Google Generative AI embedding model.
type GoogleEmbedder struct {
	client *genai.Client
	model  string
}

// maxGoogleBatch is the per-request limit of BatchEmbedContents.
const maxGoogleBatch = 100

func NewGoogleEmbedder(ctx context.Context, cfg *config.Config) (*GoogleEmbedder, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY for embeddings")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return &GoogleEmbedder{client: client, model: cfg.GoogleEmbeddingsModel}, nil
}

func (e *GoogleEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, span := tracer.Start(ctx, "google.embed_documents")
	defer span.End()
	span.SetAttributes(
		attribute.String("embeddings.model", e.model),
		attribute.Int("embeddings.count", len(texts)),
	)

	model := e.client.EmbeddingModel(e.model)
	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxGoogleBatch {
		end := min(start+maxGoogleBatch, len(texts))
		batch := model.NewBatch()
		for _, text := range texts[start:end] {
			batch.AddContent(genai.Text(text))
		}
		resp, err := model.BatchEmbedContents(ctx, batch)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("embedding documents: %w", err)
		}
		if len(resp.Embeddings) != end-start {
			return nil, fmt.Errorf("embedding documents: got %d embeddings for %d texts", len(resp.Embeddings), end-start)
		}
		for _, emb := range resp.Embeddings {
			vectors = append(vectors, emb.Values)
		}
	}
	return vectors, nil
}

func (e *GoogleEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	ctx, span := tracer.Start(ctx, "google.embed_query")
	defer span.End()
	span.SetAttributes(attribute.String("embeddings.model", e.model))

	resp, err := e.client.EmbeddingModel(e.model).EmbedContent(ctx, genai.Text(text))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if resp.Embedding == nil {
		return nil, errors.New("no embedding returned")
	}

	// genai SDK returns []float32 for Embedding.Values
	return resp.Embedding.Values, nil
}

func (e *GoogleEmbedder) Close() error {
	return e.client.Close()
}
