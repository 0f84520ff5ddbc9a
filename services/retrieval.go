package services

import (
	"context"
	"fmt"
	"strings"

	"agentic-context/internal/ai"
	"agentic-context/internal/logger"
	"agentic-context/internal/telemetry"
	"agentic-context/internal/vectorstore"

	"go.uber.org/zap"
)

const (
	DefaultTopK = 5
	MinTopK     = 1
	MaxTopK     = 20
)

// SearchType selects how candidates are ranked.
type SearchType string

const (
	SearchMMR        SearchType = "mmr"
	SearchSimilarity SearchType = "similarity"
)

// ClampTopK returns DefaultTopK for nil and otherwise bounds topK to [MinTopK, MaxTopK].
func ClampTopK(topK *int) int {
	if topK == nil {
		return DefaultTopK
	}
	return max(MinTopK, min(*topK, MaxTopK))
}

// RetrieveResult holds chunk texts in ranking order with their metadata.
type RetrieveResult struct {
	Chunks   []string
	Metadata []vectorstore.ChunkMetadata
}

// RetrievalService finds the chunks of a tenant most relevant to a query.
type RetrievalService struct {
	embedder ai.Embedder
	store    vectorstore.Store
	fetchK   int
	lambda   float64
	metrics  *telemetry.Metrics
}

// NewRetrievalService builds a retriever. fetchK caps the MMR candidate pool
// and lambda weights relevance against diversity.
func NewRetrievalService(embedder ai.Embedder, store vectorstore.Store, fetchK int, lambda float64, metrics *telemetry.Metrics) *RetrievalService {
	return &RetrievalService{
		embedder: embedder,
		store:    store,
		fetchK:   fetchK,
		lambda:   lambda,
		metrics:  metrics,
	}
}

// Retrieve returns up to topK chunks for query from agentID's collection.
// An empty or missing collection gives an empty result.
func (s *RetrievalService) Retrieve(ctx context.Context, query, agentID string, topK int, searchType SearchType) (*RetrieveResult, error) {
	const op = "retrieve"

	if strings.TrimSpace(query) == "" {
		return nil, invalidInput(op, "query is required")
	}
	if err := validateAgentID(agentID); err != nil {
		return nil, &Error{Op: op, Kind: KindInvalidInput, Err: err}
	}
	if searchType == "" {
		searchType = SearchMMR
	}
	if searchType != SearchMMR && searchType != SearchSimilarity {
		return nil, invalidInput(op, "search_type must be %q or %q", SearchMMR, SearchSimilarity)
	}
	topK = max(MinTopK, min(topK, MaxTopK))

	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, upstream(op, err)
	}

	k := topK
	if searchType == SearchMMR {
		k = min(s.fetchK, 2*topK)
	}

	candidates, err := s.store.Search(ctx, CollectionName(agentID), vector, k)
	s.metrics.RecordVectorStoreOperation(ctx, "search", s.store.Backend(), err == nil)
	if err != nil {
		return nil, upstream(op, fmt.Errorf("searching collection: %w", err))
	}

	order := make([]int, 0, len(candidates))
	if searchType == SearchMMR {
		embeddings := make([][]float32, len(candidates))
		for i, c := range candidates {
			embeddings[i] = c.Embedding
		}
		order = MaximalMarginalRelevance(vector, embeddings, topK, s.lambda)
	} else {
		for i := 0; i < min(topK, len(candidates)); i++ {
			order = append(order, i)
		}
	}

	result := &RetrieveResult{
		Chunks:   make([]string, 0, len(order)),
		Metadata: make([]vectorstore.ChunkMetadata, 0, len(order)),
	}
	for _, idx := range order {
		result.Chunks = append(result.Chunks, candidates[idx].Content)
		result.Metadata = append(result.Metadata, candidates[idx].Metadata)
	}

	s.metrics.RecordRetrieval(ctx, string(searchType), len(result.Chunks))
	logger.Debug("retrieved chunks",
		zap.String("agent_id", agentID),
		zap.String("search_type", string(searchType)),
		zap.Int("top_k", topK),
		zap.Int("candidates", len(candidates)),
		zap.Int("results", len(result.Chunks)),
	)
	return result, nil
}
