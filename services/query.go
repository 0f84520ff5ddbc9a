package services

import "context"

// Answer is the result of a query: the formatted context and the chunks it came from.
type Answer struct {
	Answer       string
	SourceChunks []string
}

// QueryService runs retrieval followed by formatting. The formatted context
// is returned as the answer; there is no separate answer-generation step.
type QueryService struct {
	retrieval  *RetrievalService
	formatting *FormattingService
}

func NewQueryService(retrieval *RetrievalService, formatting *FormattingService) *QueryService {
	return &QueryService{retrieval: retrieval, formatting: formatting}
}

func (s *QueryService) Answer(ctx context.Context, query, agentID string) (*Answer, error) {
	retrieved, err := s.retrieval.Retrieve(ctx, query, agentID, DefaultTopK, SearchMMR)
	if err != nil {
		return nil, err
	}

	formatted, err := s.formatting.Format(ctx, retrieved.Chunks)
	if err != nil {
		return nil, err
	}

	return &Answer{Answer: formatted, SourceChunks: retrieved.Chunks}, nil
}
