package services

import (
	"context"

	"agentic-context/internal/logger"
	"agentic-context/internal/telemetry"
	"agentic-context/internal/vectorstore"

	"go.uber.org/zap"
)

// AgentService manages whole tenant collections.
type AgentService struct {
	store   vectorstore.Store
	metrics *telemetry.Metrics
}

func NewAgentService(store vectorstore.Store, metrics *telemetry.Metrics) *AgentService {
	return &AgentService{store: store, metrics: metrics}
}

// Delete drops every chunk of agentID. Raw uploads on disk are kept.
func (s *AgentService) Delete(ctx context.Context, agentID string) error {
	const op = "delete_agent"

	if err := validateAgentID(agentID); err != nil {
		return &Error{Op: op, Kind: KindInvalidInput, Err: err}
	}

	err := s.store.DeleteCollection(ctx, CollectionName(agentID))
	s.metrics.RecordVectorStoreOperation(ctx, "delete_collection", s.store.Backend(), err == nil)
	if err != nil {
		return upstream(op, err)
	}

	logger.Info("agent collection deleted", zap.String("agent_id", agentID))
	return nil
}
