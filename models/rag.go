package models

// UploadResponse is returned after a document has been indexed.
type UploadResponse struct {
	AgentID    string `json:"agent_id"`
	Filename   string `json:"filename"`
	ChunkCount int    `json:"chunk_count"`
}

// RetrieveRequest asks for the chunks of one tenant most relevant to a query.
// TopK defaults to 5 and is clamped to [1, 20]. SearchType is "mmr" (default)
// or "similarity".
type RetrieveRequest struct {
	Query      string `json:"query" binding:"required"`
	AgentID    string `json:"agent_id" binding:"required"`
	TopK       *int   `json:"top_k,omitempty"`
	SearchType string `json:"search_type,omitempty"`
}

// ChunkMetadata is the metadata stored with every chunk.
type ChunkMetadata struct {
	AgentID    string `json:"agent_id"`
	ChunkIndex int    `json:"chunk_index"`
	StartIndex int    `json:"start_index"`
}

type RetrieveResponse struct {
	Chunks   []string        `json:"chunks"`
	Metadata []ChunkMetadata `json:"metadata"`
}

type FormatRequest struct {
	Chunks []string `json:"chunks"`
}

type FormatResponse struct {
	FormattedContext string `json:"formatted_context"`
}

type QueryRequest struct {
	Query   string `json:"query" binding:"required"`
	AgentID string `json:"agent_id" binding:"required"`
}

type QueryResponse struct {
	Answer       string   `json:"answer"`
	SourceChunks []string `json:"source_chunks"`
}

type DeleteAgentResponse struct {
	AgentID string `json:"agent_id"`
	Deleted bool   `json:"deleted"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
