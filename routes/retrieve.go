package routes

import (
	"net/http"

	"agentic-context/middleware"
	"agentic-context/models"
	"agentic-context/services"
	"agentic-context/utils"

	"github.com/gin-gonic/gin"
)

// HandleRetrieve returns the chunks of a tenant most relevant to a query.
func HandleRetrieve(retrieval *services.RetrievalService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.RetrieveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}
		c.Set(middleware.AgentIDKey, req.AgentID)

		res, err := retrieval.Retrieve(
			c.Request.Context(),
			req.Query,
			req.AgentID,
			services.ClampTopK(req.TopK),
			services.SearchType(req.SearchType),
		)
		if err != nil {
			respondWithServiceError(c, err, "Error retrieving chunks")
			return
		}

		metadata := make([]models.ChunkMetadata, len(res.Metadata))
		for i, m := range res.Metadata {
			metadata[i] = models.ChunkMetadata{
				AgentID:    m.AgentID,
				ChunkIndex: m.ChunkIndex,
				StartIndex: m.StartIndex,
			}
		}

		c.JSON(http.StatusOK, models.RetrieveResponse{
			Chunks:   res.Chunks,
			Metadata: metadata,
		})
	}
}
