package routes

import (
	"net/http"

	"agentic-context/middleware"
	"agentic-context/models"
	"agentic-context/services"
	"agentic-context/utils"

	"github.com/gin-gonic/gin"
)

// HandleQuery retrieves and formats context for a query in one call.
func HandleQuery(query *services.QueryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.QueryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}
		c.Set(middleware.AgentIDKey, req.AgentID)

		answer, err := query.Answer(c.Request.Context(), req.Query, req.AgentID)
		if err != nil {
			respondWithServiceError(c, err, "Error processing query")
			return
		}

		c.JSON(http.StatusOK, models.QueryResponse{
			Answer:       answer.Answer,
			SourceChunks: answer.SourceChunks,
		})
	}
}
