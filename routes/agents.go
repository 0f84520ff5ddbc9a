package routes

import (
	"net/http"

	"agentic-context/middleware"
	"agentic-context/models"
	"agentic-context/services"

	"github.com/gin-gonic/gin"
)

// HandleDeleteAgent drops a tenant's vector collection.
func HandleDeleteAgent(agents *services.AgentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		agentID := c.Param("agent_id")
		c.Set(middleware.AgentIDKey, agentID)

		if err := agents.Delete(c.Request.Context(), agentID); err != nil {
			respondWithServiceError(c, err, "Error deleting agent")
			return
		}

		c.JSON(http.StatusOK, models.DeleteAgentResponse{AgentID: agentID, Deleted: true})
	}
}
