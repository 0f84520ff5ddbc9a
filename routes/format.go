package routes

import (
	"net/http"

	"agentic-context/models"
	"agentic-context/services"
	"agentic-context/utils"

	"github.com/gin-gonic/gin"
)

// HandleFormat rewrites raw chunks into structured context.
func HandleFormat(formatting *services.FormattingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.FormatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		formatted, err := formatting.Format(c.Request.Context(), req.Chunks)
		if err != nil {
			respondWithServiceError(c, err, "Error formatting chunks")
			return
		}

		c.JSON(http.StatusOK, models.FormatResponse{FormattedContext: formatted})
	}
}
