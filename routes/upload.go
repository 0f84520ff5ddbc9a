package routes

import (
	"errors"
	"io"
	"net/http"

	"agentic-context/internal/config"
	"agentic-context/middleware"
	"agentic-context/models"
	"agentic-context/services"
	"agentic-context/utils"

	"github.com/gin-gonic/gin"
)

// multipartOverhead leaves room for form fields and boundaries beyond the file.
const multipartOverhead = 1 << 20

// HandleUpload indexes a PDF or text file for the tenant named by agent_id.
func HandleUpload(cfg *config.Config, ingestion *services.IngestionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, cfg.MaxFileSize+multipartOverhead)

		file, header, err := c.Request.FormFile("file")
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				utils.RespondWithError(c, http.StatusBadRequest, "file_too_large", "File size exceeds maximum limit", nil)
				return
			}
			utils.RespondWithError(c, http.StatusBadRequest, "no_file", "No file provided", nil)
			return
		}
		defer file.Close()

		agentID := c.PostForm("agent_id")
		c.Set(middleware.AgentIDKey, agentID)

		// Reject bad types before reading the body.
		if _, err := services.ValidateUpload(header.Filename, agentID); err != nil {
			respondWithServiceError(c, err, "Invalid upload")
			return
		}

		if header.Size > cfg.MaxFileSize {
			utils.RespondWithError(c, http.StatusBadRequest, "file_too_large", "File size exceeds maximum limit", nil)
			return
		}

		content, err := io.ReadAll(io.LimitReader(file, cfg.MaxFileSize+1))
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "invalid_file", "Cannot read uploaded file", nil)
			return
		}
		if int64(len(content)) > cfg.MaxFileSize {
			utils.RespondWithError(c, http.StatusBadRequest, "file_too_large", "File size exceeds maximum limit", nil)
			return
		}

		count, err := ingestion.Ingest(c.Request.Context(), content, header.Filename, agentID)
		if err != nil {
			respondWithServiceError(c, err, "Error processing document")
			return
		}

		c.JSON(http.StatusOK, models.UploadResponse{
			AgentID:    agentID,
			Filename:   header.Filename,
			ChunkCount: count,
		})
	}
}
