package middleware

import (
	"crypto/subtle"

	"agentic-context/internal/config"
	"agentic-context/internal/logger"
	"agentic-context/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const APIKeyHeader = "X-API-Key"

// APIKeyMiddleware rejects requests whose X-API-Key does not match the
// configured secret. With no secret configured every request passes.
func APIKeyMiddleware(cfg *config.Config) gin.HandlerFunc {
	expected := []byte(cfg.APIKey)

	return func(c *gin.Context) {
		if len(expected) == 0 {
			c.Next()
			return
		}

		provided := c.GetHeader(APIKeyHeader)
		if provided == "" || subtle.ConstantTimeCompare([]byte(provided), expected) != 1 {
			logger.Warn("rejected request with invalid API key",
				zap.String("path", c.FullPath()),
				zap.String("client_ip", c.ClientIP()),
				zap.String("request_id", GetRequestID(c)),
			)
			utils.RespondWithUnauthorized(c, "Invalid or missing API key")
			return
		}

		c.Next()
	}
}
