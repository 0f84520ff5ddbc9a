package middleware

import (
	"net/http"

	"agentic-context/utils"

	"github.com/gin-gonic/gin"
)

// RequestSizeLimit rejects bodies larger than maxSize. A declared
// Content-Length over the limit fails fast; otherwise the body is capped and
// the handler's bind fails once the cap is crossed.
func RequestSizeLimit(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxSize {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, utils.ErrorResponse{
				ErrorCode: "request_too_large",
				Message:   "Request body exceeds maximum size",
				Details: gin.H{
					"max_size": maxSize,
					"received": c.Request.ContentLength,
				},
			})
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}
