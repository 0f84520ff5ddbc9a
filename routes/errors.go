package routes

import (
	"errors"
	"fmt"

	"agentic-context/services"
	"agentic-context/utils"

	"github.com/gin-gonic/gin"
)

// respondWithServiceError maps a pipeline failure to its HTTP status.
// Upstream failures carry the underlying message prefixed by context.
func respondWithServiceError(c *gin.Context, err error, context string) {
	_ = c.Error(err)

	switch services.KindOf(err) {
	case services.KindInvalidInput:
		utils.RespondWithBadRequest(c, unwrapMessage(err), nil)
	default:
		utils.RespondWithInternalError(c, fmt.Sprintf("%s: %s", context, unwrapMessage(err)), nil)
	}
}

// unwrapMessage drops the operation prefix from *services.Error.
func unwrapMessage(err error) string {
	var se *services.Error
	if errors.As(err, &se) {
		return se.Err.Error()
	}
	return err.Error()
}
