package api

import (
	"context"
	goerrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/redsunink/veliankeeper/internal/errors"
)

// respondError maps the application error taxonomy to HTTP statuses and a
// uniform error body. The user message is safe to expose; internal detail
// stays in the logs.
func respondError(c *gin.Context, err error) {
	if goerrors.Is(err, context.DeadlineExceeded) && !errors.IsAppError(err) {
		err = errors.NewTimeoutError(c.Request.Method+" "+c.Request.URL.Path, context.DeadlineExceeded)
	}
	_ = c.Error(err)

	status := http.StatusInternalServerError
	if appErr, ok := errors.AsAppError(err); ok {
		switch appErr.Type {
		case errors.ErrorTypeValidation, errors.ErrorTypeInvalidInput:
			status = http.StatusBadRequest
		case errors.ErrorTypeNotFound:
			status = http.StatusNotFound
		case errors.ErrorTypeConflict:
			status = http.StatusConflict
		case errors.ErrorTypeTimeout:
			status = http.StatusGatewayTimeout
		}
	}
	c.JSON(status, gin.H{
		"success": false,
		"error":   errors.GetUserMessage(err),
		"code":    errors.GetErrorCode(err),
	})
}
