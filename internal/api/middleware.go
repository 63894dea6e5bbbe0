package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/redsunink/veliankeeper/internal/errors"
)

const requestIDKey = "request_id"

// RequestID tags every request with a unique identifier, echoed back in
// the X-Request-ID response header and attached to log lines.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// RequestTimeout bounds each request's context. A handler that overruns
// sees a cancelled context and reports a timeout instead of hanging.
func RequestTimeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequestLogger logs one structured line per completed request. Handler
// errors are logged when they indicate a system fault; user errors such as
// a failed validation or an unknown id stay out of the log.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			"request_id", c.GetString(requestIDKey),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		for _, ginErr := range c.Errors {
			if errors.ShouldLogError(ginErr.Err) {
				logger.Error("request failed",
					"request_id", c.GetString(requestIDKey),
					"path", c.Request.URL.Path,
					"code", errors.GetErrorCode(ginErr.Err),
					"error", ginErr.Err,
				)
			}
		}
	}
}
