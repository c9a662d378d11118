package middleware

import (
	"time"

	"taskboard/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Correlation id header and context key
const (
	CorrelationHeader = "X-Correlation-ID"
	CorrelationKey    = "correlation_id"
)

// RequestLogger tags each request with a correlation id (taken from the
// request header or generated), puts a request logger into the request
// context and logs the outcome.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		id := c.GetHeader(CorrelationHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(CorrelationKey, id)
		c.Header(CorrelationHeader, id)

		l := logger.With(CorrelationKey, id)
		c.Request = c.Request.WithContext(logger.NewContext(c.Request.Context(), l))

		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
		}
		if owner, ok := OwnerID(c); ok {
			attrs = append(attrs, OwnerKey, owner)
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "errors", c.Errors.String())
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			l.Error("request failed", attrs...)
		case status >= 400:
			l.Warn("request rejected", attrs...)
		default:
			l.Info("request", attrs...)
		}
	}
}
