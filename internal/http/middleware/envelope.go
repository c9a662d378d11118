package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// ErrorBody is the envelope of every failed API response.
type ErrorBody struct {
	Success       bool     `json:"success"`
	Message       string   `json:"message"`
	Errors        []string `json:"errors,omitempty"`
	Timestamp     string   `json:"timestamp"`
	CorrelationID string   `json:"correlationId,omitempty"`
}

// NewErrorBody builds the error envelope for c.
func NewErrorBody(c *gin.Context, message string, errs ...string) ErrorBody {
	return ErrorBody{
		Message:       message,
		Errors:        errs,
		Timestamp:     time.Now().UTC().Format(time.RFC3339Nano),
		CorrelationID: c.GetString(CorrelationKey),
	}
}

// Abort stops the chain with an error envelope.
func Abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, NewErrorBody(c, message))
}
