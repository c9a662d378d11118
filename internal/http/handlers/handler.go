package handlers

import (
	"errors"
	"net/http"
	"time"

	"taskboard/internal/domain"
	"taskboard/internal/http/middleware"
	"taskboard/internal/logger"
	"taskboard/internal/service"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Board *service.BoardService
	Audit *service.AuditService
}

func NewHandler(board *service.BoardService, audit *service.AuditService) *Handler {
	return &Handler{Board: board, Audit: audit}
}

// envelope wraps every successful response.
type envelope struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data"`
	Message   string `json:"message,omitempty"`
	Timestamp string `json:"timestamp"`
}

type pageEnvelope struct {
	envelope
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func respond(c *gin.Context, status int, data any, message string) {
	c.JSON(status, envelope{Success: true, Data: data, Message: message, Timestamp: now()})
}

func respondPage(c *gin.Context, page service.TaskPage) {
	c.JSON(http.StatusOK, pageEnvelope{
		envelope: envelope{Success: true, Data: page.Items, Timestamp: now()},
		Total:    page.Total,
		Page:     page.Page,
		PageSize: page.PageSize,
	})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, middleware.NewErrorBody(c, "invalid request body", err.Error()))
}

// respondError maps board errors to HTTP statuses. Anything unknown is a 500
// with a generic message; the cause only goes to the log.
func respondError(c *gin.Context, err error) {
	status, message := http.StatusInternalServerError, "internal error"
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status, message = http.StatusNotFound, "resource not found"
	case errors.Is(err, domain.ErrForbidden):
		status, message = http.StatusForbidden, "access denied"
	case errors.Is(err, domain.ErrConflict):
		status, message = http.StatusConflict, "conflict"
	case errors.Is(err, domain.ErrValidation):
		status, message = http.StatusUnprocessableEntity, "validation failed"
	}

	var details []string
	var de *domain.Error
	if status != http.StatusInternalServerError && errors.As(err, &de) {
		message = de.Message
	}
	var re *service.ReorderError
	if errors.As(err, &re) {
		details = append(details, "applied="+itoa(re.Applied), "failed="+re.Failed)
	}

	if status == http.StatusInternalServerError {
		logger.WithContext(c.Request.Context()).Error("request error", "error", err, "path", c.FullPath())
	}
	_ = c.Error(err)
	c.JSON(status, middleware.NewErrorBody(c, message, details...))
}

// owner returns the authenticated owner, aborting with 401 when absent.
func owner(c *gin.Context) (string, bool) {
	id, ok := middleware.OwnerID(c)
	if !ok {
		middleware.Abort(c, http.StatusUnauthorized, "unauthorized")
	}
	return id, ok
}
