package handlers

import (
	"net/http"
	"strconv"

	"taskboard/internal/domain"
	"taskboard/internal/ordering"

	"github.com/gin-gonic/gin"
)

type createColumnRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

type updateColumnRequest struct {
	Name  *string `json:"name" binding:"omitempty,min=1,max=100"`
	Order *int    `json:"order"`
}

func itoa(n int) string { return strconv.Itoa(n) }

func (h *Handler) ListColumns(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	cols, err := h.Board.ListColumns(c.Request.Context(), ownerID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, cols, "")
}

func (h *Handler) CreateColumn(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	var req createColumnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	col, err := h.Board.CreateColumn(c.Request.Context(), ownerID, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, col, "Column created")
}

func (h *Handler) UpdateColumn(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	var req updateColumnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	col, err := h.Board.UpdateColumn(c.Request.Context(), ownerID, c.Param("id"),
		domain.ColumnPatch{Name: req.Name, Order: req.Order})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, col, "Column updated")
}

func (h *Handler) DeleteColumn(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	if err := h.Board.DeleteColumn(c.Request.Context(), ownerID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, nil, "Column deleted")
}

// ReorderColumns takes a bare array of {id, order}.
func (h *Handler) ReorderColumns(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	var entries []ordering.Entry
	if err := c.ShouldBindJSON(&entries); err != nil {
		badRequest(c, err)
		return
	}
	cols, err := h.Board.ReorderColumns(c.Request.Context(), ownerID, entries)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, cols, "Columns reordered")
}
