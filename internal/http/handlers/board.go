package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Bootstrap seeds the default columns on first use. Calling it again is
// harmless and returns the current board.
func (h *Handler) Bootstrap(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	cols, seeded, err := h.Board.Bootstrap(c.Request.Context(), ownerID)
	if err != nil {
		respondError(c, err)
		return
	}
	if seeded {
		respond(c, http.StatusCreated, cols, "Board created")
		return
	}
	respond(c, http.StatusOK, cols, "Board already exists")
}

// Activity lists the owner's recent board mutations.
func (h *Handler) Activity(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	entries, err := h.Audit.Recent(c.Request.Context(), ownerID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, entries, "")
}
