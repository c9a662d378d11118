package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"taskboard/internal/domain"

	"github.com/gin-gonic/gin"
)

type createTaskRequest struct {
	Title         string   `json:"title" binding:"required,max=200"`
	Description   *string  `json:"description" binding:"omitempty,max=2000"`
	Priority      string   `json:"priority" binding:"omitempty,oneof=low normal urgent"`
	DueDate       *string  `json:"dueDate"`
	ColumnID      string   `json:"columnId" binding:"required"`
	AssigneeIDs   []string `json:"assigneeIds"`
	Category      *string  `json:"category" binding:"omitempty,max=50"`
	CategoryEmoji *string  `json:"categoryEmoji" binding:"omitempty,max=16"`
}

type updateTaskRequest struct {
	Title         *string   `json:"title" binding:"omitempty,min=1,max=200"`
	Description   *string   `json:"description" binding:"omitempty,max=2000"`
	Priority      *string   `json:"priority" binding:"omitempty,oneof=low normal urgent"`
	DueDate       *string   `json:"dueDate"`
	ColumnID      *string   `json:"columnId" binding:"omitempty,min=1"`
	AssigneeIDs   *[]string `json:"assigneeIds"`
	Category      *string   `json:"category" binding:"omitempty,max=50"`
	CategoryEmoji *string   `json:"categoryEmoji" binding:"omitempty,max=16"`
}

type moveTaskRequest struct {
	ColumnID string `json:"columnId" binding:"required"`
}

// parseDueDate accepts YYYY-MM-DD or RFC 3339. Empty means absent.
func parseDueDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	if t, err := time.Parse(domain.DateLayout, *s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil, fmt.Errorf("dueDate must be YYYY-MM-DD")
	}
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d, nil
}

func (h *Handler) ListTasks(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}

	q := domain.TaskQuery{
		ColumnID: c.Query("columnId"),
		Search:   c.Query("search"),
	}
	if p := c.Query("priority"); p != "" {
		priority, ok := domain.ParsePriority(p)
		if !ok {
			respondError(c, domain.Errorf(domain.ErrValidation, "priority must be one of low, normal, urgent"))
			return
		}
		q.Priority = priority
	}
	q.ParseSort(c.Query("sortBy"), c.Query("sortDirection"))
	q.Page, _ = strconv.Atoi(c.Query("page"))
	q.PageSize, _ = strconv.Atoi(c.Query("pageSize"))

	page, err := h.Board.ListTasks(c.Request.Context(), ownerID, q)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, page)
}

func (h *Handler) GetTask(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	task, err := h.Board.GetTask(c.Request.Context(), ownerID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, task, "")
}

func (h *Handler) CreateTask(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	due, err := parseDueDate(req.DueDate)
	if err != nil {
		badRequest(c, err)
		return
	}

	task, err := h.Board.CreateTask(c.Request.Context(), ownerID, domain.NewTask{
		ColumnID:      req.ColumnID,
		Title:         req.Title,
		Description:   req.Description,
		Priority:      domain.Priority(req.Priority),
		DueDate:       due,
		Category:      req.Category,
		CategoryEmoji: req.CategoryEmoji,
		AssigneeIDs:   req.AssigneeIDs,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, task, "Task created")
}

func (h *Handler) UpdateTask(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	due, err := parseDueDate(req.DueDate)
	if err != nil {
		badRequest(c, err)
		return
	}

	patch := domain.TaskPatch{
		Title:         req.Title,
		Description:   req.Description,
		DueDate:       due,
		Category:      req.Category,
		CategoryEmoji: req.CategoryEmoji,
		AssigneeIDs:   req.AssigneeIDs,
		ColumnID:      req.ColumnID,
	}
	if req.Priority != nil {
		p := domain.Priority(*req.Priority)
		patch.Priority = &p
	}

	task, err := h.Board.UpdateTask(c.Request.Context(), ownerID, c.Param("id"), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, task, "Task updated")
}

func (h *Handler) MoveTask(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	var req moveTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	task, err := h.Board.MoveTask(c.Request.Context(), ownerID, c.Param("id"), req.ColumnID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, task, "Task moved")
}

func (h *Handler) DeleteTask(c *gin.Context) {
	ownerID, ok := owner(c)
	if !ok {
		return
	}
	if err := h.Board.DeleteTask(c.Request.Context(), ownerID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, nil, "Task deleted")
}
