package domain

import "strings"

// Task list sort fields
const (
	SortByTitle     = "title"
	SortByPriority  = "priority"
	SortByDueDate   = "dueDate"
	SortByCreatedAt = "createdAt"
)

// Paging limits
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// TaskQuery filters, sorts and pages a task listing. Filters combine with AND.
type TaskQuery struct {
	ColumnID string
	Priority Priority
	Search   string

	SortBy   string
	SortDesc bool
	Page     int
	PageSize int
}

// ParseSort reads the sortBy/sortDirection pair the way clients send it.
// Unknown fields fall back to createdAt descending.
func (q *TaskQuery) ParseSort(field, direction string) {
	desc := strings.EqualFold(strings.TrimSpace(direction), "desc")
	switch strings.ToLower(strings.TrimSpace(field)) {
	case "title":
		q.SortBy, q.SortDesc = SortByTitle, desc
	case "priority":
		q.SortBy, q.SortDesc = SortByPriority, desc
	case "duedate":
		q.SortBy, q.SortDesc = SortByDueDate, desc
	case "createdat":
		q.SortBy, q.SortDesc = SortByCreatedAt, desc
	default:
		q.SortBy, q.SortDesc = SortByCreatedAt, true
	}
}

// Normalize clamps paging and fills the default sort.
func (q TaskQuery) Normalize() TaskQuery {
	switch q.SortBy {
	case SortByTitle, SortByPriority, SortByDueDate, SortByCreatedAt:
	default:
		q.SortBy, q.SortDesc = SortByCreatedAt, true
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	q.Search = strings.TrimSpace(q.Search)
	return q
}

// Offset is the number of rows skipped before the current page.
func (q TaskQuery) Offset() int {
	return (q.Page - 1) * q.PageSize
}
