// Package ordering decides the order values of board columns.
//
// Orders are plain integers. New columns go after the current maximum; a
// reorder overwrites values as given, without compacting or deduplicating.
package ordering

import (
	"fmt"
	"sort"
	"strings"

	"taskboard/internal/domain"
)

// Next returns the order for a column appended after orders: max+1, or 0
// when the owner has no live columns. Callers must hold the owner's create
// lock while reading orders and inserting the result.
func Next(orders []int) int {
	if len(orders) == 0 {
		return 0
	}
	max := orders[0]
	for _, o := range orders[1:] {
		if o > max {
			max = o
		}
	}
	return max + 1
}

// Entry is one (column, order) pair of a reorder request.
type Entry struct {
	ColumnID string `json:"id" binding:"required"`
	Order    int    `json:"order"`
}

// Normalize validates a reorder request. An empty request is a no-op and
// yields nil. Duplicate or sparse order values are accepted.
func Normalize(entries []Entry) ([]Entry, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	out := make([]Entry, 0, len(entries))
	for i, e := range entries {
		id := strings.TrimSpace(e.ColumnID)
		if id == "" {
			return nil, fmt.Errorf("%w: reorder entry %d has no column id", domain.ErrValidation, i)
		}
		out = append(out, Entry{ColumnID: id, Order: e.Order})
	}
	return out, nil
}

// Sort orders columns ascending by Order. Equal orders keep their input
// sequence.
func Sort(columns []domain.Column) {
	sort.SliceStable(columns, func(i, j int) bool {
		return columns[i].Order < columns[j].Order
	})
}

// SortViews is Sort for presented columns.
func SortViews(columns []domain.ColumnView) {
	sort.SliceStable(columns, func(i, j int) bool {
		return columns[i].Order < columns[j].Order
	})
}

// Spec describes one column of the bootstrap board.
type Spec struct {
	Name  string
	Order int
}

// Default returns the columns seeded for a new account.
func Default() []Spec {
	return []Spec{
		{Name: "Backlog", Order: 0},
		{Name: "In Progress", Order: 1},
		{Name: "Validation", Order: 2},
		{Name: "Done", Order: 3},
	}
}
