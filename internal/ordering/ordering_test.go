package ordering

import (
	"errors"
	"testing"

	"taskboard/internal/domain"
)

func TestNext(t *testing.T) {
	cases := []struct {
		orders []int
		want   int
	}{
		{nil, 0},
		{[]int{0}, 1},
		{[]int{0, 1, 2, 3}, 4},
		{[]int{5, 1, 5}, 6},
		{[]int{-4, -2}, -1},
	}

	for _, tc := range cases {
		if got := Next(tc.orders); got != tc.want {
			t.Fatalf("Next(%v) = %d; want %d", tc.orders, got, tc.want)
		}
	}
}

func TestNext_SequentialCreatesStrictlyIncrease(t *testing.T) {
	var orders []int
	for i := 0; i < 10; i++ {
		next := Next(orders)
		if len(orders) > 0 && next <= orders[len(orders)-1] {
			t.Fatalf("order %d not greater than previous %d", next, orders[len(orders)-1])
		}
		orders = append(orders, next)
	}
}

func TestNormalize(t *testing.T) {
	out, err := Normalize(nil)
	if err != nil || out != nil {
		t.Fatalf("empty reorder must be a no-op, got %v %v", out, err)
	}

	out, err = Normalize([]Entry{{ColumnID: " a ", Order: 3}, {ColumnID: "b", Order: 3}})
	if err != nil {
		t.Fatalf("duplicate orders must be accepted: %v", err)
	}
	if out[0].ColumnID != "a" || out[1].Order != 3 {
		t.Fatalf("unexpected normalized entries: %+v", out)
	}

	_, err = Normalize([]Entry{{ColumnID: "", Order: 1}})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestSort_StableOnTies(t *testing.T) {
	cols := []domain.Column{
		{ID: "c", Order: 2},
		{ID: "a", Order: 1},
		{ID: "b", Order: 1},
	}
	Sort(cols)

	got := cols[0].ID + cols[1].ID + cols[2].ID
	if got != "abc" {
		t.Fatalf("expected abc, got %s", got)
	}
}

func TestDefault(t *testing.T) {
	specs := Default()
	if len(specs) != 4 {
		t.Fatalf("expected 4 default columns, got %d", len(specs))
	}
	for i, s := range specs {
		if s.Order != i {
			t.Fatalf("default column %s has order %d; want %d", s.Name, s.Order, i)
		}
	}
}
