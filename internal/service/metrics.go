package service

import (
	"errors"

	"taskboard/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
)

var boardOps = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "taskboard_board_operations_total",
		Help: "Board service operations by outcome",
	},
	[]string{"op", "outcome"},
)

func init() {
	prometheus.MustRegister(boardOps)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	default:
		return "error"
	}
}

func observe(op string, err error) {
	boardOps.WithLabelValues(op, outcome(err)).Inc()
}
