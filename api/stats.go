package api

import (
	"net/http"

	"github.com/xraph/ledger/dlq"
)

type statsResponse struct {
	EventsTotal int64      `json:"events_total"`
	DeadLetters *dlq.Stats `json:"dead_letters"`
}

func (h *Handler) getStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	total, err := h.ledger.Store().CountEvents(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	dlStats, err := h.ledger.DeadLetters().Stats(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{
		EventsTotal: total,
		DeadLetters: dlStats,
	})
}

type healthResponse struct {
	Status    string      `json:"status"`
	Scheduler *dlq.Health `json:"scheduler"`
}

func (h *Handler) getHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.ledger.Store().Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "down"})
		return
	}

	schedHealth, err := h.ledger.Scheduler().Health(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "up",
		Scheduler: schedHealth,
	})
}
