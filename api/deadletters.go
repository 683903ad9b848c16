package api

import (
	"errors"
	"net/http"

	"github.com/xraph/ledger"
	"github.com/xraph/ledger/dlq"
	"github.com/xraph/ledger/event"
	"github.com/xraph/ledger/id"
)

func (h *Handler) listDeadLetters(w http.ResponseWriter, r *http.Request) {
	opts := dlq.ListOpts{
		Offset:      queryInt(r, "offset", 0),
		Limit:       queryInt(r, "limit", 50),
		WorkspaceID: queryParam(r, "workspace_id"),
		EventType:   event.Type(queryParam(r, "event_type")),
		Status:      dlq.Status(queryParam(r, "status")),
		From:        queryTime(r, "from"),
		To:          queryTime(r, "to"),
	}

	entries, err := h.ledger.DeadLetters().List(r.Context(), opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) getDeadLetter(w http.ResponseWriter, r *http.Request) {
	dlID, err := id.ParseDeadLetterID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid dead letter ID")
		return
	}

	entry, getErr := h.ledger.DeadLetters().Get(r.Context(), dlID)
	if getErr != nil {
		if errors.Is(getErr, ledger.ErrDeadLetterNotFound) {
			writeError(w, http.StatusNotFound, "dead letter not found")
			return
		}
		writeError(w, http.StatusInternalServerError, getErr.Error())
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

func (h *Handler) retryDeadLetter(w http.ResponseWriter, r *http.Request) {
	dlID, err := id.ParseDeadLetterID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid dead letter ID")
		return
	}

	result, retryErr := h.ledger.DeadLetters().Retry(r.Context(), dlID)
	if retryErr != nil {
		if errors.Is(retryErr, ledger.ErrDeadLetterNotFound) {
			writeError(w, http.StatusNotFound, "dead letter not found")
			return
		}
		writeError(w, http.StatusInternalServerError, retryErr.Error())
		return
	}

	// A rejected retry (non-pending entry) is a conflict, not a server error.
	if !result.Resolved && result.Message != "" {
		writeJSON(w, http.StatusConflict, result)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type discardRequest struct {
	Notes string `json:"notes,omitempty"`
}

func (h *Handler) discardDeadLetter(w http.ResponseWriter, r *http.Request) {
	dlID, err := id.ParseDeadLetterID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid dead letter ID")
		return
	}

	var req discardRequest
	if r.ContentLength > 0 {
		if decodeErr := decodeJSON(r, &req); decodeErr != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	entry, discardErr := h.ledger.DeadLetters().Discard(r.Context(), dlID, req.Notes)
	if discardErr != nil {
		if errors.Is(discardErr, ledger.ErrDeadLetterNotFound) {
			writeError(w, http.StatusNotFound, "dead letter not found")
			return
		}
		writeError(w, http.StatusConflict, discardErr.Error())
		return
	}

	writeJSON(w, http.StatusOK, entry)
}
