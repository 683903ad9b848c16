package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/xraph/ledger"
	"github.com/xraph/ledger/event"
	"github.com/xraph/ledger/id"
)

type recordEventRequest struct {
	WorkspaceID string         `json:"workspace_id"`
	Type        string         `json:"type"`
	OccurredAt  time.Time      `json:"occurred_at"`
	Actor       string         `json:"actor,omitempty"`
	Repository  string         `json:"repository,omitempty"`
	TargetType  string         `json:"target_type"`
	TargetID    string         `json:"target_id"`
	XP          float64        `json:"xp"`
	Source      string         `json:"source,omitempty"`
	Payload     map[string]any `json:"payload,omitempty"`
}

type recordEventResponse struct {
	Recorded bool   `json:"recorded"`
	Key      string `json:"key"`
}

func (h *Handler) recordEvent(w http.ResponseWriter, r *http.Request) {
	var req recordEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.WorkspaceID == "" {
		writeError(w, http.StatusBadRequest, "workspace_id is required")
		return
	}
	if req.Type == "" {
		writeError(w, http.StatusBadRequest, "type is required")
		return
	}
	if req.OccurredAt.IsZero() {
		writeError(w, http.StatusBadRequest, "occurred_at is required")
		return
	}

	if !h.limiter.Allow(req.WorkspaceID, h.recordRate) {
		writeError(w, http.StatusTooManyRequests, "workspace rate limit exceeded")
		return
	}

	in := event.RecordInput{
		WorkspaceID: req.WorkspaceID,
		Type:        event.Type(req.Type),
		OccurredAt:  req.OccurredAt,
		Actor:       req.Actor,
		Repository:  req.Repository,
		TargetType:  req.TargetType,
		TargetID:    req.TargetID,
		XP:          req.XP,
		Source:      event.Source(req.Source),
		Payload:     req.Payload,
	}

	recorded, _, err := h.ledger.RecordOrCapture(r.Context(), in, event.TriggerWebhook)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrUnknownEventType):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ledger.ErrPayloadValidationFailed):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	status := http.StatusCreated
	if !recorded {
		// Duplicate key or unknown workspace: an idempotent no-op.
		status = http.StatusOK
	}

	writeJSON(w, status, recordEventResponse{
		Recorded: recorded,
		Key:      in.Key(),
	})
}

func (h *Handler) listEvents(w http.ResponseWriter, r *http.Request) {
	opts := event.ListOpts{
		Offset:      queryInt(r, "offset", 0),
		Limit:       queryInt(r, "limit", 50),
		Type:        event.Type(queryParam(r, "type")),
		WorkspaceID: queryParam(r, "workspace_id"),
		From:        queryTime(r, "from"),
		To:          queryTime(r, "to"),
	}

	events, err := h.ledger.Events(r.Context(), opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, events)
}

func (h *Handler) getEvent(w http.ResponseWriter, r *http.Request) {
	evtID, err := id.ParseEventID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid event ID")
		return
	}

	evt, getErr := h.ledger.Event(r.Context(), evtID)
	if getErr != nil {
		if errors.Is(getErr, ledger.ErrEventNotFound) {
			writeError(w, http.StatusNotFound, "event not found")
			return
		}
		writeError(w, http.StatusInternalServerError, getErr.Error())
		return
	}

	writeJSON(w, http.StatusOK, evt)
}

func (h *Handler) getEventByKey(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "event key is required")
		return
	}

	evt, err := h.ledger.EventByKey(r.Context(), key)
	if err != nil {
		if errors.Is(err, ledger.ErrEventNotFound) {
			writeError(w, http.StatusNotFound, "event not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, evt)
}
