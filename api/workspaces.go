package api

import (
	"errors"
	"net/http"

	"github.com/xraph/ledger"
	"github.com/xraph/ledger/workspace"
)

type ensureWorkspaceRequest struct {
	ID       string            `json:"id"`
	Name     string            `json:"name,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func (h *Handler) ensureWorkspace(w http.ResponseWriter, r *http.Request) {
	var req ensureWorkspaceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	ws, err := h.ledger.Workspaces().Ensure(r.Context(), workspace.Input{
		ID:       req.ID,
		Name:     req.Name,
		Metadata: req.Metadata,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, ws)
}

func (h *Handler) listWorkspaces(w http.ResponseWriter, r *http.Request) {
	opts := workspace.ListOpts{
		Offset: queryInt(r, "offset", 0),
		Limit:  queryInt(r, "limit", 50),
	}

	workspaces, err := h.ledger.Workspaces().List(r.Context(), opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, workspaces)
}

func (h *Handler) getWorkspace(w http.ResponseWriter, r *http.Request) {
	ws, err := h.ledger.Workspaces().Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, ledger.ErrWorkspaceNotFound) {
			writeError(w, http.StatusNotFound, "workspace not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, ws)
}
