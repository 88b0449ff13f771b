package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/diagnosis/guestlobby/internal/domain"
	"github.com/go-chi/chi/v5"
)

func (h *Handlers) GetProjectStatus(w http.ResponseWriter, r *http.Request) {
	status := h.lobby.GetProjectStatus(r.Context(), chi.URLParam(r, "projectID"))
	writeJSON(w, http.StatusOK, status)
}

func (h *Handlers) CreateProjectLobbyState(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")

	if err := h.lobby.Create(r.Context(), projectID); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, h.lobby.GetProjectStatus(r.Context(), projectID))
}

func (h *Handlers) RecalculateProjectLobbyState(w http.ResponseWriter, r *http.Request) {
	state := h.lobby.Recalculate(r.Context(), chi.URLParam(r, "projectID"))
	writeJSON(w, http.StatusOK, map[string]string{"lobby_state": string(state)})
}

func (h *Handlers) DeleteProjectLobbyState(w http.ResponseWriter, r *http.Request) {
	if err := h.lobby.Delete(r.Context(), chi.URLParam(r, "projectID")); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) CreateInvite(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	invite, err := h.invites.Create(r.Context(), chi.URLParam(r, "projectID"), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, invite)
}

func (h *Handlers) ListInvitesByProject(w http.ResponseWriter, r *http.Request) {
	invites, err := h.invites.ListByProject(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list invites")
		return
	}

	if invites == nil {
		invites = []domain.GuestInvite{}
	}
	writeJSON(w, http.StatusOK, invites)
}
