package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/diagnosis/guestlobby/internal/domain"
	"github.com/go-chi/chi/v5"
)

// VerifyGuest runs the verification decision without creating a session.
func (h *Handlers) VerifyGuest(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateGuestSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	req.Normalize()
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ref := domain.ProjectRef{ProjectID: req.ProjectID, AccessCode: req.ProjectAccessCode}
	result := h.verify.VerifyGuest(r.Context(), req.Username, ref)

	writeJSON(w, http.StatusOK, result)
}

// CreateGuestSession verifies the guest and, on an eligible outcome, admits
// them to the lobby.
func (h *Handlers) CreateGuestSession(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateGuestSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	result, err := h.sessions.Create(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	statusCode := http.StatusCreated
	if result.Session == nil {
		// Verification refused the guest; no session was created.
		statusCode = http.StatusOK
	}

	writeJSON(w, statusCode, result)
}

func (h *Handlers) GetGuestSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// UpdateGuestSession handles grant and revoke through a single PATCH.
func (h *Handlers) UpdateGuestSession(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateGuestSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := chi.URLParam(r, "id")

	var (
		session *domain.GuestSession
		err     error
	)
	switch req.Action {
	case domain.SessionActionGrant:
		session, err = h.sessions.GrantAccess(r.Context(), id, req.By)
	case domain.SessionActionRevoke:
		session, err = h.sessions.RevokeAccess(r.Context(), id, req.By)
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

func (h *Handlers) GetGuestSessionsByProject(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.sessions.ListByProject(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sessions")
		return
	}

	if sessions == nil {
		sessions = []domain.GuestSession{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (h *Handlers) DeleteGuestSessionsForProject(w http.ResponseWriter, r *http.Request) {
	notify := r.URL.Query().Get("notify") != "false"

	if err := h.sessions.DeleteForProject(r.Context(), chi.URLParam(r, "projectID"), notify); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// NotifyHost sends the throttled "guest waiting" email for a session.
func (h *Handlers) NotifyHost(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.email.SendHostNotification(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	statusCode := http.StatusOK
	if outcome == domain.SendMessageSentRecently {
		statusCode = http.StatusTooManyRequests
	}

	writeJSON(w, statusCode, map[string]string{"outcome": string(outcome)})
}
