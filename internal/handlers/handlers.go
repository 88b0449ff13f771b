package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/diagnosis/guestlobby/internal/domain"
	"github.com/diagnosis/guestlobby/internal/service"
)

type Handlers struct {
	sessions service.SessionService
	lobby    service.LobbyService
	email    service.EmailService
	verify   service.VerifyService
	invites  service.InviteService
}

func New(
	sessions service.SessionService,
	lobby service.LobbyService,
	email service.EmailService,
	verify service.VerifyService,
	invites service.InviteService,
) *Handlers {
	return &Handlers{
		sessions: sessions,
		lobby:    lobby,
		email:    email,
		verify:   verify,
		invites:  invites,
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// writeServiceError maps typed domain errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, domain.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "Invalid state transition")
	case errors.Is(err, domain.ErrInvalidState):
		writeError(w, http.StatusConflict, "Session already ended")
	case errors.Is(err, domain.ErrSessionExists):
		writeError(w, http.StatusConflict, "Active session already exists")
	case strings.Contains(err.Error(), "validation failed"):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "Internal error")
	}
}
