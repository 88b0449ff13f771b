package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// SessionState is the guest session lifecycle state. Transitions are
// monotonic: InLobby -> InProject -> Ended, or InLobby -> Ended directly.
// Ended is terminal.
type SessionState string

const (
	SessionInLobby   SessionState = "in_lobby"
	SessionInProject SessionState = "in_project"
	SessionEnded     SessionState = "ended"
)

func ParseSessionState(raw string) (SessionState, bool) {
	switch SessionState(raw) {
	case SessionInLobby, SessionInProject, SessionEnded:
		return SessionState(raw), true
	}
	return "", false
}

// GuestSession is a transient participant's presence record for a project,
// independent of a durable account.
type GuestSession struct {
	ID                string       `json:"id"`
	UserID            string       `json:"user_id,omitempty"`
	ProjectID         string       `json:"project_id"`
	ProjectAccessCode string       `json:"project_access_code,omitempty"`
	State             SessionState `json:"state"`
	AccessGrantedBy   *string      `json:"access_granted_by,omitempty"`
	AccessGrantedAt   *time.Time   `json:"access_granted_at,omitempty"`
	AccessRevokedBy   *string      `json:"access_revoked_by,omitempty"`
	AccessRevokedAt   *time.Time   `json:"access_revoked_at,omitempty"`
	EmailedHostAt     *time.Time   `json:"emailed_host_at,omitempty"`
	Email             string       `json:"email"`
	FirstName         string       `json:"first_name,omitempty"`
	LastName          string       `json:"last_name,omitempty"`
	CreatedAt         time.Time    `json:"created_at"`
	LastAccessAt      time.Time    `json:"last_access_at"`
}

func (s *GuestSession) IsEnded() bool {
	return s.State == SessionEnded
}

// CanGrant reports whether GrantAccess is a legal move. Only a session
// still waiting in the lobby can be admitted.
func (s *GuestSession) CanGrant() bool {
	return s.State == SessionInLobby
}

// CanEnd reports whether the session still holds a state worth ending.
// Ending an already-Ended session is a no-op, not an error.
func (s *GuestSession) CanEnd() bool {
	return s.State != SessionEnded
}

func (s *GuestSession) DisplayName() string {
	name := strings.TrimSpace(s.FirstName + " " + s.LastName)
	if name == "" {
		return s.Email
	}
	return name
}

// CreateGuestSessionRequest is the payload for CreateGuestSession. Username
// must be email-shaped; projectRef needs at least one of id or access code.
type CreateGuestSessionRequest struct {
	Username          string `json:"username"`
	ProjectID         string `json:"project_id,omitempty"`
	ProjectAccessCode string `json:"project_access_code,omitempty"`
	FirstName         string `json:"first_name,omitempty"`
	LastName          string `json:"last_name,omitempty"`
}

func (r *CreateGuestSessionRequest) Normalize() {
	r.Username = strings.ToLower(strings.TrimSpace(r.Username))
	r.ProjectID = strings.TrimSpace(r.ProjectID)
	r.ProjectAccessCode = strings.TrimSpace(r.ProjectAccessCode)
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
}

func (r *CreateGuestSessionRequest) Validate() error {
	if r.Username == "" {
		return fmt.Errorf("username is required")
	}
	if !isValidEmailFormat(r.Username) {
		return fmt.Errorf("username must be an email address")
	}
	if r.ProjectID == "" && r.ProjectAccessCode == "" {
		return fmt.Errorf("project id or access code is required")
	}
	return nil
}

// UpdateGuestSessionRequest covers grant and revoke through a single PATCH.
type UpdateGuestSessionRequest struct {
	Action string `json:"action"` // "grant" or "revoke"
	By     string `json:"by"`
}

const (
	SessionActionGrant  = "grant"
	SessionActionRevoke = "revoke"
)

func (r *UpdateGuestSessionRequest) Validate() error {
	if r.Action != SessionActionGrant && r.Action != SessionActionRevoke {
		return fmt.Errorf("action must be %q or %q", SessionActionGrant, SessionActionRevoke)
	}
	if strings.TrimSpace(r.By) == "" {
		return fmt.Errorf("by is required")
	}
	return nil
}

func isValidEmailFormat(email string) bool {
	emailRegex := regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	return emailRegex.MatchString(email)
}
