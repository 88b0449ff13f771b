package domain

import (
	"fmt"
	"strings"
	"time"
)

// GuestInvite records an invitation sent to a guest. Append-mostly; it has
// no state machine and is only removed on whole-project teardown.
type GuestInvite struct {
	ID                string    `json:"id"`
	InvitedBy         string    `json:"invited_by"`
	ProjectID         string    `json:"project_id"`
	GuestEmail        string    `json:"guest_email"`
	ProjectAccessCode string    `json:"project_access_code"`
	CreatedAt         time.Time `json:"created_at"`
}

type CreateInviteRequest struct {
	InvitedBy  string `json:"invited_by"`
	GuestEmail string `json:"guest_email"`
}

func (r *CreateInviteRequest) Normalize() {
	r.InvitedBy = strings.TrimSpace(r.InvitedBy)
	r.GuestEmail = strings.ToLower(strings.TrimSpace(r.GuestEmail))
}

func (r *CreateInviteRequest) Validate() error {
	if r.InvitedBy == "" {
		return fmt.Errorf("invited_by is required")
	}
	if r.GuestEmail == "" {
		return fmt.Errorf("guest_email is required")
	}
	if !isValidEmailFormat(r.GuestEmail) {
		return fmt.Errorf("invalid guest_email format")
	}
	return nil
}
