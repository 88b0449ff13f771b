package domain

import "time"

// Project is the registry's view of a collaborative project. MaxGuests of
// zero means no guest limit.
type Project struct {
	ID         string    `json:"id"`
	OrgID      string    `json:"org_id"`
	Name       string    `json:"name"`
	AccessCode string    `json:"access_code"`
	HostEmail  string    `json:"host_email"`
	MaxGuests  int       `json:"max_guests"`
	CreatedAt  time.Time `json:"created_at"`
}

// User is the user registry's view of a durable account.
type User struct {
	ID              string `json:"id"`
	AccountID       string `json:"account_id"`
	OrgID           string `json:"org_id"`
	Email           string `json:"email"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	IsLocked        bool   `json:"is_locked"`
	IsEmailVerified bool   `json:"is_email_verified"`
}

// ProjectRef identifies a project either by id or by shareable access code.
// At least one side must be non-empty.
type ProjectRef struct {
	ProjectID  string `json:"project_id,omitempty"`
	AccessCode string `json:"access_code,omitempty"`
}

func (r ProjectRef) IsEmpty() bool {
	return r.ProjectID == "" && r.AccessCode == ""
}
