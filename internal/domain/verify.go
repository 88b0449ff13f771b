package domain

// VerifyGuestCode is the outcome of the guest verification decision.
type VerifyGuestCode string

const (
	// VerifySuccess: project resolved and the user is a valid guest.
	VerifySuccess VerifyGuestCode = "success"
	// VerifySuccessNoUser: project resolved, no matching account; treat as
	// a new guest eligible for session creation.
	VerifySuccessNoUser VerifyGuestCode = "success_no_user"
	// VerifyInvalidCode: the project reference resolved to nothing.
	VerifyInvalidCode VerifyGuestCode = "invalid_code"
	// VerifyUserIsLocked: the account exists but is locked.
	VerifyUserIsLocked VerifyGuestCode = "user_is_locked"
	// VerifyEmailVerificationNeeded: the account's email is unverified.
	VerifyEmailVerificationNeeded VerifyGuestCode = "email_verification_needed"
	// VerifyInvalidNotGuest: the account is a full member of the project's
	// owning tenant and cannot join as a guest.
	VerifyInvalidNotGuest VerifyGuestCode = "invalid_not_guest"
	// VerifyFailed: a collaborator lookup fault; retryable by the caller.
	VerifyFailed VerifyGuestCode = "failed"
)

// VerifyGuestResult carries the outcome code plus, on VerifySuccess, the
// resolved account and project.
type VerifyGuestResult struct {
	Code      VerifyGuestCode `json:"code"`
	AccountID string          `json:"account_id,omitempty"`
	UserID    string          `json:"user_id,omitempty"`
	Project   *Project        `json:"project,omitempty"`
}

// SendOutcome is the result of a throttled verification-email send.
type SendOutcome string

const (
	SendSuccess             SendOutcome = "success"
	SendMessageSentRecently SendOutcome = "message_sent_recently"
	SendEmailNotVerified    SendOutcome = "email_not_verified"
	SendFailed              SendOutcome = "failed_to_send"
)
