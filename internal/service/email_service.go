package service

import (
	"context"
	"time"

	"github.com/diagnosis/guestlobby/internal/directory"
	"github.com/diagnosis/guestlobby/internal/domain"
	"github.com/diagnosis/guestlobby/internal/mailer"
	"github.com/diagnosis/guestlobby/internal/repository"
	"github.com/diagnosis/guestlobby/pkg/config"
	"github.com/diagnosis/guestlobby/pkg/logger"
)

// EmailService sends the host a "guest is waiting" email, throttled per
// session. The throttle claim is an atomic conditional update on
// emailed_host_at, so two concurrent sends cannot both observe "not recent"
// and both go through.
type EmailService interface {
	SendHostNotification(ctx context.Context, sessionID string) (domain.SendOutcome, error)
}

type emailService struct {
	sessionRepo repository.SessionRepository
	projects    directory.ProjectDirectory
	users       directory.UserDirectory
	mailer      mailer.Service
	window      time.Duration
}

func NewEmailService(
	sessionRepo repository.SessionRepository,
	projects directory.ProjectDirectory,
	users directory.UserDirectory,
	mailer mailer.Service,
	cfg *config.Config,
) EmailService {
	return &emailService{
		sessionRepo: sessionRepo,
		projects:    projects,
		users:       users,
		mailer:      mailer,
		window:      cfg.Lobby.HostEmailWindow,
	}
}

func (s *emailService) SendHostNotification(ctx context.Context, sessionID string) (domain.SendOutcome, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return domain.SendFailed, err
	}
	if session == nil {
		return domain.SendFailed, domain.ErrNotFound
	}
	if session.IsEnded() {
		return domain.SendFailed, domain.ErrInvalidState
	}

	// A guest with an account must have a verified address before we put
	// their name in front of the host.
	user, err := s.users.GetByUsername(ctx, session.Email)
	if err != nil {
		logger.ErrorContext(ctx, "User lookup failed before host notification",
			"error", err, "session_id", sessionID)
		return domain.SendFailed, nil
	}
	if user != nil && !user.IsEmailVerified {
		return domain.SendEmailNotVerified, nil
	}

	project, err := s.projects.GetByID(ctx, session.ProjectID)
	if err != nil || project == nil {
		logger.ErrorContext(ctx, "Project lookup failed before host notification",
			"error", err, "session_id", sessionID, "project_id", session.ProjectID)
		return domain.SendFailed, nil
	}

	previous := session.EmailedHostAt
	now := time.Now()

	claimed, err := s.sessionRepo.ClaimHostEmail(ctx, sessionID, now, s.window)
	if err != nil {
		return domain.SendFailed, err
	}
	if !claimed {
		return domain.SendMessageSentRecently, nil
	}

	if err := s.mailer.SendHostLobbyEmail(project.HostEmail, session.DisplayName(), project.Name); err != nil {
		logger.ErrorContext(ctx, "Failed to send host notification",
			"error", err, "session_id", sessionID)
		// Give the window back so the next attempt is not throttled by a
		// send that never happened.
		if relErr := s.sessionRepo.ReleaseHostEmail(ctx, sessionID, previous, now); relErr != nil {
			logger.ErrorContext(ctx, "Failed to release host email claim",
				"error", relErr, "session_id", sessionID)
		}
		return domain.SendFailed, nil
	}

	return domain.SendSuccess, nil
}
