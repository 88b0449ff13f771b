package service

import (
	"context"
	"fmt"
	"time"

	"github.com/diagnosis/guestlobby/internal/domain"
	"github.com/diagnosis/guestlobby/internal/repository"
	"github.com/diagnosis/guestlobby/pkg/auth"
	"github.com/diagnosis/guestlobby/pkg/config"
	"github.com/diagnosis/guestlobby/pkg/events"
	"github.com/diagnosis/guestlobby/pkg/logger"
	"github.com/google/uuid"
)

// CreateSessionResult carries the verification outcome and, when admission
// succeeded, the new session plus its guest token.
type CreateSessionResult struct {
	Code    domain.VerifyGuestCode `json:"code"`
	Session *domain.GuestSession   `json:"session,omitempty"`
	Token   string                 `json:"token,omitempty"`
}

// BulkEndReport summarizes a best-effort bulk end. Failed holds the ids of
// sessions whose ending failed; the batch never aborts on them.
type BulkEndReport struct {
	Ended  int      `json:"ended"`
	Failed []string `json:"failed,omitempty"`
}

type SessionService interface {
	Create(ctx context.Context, req *domain.CreateGuestSessionRequest) (*CreateSessionResult, error)
	Get(ctx context.Context, id string) (*domain.GuestSession, error)
	ListByProject(ctx context.Context, projectID string) ([]domain.GuestSession, error)
	GrantAccess(ctx context.Context, id, grantedBy string) (*domain.GuestSession, error)
	RevokeAccess(ctx context.Context, id, revokedBy string) (*domain.GuestSession, error)
	BulkEnd(ctx context.Context, projectID, reason string) (*BulkEndReport, error)
	DeleteForProject(ctx context.Context, projectID string, notify bool) error
}

type sessionService struct {
	sessionRepo repository.SessionRepository
	inviteRepo  repository.InviteRepository
	verify      VerifyService
	lobby       LobbyService
	eventBus    events.Publisher
	config      *config.Config
}

func NewSessionService(
	sessionRepo repository.SessionRepository,
	inviteRepo repository.InviteRepository,
	verify VerifyService,
	lobby LobbyService,
	eventBus events.Publisher,
	config *config.Config,
) SessionService {
	return &sessionService{
		sessionRepo: sessionRepo,
		inviteRepo:  inviteRepo,
		verify:      verify,
		lobby:       lobby,
		eventBus:    eventBus,
		config:      config,
	}
}

func (s *sessionService) Create(ctx context.Context, req *domain.CreateGuestSessionRequest) (*CreateSessionResult, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	ref := domain.ProjectRef{ProjectID: req.ProjectID, AccessCode: req.ProjectAccessCode}
	result := s.verify.VerifyGuest(ctx, req.Username, ref)
	if result.Code != domain.VerifySuccess && result.Code != domain.VerifySuccessNoUser {
		return &CreateSessionResult{Code: result.Code}, nil
	}

	project := result.Project

	existing, err := s.sessionRepo.FindActive(ctx, result.UserID, req.Username, project.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check for existing session: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrSessionExists
	}

	now := time.Now()
	session := &domain.GuestSession{
		ID:                uuid.NewString(),
		UserID:            result.UserID,
		ProjectID:         project.ID,
		ProjectAccessCode: project.AccessCode,
		State:             domain.SessionInLobby,
		Email:             req.Username,
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		CreatedAt:         now,
		LastAccessAt:      now,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create guest session: %w", err)
	}

	token, err := auth.NewGuestSessionToken(
		session.ID, project.ID, session.Email,
		s.config.Auth.JWTSecret, s.config.Auth.GuestSessionTTL,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to mint guest session token: %w", err)
	}

	event := events.GuestSessionCreatedEvent{
		SessionID: session.ID,
		ProjectID: session.ProjectID,
		UserID:    session.UserID,
		Email:     session.Email,
		CreatedAt: session.CreatedAt,
	}
	if err := s.eventBus.Publish(ctx, events.GuestSessionCreated, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish guest session created event",
			"error", err, "session_id", session.ID)
	}

	s.lobby.Recalculate(ctx, session.ProjectID)

	return &CreateSessionResult{Code: result.Code, Session: session, Token: token}, nil
}

func (s *sessionService) Get(ctx context.Context, id string) (*domain.GuestSession, error) {
	session, err := s.sessionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, domain.ErrNotFound
	}
	return session, nil
}

func (s *sessionService) ListByProject(ctx context.Context, projectID string) ([]domain.GuestSession, error) {
	return s.sessionRepo.ListByProject(ctx, projectID)
}

// GrantAccess admits an InLobby guest into the project. The conditional
// repository update serializes racing mutations on the same session: only
// one wins from a given prior state.
func (s *sessionService) GrantAccess(ctx context.Context, id, grantedBy string) (*domain.GuestSession, error) {
	session, err := s.sessionRepo.Grant(ctx, id, grantedBy, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to grant access: %w", err)
	}
	if session == nil {
		existing, err := s.sessionRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrInvalidTransition
	}

	s.lobby.Recalculate(ctx, session.ProjectID)

	return session, nil
}

// RevokeAccess ends a session from either live state. Revoking an already
// Ended session is a no-op that returns the unchanged session.
func (s *sessionService) RevokeAccess(ctx context.Context, id, revokedBy string) (*domain.GuestSession, error) {
	session, err := s.sessionRepo.End(ctx, id, revokedBy, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to revoke access: %w", err)
	}
	if session == nil {
		existing, err := s.sessionRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, domain.ErrNotFound
		}
		return existing, nil
	}

	s.publishEnded(ctx, session, "revoked")
	s.lobby.Recalculate(ctx, session.ProjectID)

	return session, nil
}

func (s *sessionService) BulkEnd(ctx context.Context, projectID, reason string) (*BulkEndReport, error) {
	report, err := s.bulkEnd(ctx, projectID, reason, true)
	if err != nil {
		return nil, err
	}
	if report.Ended > 0 {
		s.lobby.Recalculate(ctx, projectID)
	}
	return report, nil
}

func (s *sessionService) bulkEnd(ctx context.Context, projectID, reason string, notify bool) (*BulkEndReport, error) {
	sessions, err := s.sessionRepo.ListActiveByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active sessions: %w", err)
	}

	report := &BulkEndReport{}
	now := time.Now()

	for _, session := range sessions {
		ended, err := s.sessionRepo.End(ctx, session.ID, reason, now)
		if err != nil {
			// Best effort: one failure never aborts the batch.
			logger.ErrorContext(ctx, "Failed to end guest session during bulk end",
				"error", err, "session_id", session.ID, "project_id", projectID)
			report.Failed = append(report.Failed, session.ID)
			continue
		}
		if ended == nil {
			// Already ended by a concurrent event; nothing to report.
			continue
		}
		report.Ended++
		if notify {
			s.publishEnded(ctx, ended, reason)
		}
	}

	return report, nil
}

// DeleteForProject is whole-project teardown: every live session is ended
// (with notifications when notify is set), then sessions and invites are
// physically removed.
func (s *sessionService) DeleteForProject(ctx context.Context, projectID string, notify bool) error {
	if _, err := s.bulkEnd(ctx, projectID, "project_deleted", notify); err != nil {
		return err
	}

	deleted, err := s.sessionRepo.DeleteByProject(ctx, projectID)
	if err != nil {
		return fmt.Errorf("failed to delete sessions: %w", err)
	}

	if _, err := s.inviteRepo.DeleteByProject(ctx, projectID); err != nil {
		return fmt.Errorf("failed to delete invites: %w", err)
	}

	logger.InfoContext(ctx, "Deleted guest sessions for project",
		"project_id", projectID, "count", deleted)

	return nil
}

func (s *sessionService) publishEnded(ctx context.Context, session *domain.GuestSession, reason string) {
	event := events.GuestSessionEndedEvent{
		SessionID: session.ID,
		ProjectID: session.ProjectID,
		Reason:    reason,
		EndedAt:   time.Now(),
	}
	if err := s.eventBus.Publish(ctx, events.GuestSessionEnded, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish guest session ended event",
			"error", err, "session_id", session.ID)
	}
}
