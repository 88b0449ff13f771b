package service

import (
	"context"
	"fmt"
	"time"

	"github.com/diagnosis/guestlobby/internal/directory"
	"github.com/diagnosis/guestlobby/internal/domain"
	"github.com/diagnosis/guestlobby/internal/mailer"
	"github.com/diagnosis/guestlobby/internal/repository"
	"github.com/diagnosis/guestlobby/pkg/config"
	"github.com/diagnosis/guestlobby/pkg/events"
	"github.com/diagnosis/guestlobby/pkg/logger"
	"github.com/google/uuid"
)

type InviteService interface {
	Create(ctx context.Context, projectID string, req *domain.CreateInviteRequest) (*domain.GuestInvite, error)
	ListByProject(ctx context.Context, projectID string) ([]domain.GuestInvite, error)
}

type inviteService struct {
	inviteRepo repository.InviteRepository
	projects   directory.ProjectDirectory
	mailer     mailer.Service
	eventBus   events.Publisher
	config     *config.Config
}

func NewInviteService(
	inviteRepo repository.InviteRepository,
	projects directory.ProjectDirectory,
	mailer mailer.Service,
	eventBus events.Publisher,
	config *config.Config,
) InviteService {
	return &inviteService{
		inviteRepo: inviteRepo,
		projects:   projects,
		mailer:     mailer,
		eventBus:   eventBus,
		config:     config,
	}
}

func (s *inviteService) Create(ctx context.Context, projectID string, req *domain.CreateInviteRequest) (*domain.GuestInvite, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("project lookup failed: %w", err)
	}
	if project == nil {
		return nil, domain.ErrNotFound
	}

	invite := &domain.GuestInvite{
		ID:                uuid.NewString(),
		InvitedBy:         req.InvitedBy,
		ProjectID:         project.ID,
		GuestEmail:        req.GuestEmail,
		ProjectAccessCode: project.AccessCode,
		CreatedAt:         time.Now(),
	}

	if err := s.inviteRepo.Create(ctx, invite); err != nil {
		return nil, fmt.Errorf("failed to create invite: %w", err)
	}

	joinURL := fmt.Sprintf("%s/join?code=%s", s.config.Email.JoinBaseURL, project.AccessCode)
	if err := s.mailer.SendGuestInviteEmail(invite.GuestEmail, project.Name, project.AccessCode, joinURL); err != nil {
		// The invite exists either way; the code can still be shared by hand.
		logger.ErrorContext(ctx, "Failed to send invite email",
			"error", err, "invite_id", invite.ID, "guest_email", invite.GuestEmail)
	}

	event := events.GuestInviteCreatedEvent{
		InviteID:   invite.ID,
		ProjectID:  invite.ProjectID,
		GuestEmail: invite.GuestEmail,
		InvitedBy:  invite.InvitedBy,
		CreatedAt:  invite.CreatedAt,
	}
	if err := s.eventBus.Publish(ctx, events.GuestInviteCreated, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish invite created event",
			"error", err, "invite_id", invite.ID)
	}

	return invite, nil
}

func (s *inviteService) ListByProject(ctx context.Context, projectID string) ([]domain.GuestInvite, error) {
	return s.inviteRepo.ListByProject(ctx, projectID)
}
