package service

import (
	"context"
	"time"

	"github.com/diagnosis/guestlobby/internal/directory"
	"github.com/diagnosis/guestlobby/internal/domain"
	"github.com/diagnosis/guestlobby/internal/presence"
	"github.com/diagnosis/guestlobby/internal/repository"
	"github.com/diagnosis/guestlobby/pkg/events"
	"github.com/diagnosis/guestlobby/pkg/logger"
)

// LobbyService owns the derived per-project lobby state. Recalculate never
// returns an error: collaborator faults are logged and reported as
// LobbyStateError without touching the stored value. Concurrent
// recalculations race under last-write-wins; every run recomputes from
// current authoritative inputs, so this is safe.
type LobbyService interface {
	Create(ctx context.Context, projectID string) error
	Recalculate(ctx context.Context, projectID string) domain.LobbyState
	Delete(ctx context.Context, projectID string) error
	GetProjectStatus(ctx context.Context, projectID string) *domain.ProjectStatus
}

type lobbyService struct {
	lobbyRepo   repository.LobbyRepository
	sessionRepo repository.SessionRepository
	projects    directory.ProjectDirectory
	presence    presence.Service
	eventBus    events.Publisher
}

func NewLobbyService(
	lobbyRepo repository.LobbyRepository,
	sessionRepo repository.SessionRepository,
	projects directory.ProjectDirectory,
	presence presence.Service,
	eventBus events.Publisher,
) LobbyService {
	return &lobbyService{
		lobbyRepo:   lobbyRepo,
		sessionRepo: sessionRepo,
		projects:    projects,
		presence:    presence,
		eventBus:    eventBus,
	}
}

func (s *lobbyService) Create(ctx context.Context, projectID string) error {
	if err := s.lobbyRepo.Create(ctx, projectID, domain.LobbyStateUndefined, time.Now()); err != nil {
		return err
	}
	s.Recalculate(ctx, projectID)
	return nil
}

func (s *lobbyService) Recalculate(ctx context.Context, projectID string) domain.LobbyState {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		logger.ErrorContext(ctx, "Lobby recalculation: project lookup failed",
			"error", err, "project_id", projectID)
		return domain.LobbyStateError
	}
	if project == nil {
		// Project deleted while a recalculation was in flight; teardown
		// will remove the record.
		logger.WarnContext(ctx, "Lobby recalculation: project not found", "project_id", projectID)
		return domain.LobbyStateError
	}

	hostPresent, err := s.presence.IsHostPresent(ctx, projectID)
	if err != nil {
		logger.ErrorContext(ctx, "Lobby recalculation: host presence lookup failed",
			"error", err, "project_id", projectID)
		return domain.LobbyStateError
	}

	active, err := s.presence.CountActiveParticipants(ctx, projectID)
	if err != nil {
		logger.ErrorContext(ctx, "Lobby recalculation: participant count failed",
			"error", err, "project_id", projectID)
		return domain.LobbyStateError
	}

	limitReached := project.MaxGuests > 0 && active >= project.MaxGuests
	state := domain.CalculateLobbyState(limitReached, hostPresent)

	now := time.Now()
	previous := domain.LobbyStateUndefined
	if current, err := s.lobbyRepo.Get(ctx, projectID); err != nil {
		logger.ErrorContext(ctx, "Lobby recalculation: state read failed",
			"error", err, "project_id", projectID)
		return domain.LobbyStateError
	} else if current != nil {
		previous = current.State
	} else {
		// Recalculation can arrive before the project-created event; seed
		// the record so the conditional write below has a row to hit.
		if err := s.lobbyRepo.Create(ctx, projectID, domain.LobbyStateUndefined, now); err != nil {
			logger.ErrorContext(ctx, "Lobby recalculation: state init failed",
				"error", err, "project_id", projectID)
			return domain.LobbyStateError
		}
	}

	changed, err := s.lobbyRepo.SetStateIfChanged(ctx, projectID, state, now)
	if err != nil {
		logger.ErrorContext(ctx, "Lobby recalculation: state write failed",
			"error", err, "project_id", projectID)
		return domain.LobbyStateError
	}

	if changed {
		event := events.LobbyStateChangedEvent{
			ProjectID: projectID,
			Previous:  string(previous),
			Current:   string(state),
			ChangedAt: now,
		}
		if err := s.eventBus.Publish(ctx, events.LobbyStateChanged, event); err != nil {
			logger.ErrorContext(ctx, "Failed to publish lobby state change",
				"error", err, "project_id", projectID)
		}
	}

	return state
}

func (s *lobbyService) Delete(ctx context.Context, projectID string) error {
	return s.lobbyRepo.Delete(ctx, projectID)
}

func (s *lobbyService) GetProjectStatus(ctx context.Context, projectID string) *domain.ProjectStatus {
	status := &domain.ProjectStatus{
		ProjectID:  projectID,
		LobbyState: domain.LobbyStateUndefined,
	}

	record, err := s.lobbyRepo.Get(ctx, projectID)
	if err != nil {
		logger.ErrorContext(ctx, "Project status: lobby state read failed",
			"error", err, "project_id", projectID)
		status.LobbyState = domain.LobbyStateError
		return status
	}
	if record != nil {
		status.LobbyState = record.State
	}

	active, err := s.sessionRepo.CountActiveByProject(ctx, projectID)
	if err != nil {
		logger.ErrorContext(ctx, "Project status: session count failed",
			"error", err, "project_id", projectID)
		return status
	}
	status.ActiveGuests = active

	return status
}
