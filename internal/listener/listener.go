package listener

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/diagnosis/guestlobby/internal/service"
	"github.com/diagnosis/guestlobby/pkg/config"
	"github.com/diagnosis/guestlobby/pkg/events"
	"github.com/diagnosis/guestlobby/pkg/logger"
	"github.com/diagnosis/guestlobby/pkg/retry"
)

// Listener owns the event handlers that keep guest sessions and lobby state
// consistent with the rest of the platform. Every handler is idempotent:
// replayed or reordered deliveries converge on the same state.
type Listener struct {
	sessions service.SessionService
	lobby    service.LobbyService
	config   *config.Config
}

func New(sessions service.SessionService, lobby service.LobbyService, config *config.Config) *Listener {
	return &Listener{
		sessions: sessions,
		lobby:    lobby,
		config:   config,
	}
}

func (l *Listener) Register(d *events.Dispatcher) error {
	registrations := map[string]events.Handler{
		events.ProjectCreated:           l.onProjectCreated,
		events.ProjectDeleted:           l.onProjectDeleted,
		events.ProjectAccessCodeChanged: l.onAccessCodeChanged,
		events.ProjectGuestsKick:        l.onGuestsKick,
		events.LobbyRecalculate:         l.onRecalculate,
	}

	for subject, handler := range registrations {
		if err := d.Handle(subject, handler); err != nil {
			return err
		}
	}
	return nil
}

func (l *Listener) onProjectCreated(ctx context.Context, msg *events.Message) error {
	var event events.ProjectCreatedEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		return fmt.Errorf("malformed project created event: %w", err)
	}

	logger.InfoContext(ctx, "Project created, initializing lobby state", "project_id", event.ProjectID)
	return l.lobby.Create(ctx, event.ProjectID)
}

func (l *Listener) onProjectDeleted(ctx context.Context, msg *events.Message) error {
	projectID, err := projectIDFrom(msg)
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "Project deleted, tearing down guest state", "project_id", projectID)

	if err := l.sessions.DeleteForProject(ctx, projectID, true); err != nil {
		return err
	}
	return l.lobby.Delete(ctx, projectID)
}

func (l *Listener) onAccessCodeChanged(ctx context.Context, msg *events.Message) error {
	projectID, err := projectIDFrom(msg)
	if err != nil {
		return err
	}

	// A changed code invalidates every session admitted under the old one.
	report, err := l.sessions.BulkEnd(ctx, projectID, "access_code_changed")
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "Ended guest sessions after access code change",
		"project_id", projectID, "ended", report.Ended, "failed", len(report.Failed))
	return nil
}

// onGuestsKick retries because the triggering notification is best-effort:
// transient storage contention should not cost the kick. Exhaustion is
// returned to the dispatcher, which logs and swallows it.
func (l *Listener) onGuestsKick(ctx context.Context, msg *events.Message) error {
	projectID, err := projectIDFrom(msg)
	if err != nil {
		return err
	}

	cfg := retry.Config{
		Attempts: l.config.Lobby.KickRetryAttempts,
		Backoff:  l.config.Lobby.KickRetryBackoff,
	}

	return retry.Do(ctx, cfg, func(ctx context.Context) error {
		report, err := l.sessions.BulkEnd(ctx, projectID, "kicked")
		if err != nil {
			return err
		}
		logger.InfoContext(ctx, "Kicked guests from project",
			"project_id", projectID, "ended", report.Ended, "failed", len(report.Failed))
		return nil
	})
}

func (l *Listener) onRecalculate(ctx context.Context, msg *events.Message) error {
	projectID, err := projectIDFrom(msg)
	if err != nil {
		return err
	}

	l.lobby.Recalculate(ctx, projectID)
	return nil
}

func projectIDFrom(msg *events.Message) (string, error) {
	var event events.ProjectEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		return "", fmt.Errorf("malformed project event: %w", err)
	}
	if event.ProjectID == "" {
		return "", fmt.Errorf("project event without project_id on %s", msg.Subject)
	}
	return event.ProjectID, nil
}
