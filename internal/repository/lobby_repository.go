package repository

import (
	"context"
	"time"

	"github.com/diagnosis/guestlobby/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type LobbyRepository interface {
	Get(ctx context.Context, projectID string) (*domain.ProjectLobbyState, error)
	// Create initializes the record; an existing record is left untouched so
	// replayed project-created events stay idempotent.
	Create(ctx context.Context, projectID string, state domain.LobbyState, at time.Time) error
	// SetStateIfChanged writes only when the stored value differs, reporting
	// whether a transition happened. Redundant recalculations produce no
	// write and no notification.
	SetStateIfChanged(ctx context.Context, projectID string, state domain.LobbyState, at time.Time) (bool, error)
	Delete(ctx context.Context, projectID string) error
}

type lobbyRepository struct {
	pool *pgxpool.Pool
}

func NewLobbyRepository(pool *pgxpool.Pool) LobbyRepository {
	return &lobbyRepository{pool: pool}
}

func (r *lobbyRepository) Get(ctx context.Context, projectID string) (*domain.ProjectLobbyState, error) {
	const q = `SELECT project_id, state, updated_at FROM project_lobby_state WHERE project_id = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var ls domain.ProjectLobbyState
	err := r.pool.QueryRow(ctx, q, projectID).Scan(&ls.ProjectID, &ls.State, &ls.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ls, nil
}

func (r *lobbyRepository) Create(ctx context.Context, projectID string, state domain.LobbyState, at time.Time) error {
	const q = `
		INSERT INTO project_lobby_state (project_id, state, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (project_id) DO NOTHING`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, projectID, state, at)
	return err
}

func (r *lobbyRepository) SetStateIfChanged(ctx context.Context, projectID string, state domain.LobbyState, at time.Time) (bool, error) {
	const q = `
		UPDATE project_lobby_state
		SET state = $2, updated_at = $3
		WHERE project_id = $1 AND state <> $2`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, projectID, state, at)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

func (r *lobbyRepository) Delete(ctx context.Context, projectID string) error {
	const q = `DELETE FROM project_lobby_state WHERE project_id = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	// Deleting an absent record is a no-op.
	_, err := r.pool.Exec(ctx, q, projectID)
	return err
}
