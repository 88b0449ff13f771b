package repository

import (
	"context"
	"time"

	"github.com/diagnosis/guestlobby/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type InviteRepository interface {
	Create(ctx context.Context, inv *domain.GuestInvite) error
	ListByProject(ctx context.Context, projectID string) ([]domain.GuestInvite, error)
	DeleteByProject(ctx context.Context, projectID string) (int64, error)
}

type inviteRepository struct {
	pool *pgxpool.Pool
}

func NewInviteRepository(pool *pgxpool.Pool) InviteRepository {
	return &inviteRepository{pool: pool}
}

const inviteCols = `id, invited_by, project_id, guest_email, project_access_code, created_at`

func (r *inviteRepository) Create(ctx context.Context, inv *domain.GuestInvite) error {
	const q = `
		INSERT INTO guest_invites (id, invited_by, project_id, guest_email, project_access_code, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q,
		inv.ID, inv.InvitedBy, inv.ProjectID, inv.GuestEmail, inv.ProjectAccessCode, inv.CreatedAt,
	)
	return err
}

func (r *inviteRepository) ListByProject(ctx context.Context, projectID string) ([]domain.GuestInvite, error) {
	const q = `SELECT ` + inviteCols + ` FROM guest_invites WHERE project_id = $1 ORDER BY created_at DESC`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invites []domain.GuestInvite
	for rows.Next() {
		var inv domain.GuestInvite
		if err := rows.Scan(
			&inv.ID, &inv.InvitedBy, &inv.ProjectID, &inv.GuestEmail, &inv.ProjectAccessCode, &inv.CreatedAt,
		); err != nil {
			return nil, err
		}
		invites = append(invites, inv)
	}

	return invites, rows.Err()
}

func (r *inviteRepository) DeleteByProject(ctx context.Context, projectID string) (int64, error) {
	const q = `DELETE FROM guest_invites WHERE project_id = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, projectID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
