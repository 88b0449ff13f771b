package repository

import (
	"context"
	"time"

	"github.com/diagnosis/guestlobby/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SessionRepository interface {
	Create(ctx context.Context, s *domain.GuestSession) error
	GetByID(ctx context.Context, id string) (*domain.GuestSession, error)
	ListByProject(ctx context.Context, projectID string) ([]domain.GuestSession, error)
	ListActiveByProject(ctx context.Context, projectID string) ([]domain.GuestSession, error)
	FindActive(ctx context.Context, userID, email, projectID string) (*domain.GuestSession, error)
	CountActiveByProject(ctx context.Context, projectID string) (int, error)
	// Grant moves an InLobby session to InProject. Returns (nil, nil) when
	// the session is missing or not InLobby; the compare-and-set on state
	// keeps concurrent grants from both succeeding.
	Grant(ctx context.Context, id, grantedBy string, at time.Time) (*domain.GuestSession, error)
	// End moves any non-Ended session to Ended. Returns (nil, nil) when the
	// session is missing or already Ended.
	End(ctx context.Context, id, revokedBy string, at time.Time) (*domain.GuestSession, error)
	TouchLastAccess(ctx context.Context, id string, at time.Time) error
	// ClaimHostEmail atomically sets emailed_host_at = now when the previous
	// send is older than the window. Reports whether the claim was won.
	ClaimHostEmail(ctx context.Context, id string, now time.Time, window time.Duration) (bool, error)
	// ReleaseHostEmail restores the pre-claim timestamp after a transport
	// failure; only the matching claim is released.
	ReleaseHostEmail(ctx context.Context, id string, previous *time.Time, claimed time.Time) error
	DeleteByProject(ctx context.Context, projectID string) (int64, error)
}

type sessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(pool *pgxpool.Pool) SessionRepository {
	return &sessionRepository{pool: pool}
}

const sessionCols = `id, user_id, project_id, project_access_code, state,
	access_granted_by, access_granted_at, access_revoked_by, access_revoked_at,
	emailed_host_at, email, first_name, last_name, created_at, last_access_at`

func scanSession(row pgx.Row) (*domain.GuestSession, error) {
	var s domain.GuestSession
	err := row.Scan(
		&s.ID, &s.UserID, &s.ProjectID, &s.ProjectAccessCode, &s.State,
		&s.AccessGrantedBy, &s.AccessGrantedAt, &s.AccessRevokedBy, &s.AccessRevokedAt,
		&s.EmailedHostAt, &s.Email, &s.FirstName, &s.LastName, &s.CreatedAt, &s.LastAccessAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepository) Create(ctx context.Context, s *domain.GuestSession) error {
	const q = `
		INSERT INTO guest_sessions
			(id, user_id, project_id, project_access_code, state, email, first_name, last_name, created_at, last_access_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q,
		s.ID, s.UserID, s.ProjectID, s.ProjectAccessCode, s.State,
		s.Email, s.FirstName, s.LastName, s.CreatedAt, s.LastAccessAt,
	)
	return err
}

func (r *sessionRepository) GetByID(ctx context.Context, id string) (*domain.GuestSession, error) {
	const q = `SELECT ` + sessionCols + ` FROM guest_sessions WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	s, err := scanSession(r.pool.QueryRow(ctx, q, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return s, err
}

func (r *sessionRepository) ListByProject(ctx context.Context, projectID string) ([]domain.GuestSession, error) {
	const q = `SELECT ` + sessionCols + ` FROM guest_sessions WHERE project_id = $1 ORDER BY created_at`
	return r.list(ctx, q, projectID)
}

func (r *sessionRepository) ListActiveByProject(ctx context.Context, projectID string) ([]domain.GuestSession, error) {
	const q = `SELECT ` + sessionCols + ` FROM guest_sessions WHERE project_id = $1 AND state <> 'ended' ORDER BY created_at`
	return r.list(ctx, q, projectID)
}

func (r *sessionRepository) list(ctx context.Context, q string, args ...any) ([]domain.GuestSession, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []domain.GuestSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}

	return sessions, rows.Err()
}

func (r *sessionRepository) FindActive(ctx context.Context, userID, email, projectID string) (*domain.GuestSession, error) {
	// Accountless guests are keyed by email instead of user id.
	const q = `
		SELECT ` + sessionCols + `
		FROM guest_sessions
		WHERE project_id = $1 AND state <> 'ended'
		  AND (($2 <> '' AND user_id = $2) OR email = $3)
		LIMIT 1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	s, err := scanSession(r.pool.QueryRow(ctx, q, projectID, userID, email))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return s, err
}

func (r *sessionRepository) CountActiveByProject(ctx context.Context, projectID string) (int, error) {
	const q = `SELECT count(*) FROM guest_sessions WHERE project_id = $1 AND state <> 'ended'`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var n int
	err := r.pool.QueryRow(ctx, q, projectID).Scan(&n)
	return n, err
}

func (r *sessionRepository) Grant(ctx context.Context, id, grantedBy string, at time.Time) (*domain.GuestSession, error) {
	const q = `
		UPDATE guest_sessions
		SET state = 'in_project', access_granted_by = $2, access_granted_at = $3, last_access_at = $3
		WHERE id = $1 AND state = 'in_lobby'
		RETURNING ` + sessionCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	s, err := scanSession(r.pool.QueryRow(ctx, q, id, grantedBy, at))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return s, err
}

func (r *sessionRepository) End(ctx context.Context, id, revokedBy string, at time.Time) (*domain.GuestSession, error) {
	const q = `
		UPDATE guest_sessions
		SET state = 'ended', access_revoked_by = $2, access_revoked_at = $3
		WHERE id = $1 AND state <> 'ended'
		RETURNING ` + sessionCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	s, err := scanSession(r.pool.QueryRow(ctx, q, id, revokedBy, at))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return s, err
}

func (r *sessionRepository) TouchLastAccess(ctx context.Context, id string, at time.Time) error {
	const q = `UPDATE guest_sessions SET last_access_at = $2 WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, id, at)
	return err
}

func (r *sessionRepository) ClaimHostEmail(ctx context.Context, id string, now time.Time, window time.Duration) (bool, error) {
	const q = `
		UPDATE guest_sessions
		SET emailed_host_at = $2
		WHERE id = $1 AND (emailed_host_at IS NULL OR emailed_host_at <= $3)`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, id, now, now.Add(-window))
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

func (r *sessionRepository) ReleaseHostEmail(ctx context.Context, id string, previous *time.Time, claimed time.Time) error {
	const q = `UPDATE guest_sessions SET emailed_host_at = $2 WHERE id = $1 AND emailed_host_at = $3`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, id, previous, claimed)
	return err
}

func (r *sessionRepository) DeleteByProject(ctx context.Context, projectID string) (int64, error) {
	const q = `DELETE FROM guest_sessions WHERE project_id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, projectID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
