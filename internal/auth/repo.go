package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rentaldesk/rentaldesk/internal/platform/db"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	CreateSession(ctx context.Context, rec LoginRecord) error
	DeleteSession(ctx context.Context, id string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const (
	insertSession = `INSERT INTO dashboard_sessions (id, subject, role, created_at, expires_at, ip, user_agent)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET subject = EXCLUDED.subject, role = EXCLUDED.role,
	created_at = EXCLUDED.created_at, expires_at = EXCLUDED.expires_at,
	ip = EXCLUDED.ip, user_agent = EXCLUDED.user_agent`
	pruneSessions = `DELETE FROM dashboard_sessions WHERE expires_at < $1`
	deleteSession = `DELETE FROM dashboard_sessions WHERE id = $1`
)

// CreateSession records a sign-in and prunes rows that have expired.
func (r *PGRepository) CreateSession(ctx context.Context, rec LoginRecord) error {
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, insertSession,
			rec.SessionID,
			rec.Subject,
			rec.Role,
			pgtype.Timestamptz{Time: created.UTC(), Valid: true},
			pgtype.Timestamptz{Time: rec.ExpiresAt.UTC(), Valid: true},
			pgtype.Text{String: rec.IP, Valid: rec.IP != ""},
			pgtype.Text{String: rec.UserAgent, Valid: rec.UserAgent != ""},
		); err != nil {
			return fmt.Errorf("auth: insert session: %w", err)
		}
		if _, err := tx.Exec(ctx, pruneSessions, pgtype.Timestamptz{Time: created.UTC(), Valid: true}); err != nil {
			return fmt.Errorf("auth: prune sessions: %w", err)
		}
		return nil
	})
}

// DeleteSession removes a session record.
func (r *PGRepository) DeleteSession(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, deleteSession, id); err != nil {
		return fmt.Errorf("auth: delete session: %w", err)
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
