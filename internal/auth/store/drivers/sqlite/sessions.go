package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/quillfeed/quillfeed/internal/auth/domain"
)

type sessionsRepo struct {
	db dbtx
}

func (r *sessionsRepo) CreateSession(ctx context.Context, s domain.Session) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, handle, created_at, revoked_at)
		VALUES (?, ?, ?, ?, ?)`,
		s.ID.String(), s.UserID.String(), s.Handle.String(), s.CreatedAt, nullTime(s.RevokedAt),
	)
	return mapConflict(err)
}

func (r *sessionsRepo) GetSessionByID(ctx context.Context, id domain.SessionID) (domain.Session, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, handle, created_at, revoked_at
		FROM sessions WHERE id = ?`, id.String())

	var (
		s             domain.Session
		sid, uid, hdl string
		revokedAt     sql.NullTime
	)
	err := row.Scan(&sid, &uid, &hdl, &s.CreatedAt, &revokedAt)
	if err != nil {
		return domain.Session{}, mapNotFound(err)
	}

	s.ID = domain.SessionID(sid)
	s.UserID = domain.UserID(uid)
	s.Handle = domain.UserHandle(hdl)
	if revokedAt.Valid {
		t := revokedAt.Time
		s.RevokedAt = &t
	}
	return s, nil
}

func (r *sessionsRepo) RevokeSession(ctx context.Context, id domain.SessionID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET revoked_at = ? WHERE id = ? AND revoked_at IS NULL`,
		time.Now().UTC(), id.String())
	if err != nil {
		return err
	}

	// Revoking an already revoked session is a no-op, but an unknown
	// session id should surface as not found.
	if n, _ := res.RowsAffected(); n == 0 {
		var exists int
		row := r.db.QueryRowContext(ctx, `SELECT 1 FROM sessions WHERE id = ?`, id.String())
		if err := row.Scan(&exists); err != nil {
			return mapNotFound(err)
		}
	}
	return nil
}

func (r *sessionsRepo) DeleteRevokedSessionsBefore(ctx context.Context, cutoff time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE revoked_at IS NOT NULL AND revoked_at < ?`, cutoff.UTC())
	return err
}
