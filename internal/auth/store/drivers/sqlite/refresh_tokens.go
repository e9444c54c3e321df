package sqlite

import (
	"context"
	"time"

	"github.com/quillfeed/quillfeed/internal/auth/domain"
)

type refreshTokensRepo struct {
	db dbtx
}

func (r *refreshTokensRepo) CreateRefreshToken(ctx context.Context, rec domain.RefreshRecord) error {
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = now
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO refresh_tokens (id, user_id, session_id, token_hash, expires_at, revoked, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID.String(), rec.SessionID.String(),
		rec.TokenHash, rec.ExpiresAt.UTC(), rec.Revoked, rec.CreatedAt, rec.UpdatedAt,
	)
	return mapConflict(err)
}

func (r *refreshTokensRepo) GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, session_id, token_hash, expires_at, revoked, created_at, updated_at
		FROM refresh_tokens WHERE token_hash = ?`, hash)

	var (
		rec      domain.RefreshRecord
		uid, sid string
	)
	err := row.Scan(&rec.ID, &uid, &sid, &rec.TokenHash, &rec.ExpiresAt,
		&rec.Revoked, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return domain.RefreshRecord{}, mapNotFound(err)
	}

	rec.UserID = domain.UserID(uid)
	rec.SessionID = domain.SessionID(sid)
	return rec, nil
}

func (r *refreshTokensRepo) RevokeRefreshToken(ctx context.Context, hash string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked = 1, updated_at = ? WHERE token_hash = ?`,
		time.Now().UTC(), hash)
	return err
}

func (r *refreshTokensRepo) RevokeSessionRefreshTokens(ctx context.Context, sessionID domain.SessionID) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked = 1, updated_at = ? WHERE session_id = ? AND revoked = 0`,
		time.Now().UTC(), sessionID.String())
	return err
}

func (r *refreshTokensRepo) DeleteExpiredRefreshTokens(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM refresh_tokens WHERE expires_at < ?`, time.Now().UTC())
	return err
}
