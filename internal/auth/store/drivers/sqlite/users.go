package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/quillfeed/quillfeed/internal/auth/domain"
)

type usersRepo struct {
	db dbtx
}

const userColumns = `id, handle, display_name, password_hash, mfa_enabled, mfa_secret, created_at, updated_at`

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = now
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, handle, display_name, password_hash, mfa_enabled, mfa_secret, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID.String(), u.Handle.String(), u.DisplayName, u.PasswordHash,
		nullTime(u.MFAEnabled), nullString(u.MFASecret), u.CreatedAt, u.UpdatedAt,
	)
	return mapConflict(err)
}

func (r *usersRepo) GetUserByID(ctx context.Context, id domain.UserID) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id.String())
	return scanUser(row)
}

func (r *usersRepo) GetUserByHandle(ctx context.Context, handle domain.UserHandle) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE handle = ?`, handle.String())
	return scanUser(row)
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID domain.UserID, newHash string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		newHash, time.Now().UTC(), userID.String())
	return err
}

func (r *usersRepo) UpdateMFASecret(ctx context.Context, userID domain.UserID, secret string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET mfa_secret = ?, updated_at = ? WHERE id = ?`,
		secret, time.Now().UTC(), userID.String())
	return err
}

func (r *usersRepo) EnableMFA(ctx context.Context, userID domain.UserID) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET mfa_enabled = ?, updated_at = ? WHERE id = ?`,
		now, now, userID.String())
	return err
}

func (r *usersRepo) DisableMFA(ctx context.Context, userID domain.UserID) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET mfa_enabled = NULL, mfa_secret = NULL, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), userID.String())
	return err
}

func (r *usersRepo) DeleteUser(ctx context.Context, userID domain.UserID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, userID.String())
	return err
}

func scanUser(row *sql.Row) (domain.User, error) {
	var (
		u          domain.User
		id, handle string
		mfaEnabled sql.NullTime
		mfaSecret  sql.NullString
	)

	err := row.Scan(&id, &handle, &u.DisplayName, &u.PasswordHash,
		&mfaEnabled, &mfaSecret, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}

	u.ID = domain.UserID(id)
	u.Handle = domain.UserHandle(handle)
	if mfaEnabled.Valid {
		t := mfaEnabled.Time
		u.MFAEnabled = &t
	}
	if mfaSecret.Valid {
		s := mfaSecret.String
		u.MFASecret = &s
	}
	return u, nil
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
