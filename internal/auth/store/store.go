package store

import (
	"context"
	"errors"
	"time"

	"github.com/quillfeed/quillfeed/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite today)
// implement this. The composition root owns the single Store value; nothing
// in the service layer keeps module-level mutable state.
type Store interface {
	Users() Users
	Sessions() Sessions
	RefreshTokens() RefreshTokens
	SigningKeys() SigningKeys

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction, committing on nil and
	// rolling back on error. This is the recommended way to run multi-step
	// operations that must be atomic (e.g., refresh rotation).
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id domain.UserID) (domain.User, error)

	// GetUserByHandle is used during login.
	GetUserByHandle(ctx context.Context, handle domain.UserHandle) (domain.User, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	CreateUser(ctx context.Context, u domain.User) error

	// UpdatePasswordHash sets the password_hash (argon2) and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID domain.UserID, newHash string) error

	// UpdateMFASecret sets the pending TOTP secret for a user.
	UpdateMFASecret(ctx context.Context, userID domain.UserID, secret string) error

	// EnableMFA marks MFA as enabled (sets mfa_enabled timestamp).
	EnableMFA(ctx context.Context, userID domain.UserID) error

	// DisableMFA clears mfa_enabled and mfa_secret.
	DisableMFA(ctx context.Context, userID domain.UserID) error

	// DeleteUser cascades to sessions and refresh_tokens (per schema).
	DeleteUser(ctx context.Context, userID domain.UserID) error
}

type Sessions interface {
	// CreateSession records a freshly created session.
	CreateSession(ctx context.Context, s domain.Session) error

	// GetSessionByID fetches a session by its identifier.
	GetSessionByID(ctx context.Context, id domain.SessionID) (domain.Session, error)

	// RevokeSession sets revoked_at; revoking twice is a no-op.
	RevokeSession(ctx context.Context, id domain.SessionID) error

	// DeleteRevokedSessionsBefore removes sessions revoked before the cutoff.
	DeleteRevokedSessionsBefore(ctx context.Context, cutoff time.Time) error
}

type RefreshTokens interface {
	// CreateRefreshToken stores a new refresh token record.
	CreateRefreshToken(ctx context.Context, t domain.RefreshRecord) error

	// GetRefreshTokenByHash returns the record by its fingerprint.
	GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshRecord, error)

	// RevokeRefreshToken flips revoked=1, sets updated_at.
	RevokeRefreshToken(ctx context.Context, hash string) error

	// RevokeSessionRefreshTokens bulk-revokes every token of one session.
	RevokeSessionRefreshTokens(ctx context.Context, sessionID domain.SessionID) error

	// DeleteExpiredRefreshTokens is housekeeping.
	DeleteExpiredRefreshTokens(ctx context.Context) error
}

type SigningKeys interface {
	// CreateSigningKey stores a new signing key with encrypted private key material.
	CreateSigningKey(ctx context.Context, key domain.SigningKey) error

	// GetSigningKeyByKid fetches a signing key by its key identifier.
	GetSigningKeyByKid(ctx context.Context, kid string) (domain.SigningKey, error)

	// ListActiveSigningKeys returns all non-retired, non-expired signing keys
	// ordered by creation date (newest first).
	ListActiveSigningKeys(ctx context.Context) ([]domain.SigningKey, error)

	// ListAllSigningKeys returns every key including retired ones, newest
	// first. Retired keys still verify during their grace period.
	ListAllSigningKeys(ctx context.Context) ([]domain.SigningKey, error)

	// RetireSigningKey marks a key as retired (sets retired_at timestamp).
	RetireSigningKey(ctx context.Context, kid string) error

	// DeleteExpiredSigningKeys removes keys past expires_at.
	DeleteExpiredSigningKeys(ctx context.Context) error
}
