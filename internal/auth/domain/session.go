package domain

import "time"

// Session models a stored authenticated session. One session spans one or
// more token pairs over its lifetime via renewal; revoking it invalidates
// every refresh token minted under it.
type Session struct {
	ID        SessionID
	UserID    UserID
	Handle    UserHandle
	CreatedAt time.Time
	RevokedAt *time.Time // nil = live
}

// Revoked reports whether the session has been revoked.
func (s *Session) Revoked() bool { return s.RevokedAt != nil }

// RefreshRecord models the stored bookkeeping row for an issued refresh
// token. The signed string itself is never stored, only its fingerprint.
type RefreshRecord struct {
	ID        string // ULID
	UserID    UserID
	SessionID SessionID
	TokenHash string // deterministic fingerprint (base64url SHA-256)
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
