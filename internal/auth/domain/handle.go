package domain

import (
	"errors"
	"regexp"
	"strings"

	"github.com/quillfeed/quillfeed/pkg/idx"
)

var (
	ErrInvalidHandle    = errors.New("domain: invalid user handle")
	ErrInvalidUserID    = errors.New("domain: invalid user id")
	ErrInvalidSessionID = errors.New("domain: invalid session id")
)

// handlePattern is the canonical handle shape: lowercase alphanumeric with
// inner dots, dashes and underscores, 3 to 32 characters.
var handlePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]{1,30}[a-z0-9]$`)

// UserHandle is the public name a user signs in with. It is always stored
// and compared in its normalized (trimmed, lowercased) form.
type UserHandle string

// ParseUserHandle normalizes raw input and validates it against the handle
// format. Anything that doesn't fit is rejected rather than coerced.
func ParseUserHandle(raw string) (UserHandle, error) {
	h := strings.ToLower(strings.TrimSpace(raw))
	if !handlePattern.MatchString(h) {
		return "", ErrInvalidHandle
	}
	return UserHandle(h), nil
}

func (h UserHandle) IsZero() bool   { return h == "" }
func (h UserHandle) String() string { return string(h) }

// UserID identifies a user record. ULID-shaped.
type UserID string

func ParseUserID(raw string) (UserID, error) {
	id, err := idx.Parse(raw)
	if err != nil {
		return "", ErrInvalidUserID
	}
	return UserID(id), nil
}

// NewUserID mints a fresh user identifier.
func NewUserID() UserID { return UserID(idx.New()) }

func (id UserID) IsZero() bool   { return id == "" }
func (id UserID) String() string { return string(id) }

// SessionID is the stable handle for one authenticated session. Every token
// pair minted over the session's lifetime carries the same SessionID, which
// is what a revocation store indexes by.
type SessionID string

func ParseSessionID(raw string) (SessionID, error) {
	id, err := idx.Parse(raw)
	if err != nil {
		return "", ErrInvalidSessionID
	}
	return SessionID(id), nil
}

// NewSessionID mints a fresh session identifier. Freshness per call is all
// this guarantees; global uniqueness enforcement belongs to the store.
func NewSessionID() SessionID { return SessionID(idx.New()) }

func (id SessionID) IsZero() bool   { return id == "" }
func (id SessionID) String() string { return string(id) }
