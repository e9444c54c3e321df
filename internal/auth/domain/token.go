package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrEmptyIssuer      = errors.New("domain: token issuer is empty")
	ErrEmptyScopes      = errors.New("domain: token has no scopes")
	ErrTokenLifetime    = errors.New("domain: token expiry is not after issuance")
	ErrMissingTimestamp = errors.New("domain: token timestamp is missing")
)

// AccessToken is the claim set of a short-lived bearer credential. Instances
// are immutable once constructed; renewal produces new values, never an
// in-place update. Timestamps are held at millisecond resolution, matching
// the wire encoding exactly.
type AccessToken struct {
	Issuer    string
	Audience  []string
	Handle    UserHandle
	SessionID SessionID
	Scopes    []string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// NewAccessToken validates and builds an AccessToken. Every field is
// required; absence is an error here, not a default.
func NewAccessToken(
	issuer string,
	audience []string,
	handle UserHandle,
	sessionID SessionID,
	scopes []string,
	issuedAt, expiresAt time.Time,
) (AccessToken, error) {
	if strings.TrimSpace(issuer) == "" {
		return AccessToken{}, ErrEmptyIssuer
	}
	if handle.IsZero() {
		return AccessToken{}, ErrInvalidHandle
	}
	if sessionID.IsZero() {
		return AccessToken{}, ErrInvalidSessionID
	}
	if len(scopes) == 0 {
		return AccessToken{}, ErrEmptyScopes
	}
	if issuedAt.IsZero() || expiresAt.IsZero() {
		return AccessToken{}, ErrMissingTimestamp
	}

	issuedAt = issuedAt.UTC().Truncate(time.Millisecond)
	expiresAt = expiresAt.UTC().Truncate(time.Millisecond)
	if !expiresAt.After(issuedAt) {
		return AccessToken{}, ErrTokenLifetime
	}

	return AccessToken{
		Issuer:    issuer,
		Audience:  append([]string(nil), audience...),
		Handle:    handle,
		SessionID: sessionID,
		Scopes:    append([]string(nil), scopes...),
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

// Scope returns the scopes as a single space-joined string, the form they
// take inside a signed token.
func (t AccessToken) Scope() string { return strings.Join(t.Scopes, " ") }

// RefreshToken is the claim set of the longer-lived renewal credential. It
// shares the access token's claim schema; a refresh token is only valid if
// an access token could legitimately be built from the same claims, which
// the constructor enforces.
type RefreshToken struct {
	Issuer    string
	Audience  []string
	Handle    UserHandle
	SessionID SessionID
	Scopes    []string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// NewRefreshToken validates the claim set by deriving the corresponding
// AccessToken shape, then builds the RefreshToken from the derived values.
func NewRefreshToken(
	issuer string,
	audience []string,
	handle UserHandle,
	sessionID SessionID,
	scopes []string,
	issuedAt, expiresAt time.Time,
) (RefreshToken, error) {
	shape, err := NewAccessToken(issuer, audience, handle, sessionID, scopes, issuedAt, expiresAt)
	if err != nil {
		return RefreshToken{}, err
	}

	return RefreshToken{
		Issuer:    shape.Issuer,
		Audience:  shape.Audience,
		Handle:    shape.Handle,
		SessionID: shape.SessionID,
		Scopes:    shape.Scopes,
		IssuedAt:  shape.IssuedAt,
		ExpiresAt: shape.ExpiresAt,
	}, nil
}

// Scope returns the scopes as a single space-joined string.
func (t RefreshToken) Scope() string { return strings.Join(t.Scopes, " ") }

// TokenPair is what the session endpoints return: the two signed strings
// plus the metadata a client needs to use them.
type TokenPair struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	TokenType    string        `json:"token_type,omitempty"` // typically "Bearer"
	ExpiresIn    time.Duration `json:"expires_in"`           // until access token expiry
	Scope        string        `json:"scope,omitempty"`      // space-delimited
}
