package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/quillfeed/quillfeed/internal/auth/domain"
	"github.com/quillfeed/quillfeed/internal/auth/keys"
	"github.com/quillfeed/quillfeed/internal/auth/store"
	"github.com/quillfeed/quillfeed/pkg/cryptox"
	"github.com/quillfeed/quillfeed/pkg/idx"
	"github.com/quillfeed/quillfeed/pkg/slogx"
)

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrInvalidRefresh     = errors.New("invalid_refresh_token")
	ErrSessionRevoked     = errors.New("session_revoked")
	ErrSessionNotFound    = errors.New("session_not_found")
)

// SessionService owns the session lifecycle: creating a session with its
// first token pair, renewing it through refresh rotation, and tearing it
// down. It is the only writer of sessions and refresh_tokens rows.
type SessionService struct {
	Keys       *keys.ServerKey
	Store      store.Store
	Issuer     string
	Audience   []string
	Scopes     []string // granted to every session; per-user scopes are a later concern
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Create opens a new session for an already-authenticated user and issues
// its first token pair. The session id is fresh on every call; two sessions
// for the same user never share one.
func (s *SessionService) Create(ctx context.Context, user domain.User) (*domain.TokenPair, error) {
	now := time.Now()
	l := slogx.FromContext(ctx)

	sessionID := domain.NewSessionID()

	pair, refresh, err := s.mint(user.Handle, sessionID, now)
	if err != nil {
		return nil, err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Sessions().CreateSession(ctx, domain.Session{
			ID:        sessionID,
			UserID:    user.ID,
			Handle:    user.Handle,
			CreatedAt: now.UTC(),
		}); err != nil {
			return err
		}
		return tx.RefreshTokens().CreateRefreshToken(ctx, domain.RefreshRecord{
			ID:        idx.New().String(),
			UserID:    user.ID,
			SessionID: sessionID,
			TokenHash: cryptox.FingerprintToken(pair.RefreshToken),
			ExpiresAt: refresh.ExpiresAt,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}

	l.Info("session created",
		slog.String("session_id", sessionID.String()),
		slog.String("handle", user.Handle.String()))

	return pair, nil
}

// Refresh renews a session from a presented refresh token. The token must
// verify against the signing key, match a stored non-revoked fingerprint,
// and belong to a live session. On success the old refresh token is revoked
// and a new pair is issued under the same session id; rotation and revocation
// happen in one transaction so a crash never leaves both tokens usable.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	now := time.Now()
	l := slogx.FromContext(ctx)

	claims, err := s.Keys.VerifyRefreshToken(refreshToken)
	if err != nil {
		if errors.Is(err, keys.ErrExpired) {
			return nil, ErrInvalidRefresh
		}
		if keys.IsInvalidParameter(err) {
			l.Info("refresh token rejected", slog.String("reason", err.Error()))
			return nil, ErrInvalidRefresh
		}
		return nil, err
	}

	fp := cryptox.FingerprintToken(refreshToken)
	rec, err := s.Store.RefreshTokens().GetRefreshTokenByHash(ctx, fp)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidRefresh
		}
		return nil, err
	}
	if rec.Revoked || now.After(rec.ExpiresAt) {
		return nil, ErrInvalidRefresh
	}
	if rec.SessionID != claims.SessionID {
		return nil, ErrInvalidRefresh
	}

	sess, err := s.Store.Sessions().GetSessionByID(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidRefresh
		}
		return nil, err
	}
	if sess.Revoked() {
		return nil, ErrSessionRevoked
	}

	pair, refresh, err := s.mint(sess.Handle, sess.ID, now)
	if err != nil {
		return nil, err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.RefreshTokens().RevokeRefreshToken(ctx, fp); err != nil {
			return err
		}
		return tx.RefreshTokens().CreateRefreshToken(ctx, domain.RefreshRecord{
			ID:        idx.New().String(),
			UserID:    rec.UserID,
			SessionID: sess.ID,
			TokenHash: cryptox.FingerprintToken(pair.RefreshToken),
			ExpiresAt: refresh.ExpiresAt,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("rotate refresh token: %w", err)
	}

	l.Info("session refreshed", slog.String("session_id", sess.ID.String()))

	return pair, nil
}

// Revoke tears down a session and every refresh token minted under it.
// Already-issued access tokens stay valid until they expire; revocation
// only prevents renewal.
func (s *SessionService) Revoke(ctx context.Context, sessionID domain.SessionID) error {
	l := slogx.FromContext(ctx)

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Sessions().RevokeSession(ctx, sessionID); err != nil {
			return err
		}
		return tx.RefreshTokens().RevokeSessionRefreshTokens(ctx, sessionID)
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrSessionNotFound
		}
		return err
	}

	l.Info("session revoked", slog.String("session_id", sessionID.String()))
	return nil
}

// mint signs a fresh access/refresh pair for the session. Both tokens carry
// the same issuance instant so their claim sets line up.
func (s *SessionService) mint(handle domain.UserHandle, sessionID domain.SessionID, now time.Time) (*domain.TokenPair, domain.RefreshToken, error) {
	access, err := domain.NewAccessToken(
		s.Issuer, s.Audience, handle, sessionID, s.Scopes,
		now, now.Add(s.AccessTTL),
	)
	if err != nil {
		return nil, domain.RefreshToken{}, err
	}

	refresh, err := domain.NewRefreshToken(
		s.Issuer, s.Audience, handle, sessionID, s.Scopes,
		now, now.Add(s.RefreshTTL),
	)
	if err != nil {
		return nil, domain.RefreshToken{}, err
	}

	signedAccess, err := s.Keys.SignAccessToken(access)
	if err != nil {
		return nil, domain.RefreshToken{}, fmt.Errorf("sign access token: %w", err)
	}
	signedRefresh, err := s.Keys.SignRefreshToken(refresh)
	if err != nil {
		return nil, domain.RefreshToken{}, fmt.Errorf("sign refresh token: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:  signedAccess,
		RefreshToken: signedRefresh,
		TokenType:    "Bearer",
		ExpiresIn:    s.AccessTTL,
		Scope:        access.Scope(),
	}, refresh, nil
}
