package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pquerna/otp/totp"

	"github.com/quillfeed/quillfeed/internal/auth/domain"
	"github.com/quillfeed/quillfeed/internal/auth/store"
	"github.com/quillfeed/quillfeed/pkg/cryptox"
	"github.com/quillfeed/quillfeed/pkg/slogx"
)

const minPasswordLength = 12

var (
	ErrHandleTaken     = errors.New("handle_taken")
	ErrWeakPassword    = errors.New("weak_password")
	ErrMFACodeRequired = errors.New("mfa_code_required")
)

// UserService handles registration and password authentication. It never
// touches sessions; the HTTP layer composes it with SessionService.
type UserService struct {
	Store store.Store
}

// Register creates a new user with an argon2id password hash. The handle is
// normalized before storage so lookups are case-insensitive.
func (s *UserService) Register(ctx context.Context, rawHandle, displayName, password string) (domain.User, error) {
	l := slogx.FromContext(ctx)

	handle, err := domain.ParseUserHandle(rawHandle)
	if err != nil {
		return domain.User{}, err
	}

	if len(password) < minPasswordLength {
		return domain.User{}, ErrWeakPassword
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = handle.String()
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:           domain.NewUserID(),
		Handle:       handle,
		DisplayName:  displayName,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.Store.Users().CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrHandleTaken
		}
		return domain.User{}, err
	}

	l.Info("user registered", slog.String("handle", handle.String()))
	return user, nil
}

// Authenticate verifies a handle/password pair, plus a TOTP code when the
// user has MFA enabled. Unknown handle and wrong password return the same
// error so the endpoint does not leak which handles exist.
func (s *UserService) Authenticate(ctx context.Context, rawHandle, password, totpCode string) (domain.User, error) {
	l := slogx.FromContext(ctx)

	handle, err := domain.ParseUserHandle(rawHandle)
	if err != nil {
		return domain.User{}, ErrInvalidCredentials
	}

	user, err := s.Store.Users().GetUserByHandle(ctx, handle)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Burn comparable time so missing handles are not distinguishable
			// from wrong passwords.
			_, _ = cryptox.HashPassword(password)
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, err
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		l.Info("password verification failed", slog.String("handle", handle.String()))
		return domain.User{}, ErrInvalidCredentials
	}

	if user.HasMFA() {
		if totpCode == "" {
			return domain.User{}, ErrMFACodeRequired
		}
		if user.MFASecret == nil || !totp.Validate(totpCode, *user.MFASecret) {
			l.Info("totp verification failed", slog.String("handle", handle.String()))
			return domain.User{}, ErrInvalidCredentials
		}
	}

	return user, nil
}

// ChangePassword rotates a user's password after verifying the current one.
func (s *UserService) ChangePassword(ctx context.Context, userID domain.UserID, currentPassword, newPassword string) error {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := cryptox.VerifyPassword(currentPassword, user.PasswordHash); err != nil {
		return ErrInvalidCredentials
	}
	if len(newPassword) < minPasswordLength {
		return ErrWeakPassword
	}

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return s.Store.Users().UpdatePasswordHash(ctx, userID, hash)
}

// GetUserByID loads a user profile, typically for the userinfo endpoint.
func (s *UserService) GetUserByID(ctx context.Context, userID domain.UserID) (domain.User, error) {
	return s.Store.Users().GetUserByID(ctx, userID)
}

// GetUserByHandle loads a user by their normalized handle.
func (s *UserService) GetUserByHandle(ctx context.Context, rawHandle string) (domain.User, error) {
	handle, err := domain.ParseUserHandle(rawHandle)
	if err != nil {
		return domain.User{}, err
	}
	return s.Store.Users().GetUserByHandle(ctx, handle)
}
