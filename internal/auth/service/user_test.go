package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"

	"github.com/quillfeed/quillfeed/internal/auth/domain"
	"github.com/quillfeed/quillfeed/internal/auth/service"
)

func TestRegister(t *testing.T) {
	st := newTestStore(t)
	svc := &service.UserService{Store: st}
	ctx := context.Background()

	user, err := svc.Register(ctx, "Alice", "Alice A.", "correct horse battery staple")
	require.NoError(t, err)
	require.Equal(t, "alice", user.Handle.String())
	require.Equal(t, "Alice A.", user.DisplayName)
	require.NotEmpty(t, user.PasswordHash)
	require.NotEqual(t, "correct horse battery staple", user.PasswordHash)

	t.Run("DuplicateHandle", func(t *testing.T) {
		_, err := svc.Register(ctx, "alice", "", "another valid password")
		require.ErrorIs(t, err, service.ErrHandleTaken)
	})

	t.Run("WeakPassword", func(t *testing.T) {
		_, err := svc.Register(ctx, "short", "", "tiny")
		require.ErrorIs(t, err, service.ErrWeakPassword)
	})

	t.Run("InvalidHandle", func(t *testing.T) {
		_, err := svc.Register(ctx, "no spaces allowed", "", "correct horse battery staple")
		require.ErrorIs(t, err, domain.ErrInvalidHandle)
	})

	t.Run("DefaultDisplayName", func(t *testing.T) {
		u, err := svc.Register(ctx, "bob", "  ", "correct horse battery staple")
		require.NoError(t, err)
		require.Equal(t, "bob", u.DisplayName)
	})
}

func TestAuthenticate(t *testing.T) {
	st := newTestStore(t)
	svc := &service.UserService{Store: st}
	ctx := context.Background()

	_, err := svc.Register(ctx, "carol", "", "correct horse battery staple")
	require.NoError(t, err)

	t.Run("Success", func(t *testing.T) {
		user, err := svc.Authenticate(ctx, "carol", "correct horse battery staple", "")
		require.NoError(t, err)
		require.Equal(t, "carol", user.Handle.String())
	})

	t.Run("NormalizesHandle", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "  CAROL ", "correct horse battery staple", "")
		require.NoError(t, err)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "carol", "wrong password entirely", "")
		require.ErrorIs(t, err, service.ErrInvalidCredentials)
	})

	t.Run("UnknownHandle", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "nobody", "correct horse battery staple", "")
		require.ErrorIs(t, err, service.ErrInvalidCredentials)
	})
}

func TestAuthenticateWithMFA(t *testing.T) {
	st := newTestStore(t)
	userSvc := &service.UserService{Store: st}
	mfaSvc := &service.MFAService{Store: st, Issuer: "Quillfeed"}
	ctx := context.Background()

	user, err := userSvc.Register(ctx, "dave", "", "correct horse battery staple")
	require.NoError(t, err)

	enrollment, err := mfaSvc.EnrollTOTP(ctx, user.ID)
	require.NoError(t, err)
	require.NotEmpty(t, enrollment.Secret)
	require.Contains(t, enrollment.URL, "otpauth://")

	// MFA is pending until activated; login still works without a code.
	_, err = userSvc.Authenticate(ctx, "dave", "correct horse battery staple", "")
	require.NoError(t, err)

	code, err := totp.GenerateCode(enrollment.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, mfaSvc.ActivateTOTP(ctx, user.ID, code))

	t.Run("CodeRequired", func(t *testing.T) {
		_, err := userSvc.Authenticate(ctx, "dave", "correct horse battery staple", "")
		require.ErrorIs(t, err, service.ErrMFACodeRequired)
	})

	t.Run("ValidCode", func(t *testing.T) {
		code, err := totp.GenerateCode(enrollment.Secret, time.Now())
		require.NoError(t, err)

		_, err = userSvc.Authenticate(ctx, "dave", "correct horse battery staple", code)
		require.NoError(t, err)
	})

	t.Run("WrongCode", func(t *testing.T) {
		_, err := userSvc.Authenticate(ctx, "dave", "correct horse battery staple", "000000")
		require.ErrorIs(t, err, service.ErrInvalidCredentials)
	})

	t.Run("DoubleEnroll", func(t *testing.T) {
		_, err := mfaSvc.EnrollTOTP(ctx, user.ID)
		require.ErrorIs(t, err, service.ErrMFAAlreadyEnabled)
	})

	t.Run("Remove", func(t *testing.T) {
		code, err := totp.GenerateCode(enrollment.Secret, time.Now())
		require.NoError(t, err)
		require.NoError(t, mfaSvc.RemoveMFA(ctx, user.ID, code))

		_, err = userSvc.Authenticate(ctx, "dave", "correct horse battery staple", "")
		require.NoError(t, err)
	})
}

func TestChangePassword(t *testing.T) {
	st := newTestStore(t)
	svc := &service.UserService{Store: st}
	ctx := context.Background()

	user, err := svc.Register(ctx, "erin", "", "correct horse battery staple")
	require.NoError(t, err)

	t.Run("WrongCurrent", func(t *testing.T) {
		err := svc.ChangePassword(ctx, user.ID, "not the password", "a new longer password")
		require.ErrorIs(t, err, service.ErrInvalidCredentials)
	})

	t.Run("Success", func(t *testing.T) {
		require.NoError(t, svc.ChangePassword(ctx, user.ID, "correct horse battery staple", "a new longer password"))

		_, err := svc.Authenticate(ctx, "erin", "a new longer password", "")
		require.NoError(t, err)

		_, err = svc.Authenticate(ctx, "erin", "correct horse battery staple", "")
		require.ErrorIs(t, err, service.ErrInvalidCredentials)
	})
}
