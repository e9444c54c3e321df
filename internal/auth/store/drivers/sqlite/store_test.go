package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quillfeed/quillfeed/internal/auth/domain"
	"github.com/quillfeed/quillfeed/internal/auth/store"
	"github.com/quillfeed/quillfeed/internal/auth/store/drivers/sqlite"
	"github.com/quillfeed/quillfeed/pkg/cryptox"
	"github.com/quillfeed/quillfeed/pkg/idx"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "auth.db")
	st, err := sqlite.NewStore(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func newTestUser(t *testing.T, handle string) domain.User {
	t.Helper()

	h, err := domain.ParseUserHandle(handle)
	require.NoError(t, err)

	return domain.User{
		ID:           domain.NewUserID(),
		Handle:       h,
		DisplayName:  "Test User",
		PasswordHash: "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA",
	}
}

func TestUsersRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	u := newTestUser(t, "alice")
	require.NoError(t, st.Users().CreateUser(ctx, u))

	t.Run("GetByID", func(t *testing.T) {
		got, err := st.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, u.ID, got.ID)
		require.Equal(t, u.Handle, got.Handle)
		require.Equal(t, u.PasswordHash, got.PasswordHash)
		require.False(t, got.HasMFA())
	})

	t.Run("GetByHandle", func(t *testing.T) {
		got, err := st.Users().GetUserByHandle(ctx, u.Handle)
		require.NoError(t, err)
		require.Equal(t, u.ID, got.ID)
	})

	t.Run("DuplicateHandle", func(t *testing.T) {
		dup := newTestUser(t, "alice")
		err := st.Users().CreateUser(ctx, dup)
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("UnknownID", func(t *testing.T) {
		_, err := st.Users().GetUserByID(ctx, domain.NewUserID())
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("EnableMFA", func(t *testing.T) {
		require.NoError(t, st.Users().UpdateMFASecret(ctx, u.ID, "JBSWY3DPEHPK3PXP"))
		require.NoError(t, st.Users().EnableMFA(ctx, u.ID))

		got, err := st.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.True(t, got.HasMFA())
		require.NotNil(t, got.MFASecret)
		require.Equal(t, "JBSWY3DPEHPK3PXP", *got.MFASecret)

		require.NoError(t, st.Users().DisableMFA(ctx, u.ID))
		got, err = st.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.False(t, got.HasMFA())
		require.Nil(t, got.MFASecret)
	})
}

func TestSessionsRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	u := newTestUser(t, "bob")
	require.NoError(t, st.Users().CreateUser(ctx, u))

	sess := domain.Session{
		ID:     domain.NewSessionID(),
		UserID: u.ID,
		Handle: u.Handle,
	}
	require.NoError(t, st.Sessions().CreateSession(ctx, sess))

	got, err := st.Sessions().GetSessionByID(ctx, sess.ID)
	require.NoError(t, err)
	require.Equal(t, sess.UserID, got.UserID)
	require.False(t, got.Revoked())

	require.NoError(t, st.Sessions().RevokeSession(ctx, sess.ID))

	got, err = st.Sessions().GetSessionByID(ctx, sess.ID)
	require.NoError(t, err)
	require.True(t, got.Revoked())

	// Second revoke is a no-op.
	require.NoError(t, st.Sessions().RevokeSession(ctx, sess.ID))

	t.Run("UnknownSession", func(t *testing.T) {
		err := st.Sessions().RevokeSession(ctx, domain.NewSessionID())
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("Housekeeping", func(t *testing.T) {
		err := st.Sessions().DeleteRevokedSessionsBefore(ctx, time.Now().UTC().Add(time.Minute))
		require.NoError(t, err)

		_, err = st.Sessions().GetSessionByID(ctx, sess.ID)
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestRefreshTokensRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	u := newTestUser(t, "carol")
	require.NoError(t, st.Users().CreateUser(ctx, u))

	sess := domain.Session{ID: domain.NewSessionID(), UserID: u.ID, Handle: u.Handle}
	require.NoError(t, st.Sessions().CreateSession(ctx, sess))

	hash := cryptox.FingerprintToken("some.signed.token")
	rec := domain.RefreshRecord{
		ID:        idx.New().String(),
		UserID:    u.ID,
		SessionID: sess.ID,
		TokenHash: hash,
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}
	require.NoError(t, st.RefreshTokens().CreateRefreshToken(ctx, rec))

	got, err := st.RefreshTokens().GetRefreshTokenByHash(ctx, hash)
	require.NoError(t, err)
	require.Equal(t, rec.SessionID, got.SessionID)
	require.False(t, got.Revoked)

	t.Run("DuplicateHash", func(t *testing.T) {
		dup := rec
		dup.ID = idx.New().String()
		err := st.RefreshTokens().CreateRefreshToken(ctx, dup)
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("Revoke", func(t *testing.T) {
		require.NoError(t, st.RefreshTokens().RevokeRefreshToken(ctx, hash))

		got, err := st.RefreshTokens().GetRefreshTokenByHash(ctx, hash)
		require.NoError(t, err)
		require.True(t, got.Revoked)
	})

	t.Run("RevokeSessionWide", func(t *testing.T) {
		other := domain.RefreshRecord{
			ID:        idx.New().String(),
			UserID:    u.ID,
			SessionID: sess.ID,
			TokenHash: cryptox.FingerprintToken("another.signed.token"),
			ExpiresAt: time.Now().UTC().Add(time.Hour),
		}
		require.NoError(t, st.RefreshTokens().CreateRefreshToken(ctx, other))
		require.NoError(t, st.RefreshTokens().RevokeSessionRefreshTokens(ctx, sess.ID))

		got, err := st.RefreshTokens().GetRefreshTokenByHash(ctx, other.TokenHash)
		require.NoError(t, err)
		require.True(t, got.Revoked)
	})

	t.Run("DeleteExpired", func(t *testing.T) {
		expired := domain.RefreshRecord{
			ID:        idx.New().String(),
			UserID:    u.ID,
			SessionID: sess.ID,
			TokenHash: cryptox.FingerprintToken("expired.signed.token"),
			ExpiresAt: time.Now().UTC().Add(-time.Hour),
		}
		require.NoError(t, st.RefreshTokens().CreateRefreshToken(ctx, expired))
		require.NoError(t, st.RefreshTokens().DeleteExpiredRefreshTokens(ctx))

		_, err := st.RefreshTokens().GetRefreshTokenByHash(ctx, expired.TokenHash)
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestSigningKeysRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	key := domain.SigningKey{
		ID:                  idx.New().String(),
		Kid:                 "quillfeed-test01",
		Algorithm:           "EdDSA",
		PrivateKeyEncrypted: []byte("ciphertext"),
		ExpiresAt:           time.Now().UTC().Add(24 * time.Hour),
	}
	require.NoError(t, st.SigningKeys().CreateSigningKey(ctx, key))

	got, err := st.SigningKeys().GetSigningKeyByKid(ctx, key.Kid)
	require.NoError(t, err)
	require.Equal(t, key.PrivateKeyEncrypted, got.PrivateKeyEncrypted)
	require.Nil(t, got.RetiredAt)

	active, err := st.SigningKeys().ListActiveSigningKeys(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)

	t.Run("Retire", func(t *testing.T) {
		require.NoError(t, st.SigningKeys().RetireSigningKey(ctx, key.Kid))

		active, err := st.SigningKeys().ListActiveSigningKeys(ctx)
		require.NoError(t, err)
		require.Empty(t, active)

		// Retired keys remain visible for verification.
		all, err := st.SigningKeys().ListAllSigningKeys(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		require.NotNil(t, all[0].RetiredAt)
	})

	t.Run("DeleteExpired", func(t *testing.T) {
		expired := domain.SigningKey{
			ID:                  idx.New().String(),
			Kid:                 "quillfeed-old01",
			Algorithm:           "EdDSA",
			PrivateKeyEncrypted: []byte("old"),
			ExpiresAt:           time.Now().UTC().Add(-time.Hour),
		}
		require.NoError(t, st.SigningKeys().CreateSigningKey(ctx, expired))
		require.NoError(t, st.SigningKeys().DeleteExpiredSigningKeys(ctx))

		_, err := st.SigningKeys().GetSigningKeyByKid(ctx, expired.Kid)
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestWithTxRollback(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	u := newTestUser(t, "dave")

	err := st.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, u); err != nil {
			return err
		}
		return context.Canceled // force rollback
	})
	require.Error(t, err)

	_, err = st.Users().GetUserByID(ctx, u.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestWithTxCommit(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	u := newTestUser(t, "erin")

	err := st.WithTx(ctx, func(tx store.Tx) error {
		return tx.Users().CreateUser(ctx, u)
	})
	require.NoError(t, err)

	got, err := st.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, u.Handle, got.Handle)
}
