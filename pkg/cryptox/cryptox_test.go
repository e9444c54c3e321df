package cryptox_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quillfeed/quillfeed/pkg/cryptox"
)

func TestHashAndVerifyPassword(t *testing.T) {
	cryptox.SetPepperPath(filepath.Join(t.TempDir(), "pepper"))

	hash, err := cryptox.HashPassword("correct horse battery staple")
	require.NoError(t, err)
	require.Contains(t, hash, "$argon2id$")

	require.NoError(t, cryptox.VerifyPassword("correct horse battery staple", hash))
	require.Error(t, cryptox.VerifyPassword("wrong password", hash))

	t.Run("UniqueSalts", func(t *testing.T) {
		other, err := cryptox.HashPassword("correct horse battery staple")
		require.NoError(t, err)
		require.NotEqual(t, hash, other)
	})

	t.Run("MalformedHash", func(t *testing.T) {
		require.Error(t, cryptox.VerifyPassword("anything", "not-a-phc-string"))
	})
}

func TestGenerateToken(t *testing.T) {
	a, err := cryptox.GenerateToken(cryptox.TokenSize256)
	require.NoError(t, err)
	b, err := cryptox.GenerateToken(cryptox.TokenSize256)
	require.NoError(t, err)

	require.NotEmpty(t, a)
	require.NotEqual(t, a, b)
}

func TestFingerprintToken(t *testing.T) {
	fp := cryptox.FingerprintToken("some.signed.token")
	require.NotEmpty(t, fp)

	// Deterministic, and distinct inputs diverge.
	require.Equal(t, fp, cryptox.FingerprintToken("some.signed.token"))
	require.NotEqual(t, fp, cryptox.FingerprintToken("another.signed.token"))
}

func TestEd25519KeyRoundTrip(t *testing.T) {
	pemKey, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)
	require.Contains(t, string(pemKey), "PRIVATE KEY")

	priv, err := cryptox.ParseEd25519PrivateKey(pemKey)
	require.NoError(t, err)
	require.Len(t, priv, 64)

	t.Run("RejectsGarbage", func(t *testing.T) {
		_, err := cryptox.ParseEd25519PrivateKey([]byte("not pem at all"))
		require.Error(t, err)
	})
}

func TestEncryptDecryptPrivateKey(t *testing.T) {
	t.Setenv("AUTH_MASTER_KEY", "test-master-key-material")
	cryptox.ResetMasterKeyForTesting()
	t.Cleanup(cryptox.ResetMasterKeyForTesting)

	pemKey, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)

	encrypted, err := cryptox.EncryptPrivateKey(pemKey)
	require.NoError(t, err)
	require.NotEqual(t, pemKey, encrypted)

	decrypted, err := cryptox.DecryptPrivateKey(encrypted)
	require.NoError(t, err)
	require.Equal(t, pemKey, decrypted)

	t.Run("TamperedCiphertext", func(t *testing.T) {
		tampered := append([]byte(nil), encrypted...)
		tampered[len(tampered)-1] ^= 0x01
		_, err := cryptox.DecryptPrivateKey(tampered)
		require.Error(t, err)
	})

	t.Run("TooShort", func(t *testing.T) {
		_, err := cryptox.DecryptPrivateKey([]byte{0x01, 0x02})
		require.Error(t, err)
	})
}
