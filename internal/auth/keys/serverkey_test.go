package keys_test

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/quillfeed/quillfeed/internal/auth/domain"
	"github.com/quillfeed/quillfeed/internal/auth/keys"
	"github.com/quillfeed/quillfeed/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

const testIssuer = "quillfeed-auth"

var (
	testAudience = []string{"quillfeed", "quillfeed-media"}
	testScopes   = []string{"posts:read", "posts:write"}
)

func newAuthority(t *testing.T) *keys.ServerKey {
	t.Helper()
	params, err := keys.GenerateParams()
	require.NoError(t, err)

	sk, err := keys.NewServerKey(params)
	require.NoError(t, err)
	return sk
}

func makeAccessToken(t *testing.T, handle string) domain.AccessToken {
	t.Helper()
	h, err := domain.ParseUserHandle(handle)
	require.NoError(t, err)

	now := time.Now().UTC()
	tok, err := domain.NewAccessToken(
		testIssuer, testAudience, h, domain.NewSessionID(), testScopes,
		now, now.Add(15*time.Minute),
	)
	require.NoError(t, err)
	return tok
}

func makeRefreshToken(t *testing.T, handle string) domain.RefreshToken {
	t.Helper()
	h, err := domain.ParseUserHandle(handle)
	require.NoError(t, err)

	now := time.Now().UTC()
	tok, err := domain.NewRefreshToken(
		testIssuer, testAudience, h, domain.NewSessionID(), testScopes,
		now, now.Add(7*24*time.Hour),
	)
	require.NoError(t, err)
	return tok
}

// signRaw signs an arbitrary claim map with the authority's keypair so tests
// can produce structurally broken tokens that still carry a valid signature.
func signRaw(t *testing.T, sk *keys.ServerKey, claims jwt.MapClaims) string {
	t.Helper()
	key, err := cryptox.ParseEd25519PrivateKey(sk.Params().PrivateKeyPEM)
	require.NoError(t, err)

	tok := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	tok.Header["kid"] = sk.KID()
	signed, err := tok.SignedString(key)
	require.NoError(t, err)
	return signed
}

func TestAccessTokenRoundTrip(t *testing.T) {
	sk := newAuthority(t)
	tok := makeAccessToken(t, "alice")

	signed, err := sk.SignAccessToken(tok)
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	got, err := sk.VerifyAccessToken(signed)
	require.NoError(t, err)

	require.Equal(t, tok.Issuer, got.Issuer)
	require.ElementsMatch(t, tok.Audience, got.Audience) // audience is a set
	require.Equal(t, tok.Handle, got.Handle)
	require.Equal(t, tok.SessionID, got.SessionID)
	require.Equal(t, tok.Scopes, got.Scopes) // scopes keep their order
	require.True(t, tok.IssuedAt.Equal(got.IssuedAt), "iat drifted: %v vs %v", tok.IssuedAt, got.IssuedAt)
	require.True(t, tok.ExpiresAt.Equal(got.ExpiresAt), "exp drifted: %v vs %v", tok.ExpiresAt, got.ExpiresAt)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	sk := newAuthority(t)
	tok := makeRefreshToken(t, "alice")

	signed, err := sk.SignRefreshToken(tok)
	require.NoError(t, err)

	got, err := sk.VerifyRefreshToken(signed)
	require.NoError(t, err)
	require.Equal(t, tok.Handle, got.Handle)
	require.Equal(t, tok.SessionID, got.SessionID)
	require.Equal(t, tok.Scopes, got.Scopes)
	require.True(t, tok.ExpiresAt.Equal(got.ExpiresAt))
}

func TestVerifyRejectsTamperedSignature(t *testing.T) {
	sk := newAuthority(t)
	signed, err := sk.SignAccessToken(makeAccessToken(t, "alice"))
	require.NoError(t, err)

	parts := strings.Split(signed, ".")
	require.Len(t, parts, 3)

	// Flip one byte of the signature segment. The final base64url char is
	// skipped: its low bits are slack the decoder ignores.
	sig := []byte(parts[2])
	for i := range sig[:len(sig)-1] {
		orig := sig[i]
		if orig == 'A' {
			sig[i] = 'B'
		} else {
			sig[i] = 'A'
		}
		tampered := parts[0] + "." + parts[1] + "." + string(sig)

		_, err := sk.VerifyAccessToken(tampered)
		require.Error(t, err, "byte %d", i)
		require.True(t, keys.IsInvalidParameter(err))

		sig[i] = orig
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	sk := newAuthority(t)

	for _, s := range []string{"", "not-a-jwt", "a.b", "a.b.c.d"} {
		_, err := sk.VerifyAccessToken(s)
		require.True(t, keys.IsInvalidParameter(err), "input %q", s)

		_, err = sk.VerifyRefreshToken(s)
		require.True(t, keys.IsInvalidParameter(err), "input %q", s)
	}
}

func TestVerifyClaimOrdering(t *testing.T) {
	sk := newAuthority(t)
	now := time.Now().UTC()
	sid := domain.NewSessionID().String()

	base := func() jwt.MapClaims {
		return jwt.MapClaims{
			"iss":   testIssuer,
			"aud":   []string{"quillfeed"},
			"sub":   "alice",
			"sid":   sid,
			"scope": "posts:read",
			"tkn":   "access",
			"iat":   now.UnixMilli(),
			"exp":   now.Add(time.Minute).UnixMilli(),
		}
	}

	requireReason := func(t *testing.T, err error, want string) {
		t.Helper()
		var ipe *keys.InvalidParameterError
		require.ErrorAs(t, err, &ipe)
		require.Equal(t, want, ipe.Reason)
	}

	t.Run("missing iss reported first", func(t *testing.T) {
		claims := base()
		delete(claims, "iss")
		delete(claims, "sub")

		_, err := sk.VerifyAccessToken(signRaw(t, sk, claims))
		requireReason(t, err, "no iss claim")
	})

	t.Run("missing sub reported even when later claims also missing", func(t *testing.T) {
		claims := base()
		delete(claims, "sub")
		delete(claims, "scope")
		delete(claims, "exp")

		_, err := sk.VerifyAccessToken(signRaw(t, sk, claims))
		requireReason(t, err, "no sub claim")
	})

	t.Run("mistyped sid", func(t *testing.T) {
		claims := base()
		claims["sid"] = 42

		_, err := sk.VerifyAccessToken(signRaw(t, sk, claims))
		requireReason(t, err, "no sid claim")
	})

	t.Run("missing scope", func(t *testing.T) {
		claims := base()
		claims["scope"] = "   "

		_, err := sk.VerifyAccessToken(signRaw(t, sk, claims))
		requireReason(t, err, "no scope claim")
	})

	t.Run("missing iat", func(t *testing.T) {
		claims := base()
		delete(claims, "iat")

		_, err := sk.VerifyAccessToken(signRaw(t, sk, claims))
		requireReason(t, err, "no iat claim")
	})

	t.Run("missing exp", func(t *testing.T) {
		claims := base()
		delete(claims, "exp")

		_, err := sk.VerifyAccessToken(signRaw(t, sk, claims))
		requireReason(t, err, "no exp claim")
	})
}

func TestVerifyValidatesHandleThroughConstructor(t *testing.T) {
	sk := newAuthority(t)
	now := time.Now().UTC()

	claims := jwt.MapClaims{
		"iss":   testIssuer,
		"sub":   "!!not a handle!!",
		"sid":   domain.NewSessionID().String(),
		"scope": "posts:read",
		"tkn":   "access",
		"iat":   now.UnixMilli(),
		"exp":   now.Add(time.Minute).UnixMilli(),
	}

	_, err := sk.VerifyAccessToken(signRaw(t, sk, claims))
	require.True(t, keys.IsInvalidParameter(err))
	require.ErrorIs(t, err, domain.ErrInvalidHandle)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	sk := newAuthority(t)
	h, err := domain.ParseUserHandle("alice")
	require.NoError(t, err)

	// Construction only demands exp > iat, so a token whose whole lifetime
	// is in the past signs fine.
	past := time.Now().UTC().Add(-2 * time.Hour)
	tok, err := domain.NewAccessToken(
		testIssuer, testAudience, h, domain.NewSessionID(), testScopes,
		past, past.Add(time.Hour),
	)
	require.NoError(t, err)

	signed, err := sk.SignAccessToken(tok)
	require.NoError(t, err)

	_, err = sk.VerifyAccessToken(signed)
	require.True(t, keys.IsInvalidParameter(err))
	require.ErrorIs(t, err, keys.ErrExpired)
}

func TestTokenKindsDoNotCrossVerify(t *testing.T) {
	sk := newAuthority(t)

	accessSigned, err := sk.SignAccessToken(makeAccessToken(t, "alice"))
	require.NoError(t, err)
	refreshSigned, err := sk.SignRefreshToken(makeRefreshToken(t, "alice"))
	require.NoError(t, err)

	// The two claim schemas are otherwise identical; only the tkn
	// discriminant keeps the roles apart.
	var ipe *keys.InvalidParameterError

	_, err = sk.VerifyRefreshToken(accessSigned)
	require.ErrorAs(t, err, &ipe)
	require.Contains(t, ipe.Reason, "token kind")

	_, err = sk.VerifyAccessToken(refreshSigned)
	require.ErrorAs(t, err, &ipe)
	require.Contains(t, ipe.Reason, "token kind")
}

func TestForeignAuthorityRejectsTokens(t *testing.T) {
	ours := newAuthority(t)
	theirs := newAuthority(t)

	signed, err := ours.SignAccessToken(makeAccessToken(t, "alice"))
	require.NoError(t, err)

	// Round-trips within the issuing authority
	_, err = ours.VerifyAccessToken(signed)
	require.NoError(t, err)

	// Fails against a different freshly generated keypair
	_, err = theirs.VerifyAccessToken(signed)
	require.True(t, keys.IsInvalidParameter(err))
}

func TestGenerateParamsExportsAllRepresentations(t *testing.T) {
	params, err := keys.GenerateParams()
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(params.Kid, "quillfeed-"))
	require.Contains(t, string(params.PrivateKeyPEM), "BEGIN PRIVATE KEY")
	require.Contains(t, string(params.PublicKeyPEM), "BEGIN PUBLIC KEY")
	require.NotEmpty(t, params.PublicKeyDER)

	require.Equal(t, "OKP", params.PublicJWK.Kty)
	require.Equal(t, "Ed25519", params.PublicJWK.Crv)
	require.Equal(t, "EdDSA", params.PublicJWK.Alg)
	require.Equal(t, params.Kid, params.PublicJWK.Kid)

	// The JWK and the DER bytes must describe the same key
	pub, err := params.PublicJWK.PublicKey()
	require.NoError(t, err)
	der, err := cryptox.MarshalPublicKeyDER(pub)
	require.NoError(t, err)
	require.Equal(t, params.PublicKeyDER, der)

	// Two generations never share material
	params2, err := keys.GenerateParams()
	require.NoError(t, err)
	require.NotEqual(t, params.Kid, params2.Kid)
	require.NotEqual(t, params.PrivateKeyPEM, params2.PrivateKeyPEM)
}
