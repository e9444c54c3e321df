package jwtx_test

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/quillfeed/quillfeed/pkg/cryptox"
	"github.com/quillfeed/quillfeed/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const exampleIssuer = "quillfeed-auth"

func exampleClaims(now time.Time) jwtx.Claims {
	return jwtx.Claims{
		Issuer:    exampleIssuer,
		Audience:  jwt.ClaimStrings{"quillfeed"},
		Subject:   "alice",
		SessionID: "01JF8YD8M0TESTSESSION00000",
		Scope:     "posts:read posts:write",
		Kind:      jwtx.KindAccess,
		IssuedAt:  now.UnixMilli(),
		ExpiresAt: now.Add(15 * time.Minute).UnixMilli(),
	}
}

func TestEdDSASignAndDecode(t *testing.T) {
	pemKey, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)

	kid := "test-key-eddsa"
	signer, err := jwtx.NewSignerEdDSA(kid, pemKey)
	require.NoError(t, err)
	require.NoError(t, signer.Validate())
	require.Equal(t, "EdDSA", signer.Alg())
	require.Equal(t, kid, signer.KID())

	now := time.Now().UTC()
	claims := exampleClaims(now)

	token, err := signer.Sign(claims)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	keyset := jwtx.NewKeySet()
	require.NoError(t, keyset.AddSigner(signer))

	jwks := keyset.PublicJWKS()
	require.Len(t, jwks.Keys, 1)
	require.Equal(t, "OKP", jwks.Keys[0].Kty)
	require.Equal(t, "Ed25519", jwks.Keys[0].Crv)
	require.NotEmpty(t, jwks.Keys[0].X)

	raw, err := jwtx.NewVerifierEdDSA(keyset).Decode(token)
	require.NoError(t, err)

	require.Equal(t, exampleIssuer, raw["iss"])
	require.Equal(t, "alice", raw["sub"])
	require.Equal(t, claims.SessionID, raw["sid"])
	require.Equal(t, claims.Scope, raw["scope"])
	require.Equal(t, jwtx.KindAccess, raw["tkn"])

	// aud must be an array on the wire, and iat/exp integer milliseconds.
	require.IsType(t, []any{}, raw["aud"])
	require.EqualValues(t, claims.IssuedAt, raw["iat"])
	require.EqualValues(t, claims.ExpiresAt, raw["exp"])
}

func TestEdDSADecodeFailsForUnknownKey(t *testing.T) {
	pemKey1, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)
	signer1, err := jwtx.NewSignerEdDSA("key1", pemKey1)
	require.NoError(t, err)

	pemKey2, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)
	signer2, err := jwtx.NewSignerEdDSA("key2", pemKey2)
	require.NoError(t, err)

	token, err := signer1.Sign(exampleClaims(time.Now().UTC()))
	require.NoError(t, err)

	// Keyset only contains key2
	keyset := jwtx.NewKeySet()
	require.NoError(t, keyset.AddSigner(signer2))

	_, err = jwtx.NewVerifierEdDSA(keyset).Decode(token)
	require.ErrorIs(t, err, jwtx.ErrUnknownKID)
}

func TestEdDSADecodeFailsForTamperedSignature(t *testing.T) {
	pemKey, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)
	signer, err := jwtx.NewSignerEdDSA("k1", pemKey)
	require.NoError(t, err)

	token, err := signer.Sign(exampleClaims(time.Now().UTC()))
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)

	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	keyset := jwtx.NewKeySet()
	require.NoError(t, keyset.AddSigner(signer))

	_, err = jwtx.NewVerifierEdDSA(keyset).Decode(tampered)
	require.Error(t, err)
}

func TestNewSignerEdDSAFailsForInvalidKey(t *testing.T) {
	_, err := jwtx.NewSignerEdDSA("test", []byte("not-a-pem-key"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid PEM")
}

func TestJWKRoundTripsToPEM(t *testing.T) {
	pemKey, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)
	signer, err := jwtx.NewSignerEdDSA("k1", pemKey)
	require.NoError(t, err)

	jwk := signer.PublicJWK()
	out, err := jwk.PEM()
	require.NoError(t, err)
	require.Contains(t, out, "BEGIN PUBLIC KEY")

	pub, err := jwk.PublicKey()
	require.NoError(t, err)
	require.Equal(t, signer.Public(), pub)
}
