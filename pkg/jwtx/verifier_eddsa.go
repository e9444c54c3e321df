package jwtx

import (
	"crypto/ed25519"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed  = errors.New("jwtx: malformed token")
	ErrUnknownKID = errors.New("jwtx: unknown kid")
)

// EdDSAVerifier checks an EdDSA signature against a KeySet and hands back the
// raw decoded claims. It deliberately performs no claim validation of its
// own: which claims must be present, in what shape, and whether the token has
// expired are the credential authority's concern.
type EdDSAVerifier struct {
	keys *KeySet
}

// NewVerifierEdDSA creates a verifier using a KeySet of Ed25519 public keys.
func NewVerifierEdDSA(keys *KeySet) *EdDSAVerifier {
	return &EdDSAVerifier{keys: keys}
}

// Decode verifies the token's signature and returns its raw claim map.
// Any parse or signature failure surfaces as an error; a nil error means the
// payload is byte-for-byte what the signer produced.
func (v *EdDSAVerifier) Decode(tokenStr string) (jwt.MapClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
		// Expiry lives in milliseconds in our claim set, so the library's
		// own seconds-based validation must stay out of the way.
		jwt.WithoutClaimsValidation(),
	)

	token, err := parser.ParseWithClaims(tokenStr, jwt.MapClaims{}, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, ErrUnknownKID
		}

		pub, err := v.keys.Get(kid)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownKID, kid)
		}

		edPub, ok := pub.(ed25519.PublicKey)
		if !ok {
			return nil, errors.New("jwtx: invalid Ed25519 key type")
		}
		return edPub, nil
	})
	if err != nil {
		return nil, fmt.Errorf("jwtx: parse or verify: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrMalformed
	}

	return claims, nil
}
