package keys

import (
	"crypto/ed25519"
	"fmt"

	"github.com/quillfeed/quillfeed/pkg/cryptox"
	"github.com/quillfeed/quillfeed/pkg/jwtx"
)

// Params is the complete keypair material a ServerKey is built from: the
// private key as PKCS8 PEM plus the public key in every representation a
// consumer might want (SPKI PEM, raw DER, JWK). Ownership transfers to the
// ServerKey constructed from it; nothing else should hold a usable copy.
type Params struct {
	Kid           string
	PrivateKeyPEM []byte
	PublicKeyPEM  []byte
	PublicKeyDER  []byte
	PublicJWK     jwtx.JWK
}

// GenerateParams mints a fresh Ed25519 keypair and exports all public
// representations. This is the only place a new keypair comes from; it is
// not expected to run on the request path.
func GenerateParams() (Params, error) {
	suffix, err := cryptox.GenerateToken(6)
	if err != nil {
		return Params{}, fmt.Errorf("keys: generate kid: %w", err)
	}
	kid := "quillfeed-" + suffix

	pemKey, err := cryptox.GenerateEd25519Key()
	if err != nil {
		return Params{}, err
	}

	return ParamsFromPrivatePEM(kid, pemKey)
}

// ParamsFromPrivatePEM derives the full Params set from existing private key
// material, e.g. a key loaded back out of the store.
func ParamsFromPrivatePEM(kid string, pemKey []byte) (Params, error) {
	key, err := cryptox.ParseEd25519PrivateKey(pemKey)
	if err != nil {
		return Params{}, err
	}
	pub := key.Public().(ed25519.PublicKey)

	der, err := cryptox.MarshalPublicKeyDER(pub)
	if err != nil {
		return Params{}, err
	}
	pubPEM, err := cryptox.MarshalPublicKeyPEM(pub)
	if err != nil {
		return Params{}, err
	}

	return Params{
		Kid:           kid,
		PrivateKeyPEM: pemKey,
		PublicKeyPEM:  pubPEM,
		PublicKeyDER:  der,
		PublicJWK:     jwtx.NewEd25519JWK(kid, "sig", "EdDSA", pub),
	}, nil
}
