package keys

import (
	"context"
	"fmt"
	"time"

	"github.com/quillfeed/quillfeed/internal/auth/domain"
	"github.com/quillfeed/quillfeed/internal/auth/store"
	"github.com/quillfeed/quillfeed/pkg/cryptox"
	"github.com/quillfeed/quillfeed/pkg/idx"
	"github.com/quillfeed/quillfeed/pkg/jwtx"
)

// DefaultKeyTTL is how long stored signing keys live before housekeeping
// deletes them. Rotation happens out-of-band by retiring the active key.
const DefaultKeyTTL = 365 * 24 * time.Hour

// Repository supplies the credential authority's keypair: it generates and
// persists the material but hands custody to the ServerKey it returns - the
// stored copy is encrypted at rest and only decrypted on load.
type Repository struct {
	Store  store.Store
	KeyTTL time.Duration
}

// NewRepository builds a key repository over the given store.
func NewRepository(st store.Store) *Repository {
	return &Repository{Store: st, KeyTTL: DefaultKeyTTL}
}

// Active returns a ServerKey for the newest active signing key, generating
// and persisting a fresh keypair if none exists yet. Exactly one keypair is
// active at a time.
func (r *Repository) Active(ctx context.Context) (*ServerKey, error) {
	rows, err := r.Store.SigningKeys().ListActiveSigningKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("keys: list signing keys: %w", err)
	}

	if len(rows) > 0 {
		row := rows[0]
		pemKey, err := cryptox.DecryptPrivateKey(row.PrivateKeyEncrypted)
		if err != nil {
			return nil, fmt.Errorf("keys: decrypt signing key %s: %w", row.Kid, err)
		}
		params, err := ParamsFromPrivatePEM(row.Kid, pemKey)
		if err != nil {
			return nil, err
		}
		return NewServerKey(params)
	}

	params, err := GenerateParams()
	if err != nil {
		return nil, err
	}

	encrypted, err := cryptox.EncryptPrivateKey(params.PrivateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("keys: encrypt signing key: %w", err)
	}

	ttl := r.KeyTTL
	if ttl <= 0 {
		ttl = DefaultKeyTTL
	}

	err = r.Store.SigningKeys().CreateSigningKey(ctx, domain.SigningKey{
		ID:                  idx.New().String(),
		Kid:                 params.Kid,
		Algorithm:           "EdDSA",
		PrivateKeyEncrypted: encrypted,
		ExpiresAt:           time.Now().UTC().Add(ttl),
	})
	if err != nil {
		return nil, fmt.Errorf("keys: persist signing key: %w", err)
	}

	return NewServerKey(params)
}

// VerificationKeys builds a KeySet covering every stored key, retired ones
// included, so tokens signed before an out-of-band rotation keep verifying
// through the grace period.
func (r *Repository) VerificationKeys(ctx context.Context) (*jwtx.KeySet, error) {
	rows, err := r.Store.SigningKeys().ListAllSigningKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("keys: list signing keys: %w", err)
	}

	keyset := jwtx.NewKeySet()
	now := time.Now().UTC()
	for _, row := range rows {
		if row.IsExpired(now) {
			continue
		}

		pemKey, err := cryptox.DecryptPrivateKey(row.PrivateKeyEncrypted)
		if err != nil {
			return nil, fmt.Errorf("keys: decrypt signing key %s: %w", row.Kid, err)
		}
		params, err := ParamsFromPrivatePEM(row.Kid, pemKey)
		if err != nil {
			return nil, err
		}
		if err := keyset.AddJWK(params.PublicJWK); err != nil {
			return nil, err
		}
	}

	return keyset, nil
}
