package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/quillfeed/quillfeed/internal/auth/keys"
	"github.com/quillfeed/quillfeed/internal/auth/store"
	"github.com/quillfeed/quillfeed/pkg/cryptox"
)

// InitAuthKeys loads the active signing key, generating and persisting a
// fresh one on first boot. Private key material is encrypted at rest, so
// issued tokens survive restarts.
//
// Retired keys that have not yet expired are merged into the verification
// key set so their tokens keep verifying through the grace period.
func InitAuthKeys(ctx context.Context, cfg Config, db store.Store, logger *slog.Logger) (*keys.ServerKey, error) {
	if cfg.MasterKeyPath != "" {
		cryptox.SetMasterKeyPath(cfg.MasterKeyPath)
		logger.Info("master key path configured", "path", cfg.MasterKeyPath)
	}

	repo := keys.NewRepository(db)
	if cfg.KeyTTL > 0 {
		repo.KeyTTL = cfg.KeyTTL
	}

	sk, err := repo.Active(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load active signing key: %w", err)
	}

	verification, err := repo.VerificationKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load verification keys: %w", err)
	}
	for _, jwk := range verification.PublicJWKS().Keys {
		if jwk.Kid == sk.KID() {
			continue
		}
		if err := sk.KeySet().AddJWK(jwk); err != nil {
			return nil, fmt.Errorf("failed to register verification key %s: %w", jwk.Kid, err)
		}
	}

	logger.Info("signing keys loaded",
		"kid", sk.KID(),
		"issuer", cfg.Issuer,
		"verification_keys", len(sk.KeySet().PublicJWKS().Keys),
	)

	return sk, nil
}
