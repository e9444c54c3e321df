package http

import (
	"github.com/quillfeed/quillfeed/internal/auth/keys"
	"github.com/quillfeed/quillfeed/pkg/httpx"
)

// accessVerifier adapts the signing authority to the middleware's verifier
// interface. Verification covers signature, claim shape, and expiry.
type accessVerifier struct {
	keys *keys.ServerKey
}

func (v accessVerifier) VerifyAccess(token string) (httpx.AuthClaims, error) {
	t, err := v.keys.VerifyAccessToken(token)
	if err != nil {
		return httpx.AuthClaims{}, err
	}

	return httpx.AuthClaims{
		Handle:    t.Handle.String(),
		SessionID: t.SessionID.String(),
		Scopes:    t.Scopes,
	}, nil
}
