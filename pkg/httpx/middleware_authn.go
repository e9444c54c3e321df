package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/quillfeed/quillfeed/pkg/slogx"
)

// AuthClaims is what the authn middleware stores in the request context
// after a bearer token checks out.
type AuthClaims struct {
	Handle    string
	SessionID string
	Scopes    []string
}

// AccessVerifier validates a presented access token string end to end:
// signature, claim shape, and expiry. Implementations decide the policy;
// the middleware only plumbs the result into context.
type AccessVerifier interface {
	VerifyAccess(token string) (AuthClaims, error)
}

func AuthnMiddleware(v AccessVerifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			authz := r.Header.Get("Authorization")
			if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
				writeBearerError(w, "missing bearer token")
				return
			}
			raw := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))

			claims, err := v.VerifyAccess(raw)
			if err != nil {
				writeBearerError(w, "token verification failed")
				log.Warn("jwt verify failed", "err", err)
				return
			}

			// Inject into context for downstream handlers.
			ctx = contextWithAuth(ctx, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func contextWithAuth(ctx context.Context, c AuthClaims) context.Context {
	ctx = context.WithValue(ctx, CtxKeyHandle, c.Handle)
	ctx = context.WithValue(ctx, CtxKeySessionID, c.SessionID)
	ctx = context.WithValue(ctx, CtxKeyScopes, c.Scopes)
	return ctx
}

// RFC 6750-compliant error response for bearer auth.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	w.WriteHeader(http.StatusUnauthorized)
}
