package http

import (
	"errors"
	"net/http"

	"github.com/quillfeed/quillfeed/internal/auth/domain"
	"github.com/quillfeed/quillfeed/internal/auth/service"
	"github.com/quillfeed/quillfeed/pkg/authsdk"
	"github.com/quillfeed/quillfeed/pkg/httpx"
	"github.com/quillfeed/quillfeed/pkg/slogx"
)

type LogoutHandler struct {
	SessionService *service.SessionService
}

// ServeHTTP revokes the session behind the presented access token. The
// access token itself stays valid until expiry; revocation blocks renewal.
func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	sessionID, err := domain.ParseSessionID(httpx.SessionIDFromContext(ctx))
	if err != nil {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	if err := h.SessionService.Revoke(ctx, sessionID); err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			// Session row already cleaned up; logout is still a success
			// from the caller's point of view.
			w.WriteHeader(http.StatusNoContent)
			return
		}
		log.Error("logout failed", "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
