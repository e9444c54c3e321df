package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/quillfeed/quillfeed/internal/auth/service"
	"github.com/quillfeed/quillfeed/pkg/authsdk"
	"github.com/quillfeed/quillfeed/pkg/httpx"
	"github.com/quillfeed/quillfeed/pkg/slogx"
)

type LoginHandler struct {
	UserService    *service.UserService
	SessionService *service.SessionService
}

// ServeHTTP authenticates a handle/password pair (plus TOTP code when the
// account has MFA) and opens a new session, returning its first token pair.
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	user, err := h.UserService.Authenticate(ctx, req.Handle, req.Password, req.TOTPCode)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMFACodeRequired):
			authsdk.ErrMFARequired.WriteError(w)
		case errors.Is(err, service.ErrInvalidCredentials):
			authsdk.ErrInvalidCredentials.WriteError(w)
		default:
			log.Error("authentication failed", "err", err)
			authsdk.ErrServerError.WriteError(w)
		}
		return
	}

	pair, err := h.SessionService.Create(ctx, user)
	if err != nil {
		log.Error("session creation failed", "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, tokenResponse(pair))
}
