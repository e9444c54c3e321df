package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/quillfeed/quillfeed/internal/auth/domain"
	"github.com/quillfeed/quillfeed/internal/auth/service"
	"github.com/quillfeed/quillfeed/pkg/authsdk"
	"github.com/quillfeed/quillfeed/pkg/httpx"
	"github.com/quillfeed/quillfeed/pkg/slogx"
)

type RegisterHandler struct {
	UserService *service.UserService
}

// ServeHTTP handles account creation. Registration does not open a session;
// the client follows up with a login.
func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	user, err := h.UserService.Register(ctx, req.Handle, req.DisplayName, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrHandleTaken):
			authsdk.ErrHandleTaken.WriteError(w)
		case errors.Is(err, service.ErrWeakPassword):
			authsdk.ErrWeakPassword.WriteError(w)
		case errors.Is(err, domain.ErrInvalidHandle):
			authsdk.ErrInvalidRequest.WriteError(w)
		default:
			log.Error("registration failed", "err", err)
			authsdk.ErrServerError.WriteError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, authsdk.UserInfoResponse{
		Handle:      user.Handle.String(),
		DisplayName: user.DisplayName,
		MFAEnabled:  user.HasMFA(),
		CreatedAt:   user.CreatedAt.UTC().Format(timeFormat),
	})
}
