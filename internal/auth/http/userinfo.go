package http

import (
	"net/http"

	"github.com/quillfeed/quillfeed/internal/auth/service"
	"github.com/quillfeed/quillfeed/pkg/authsdk"
	"github.com/quillfeed/quillfeed/pkg/httpx"
	"github.com/quillfeed/quillfeed/pkg/slogx"
)

type UserInfoHandler struct {
	UserService *service.UserService
}

// ServeHTTP returns the profile of the authenticated user.
func (h *UserInfoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	handle := httpx.HandleFromContext(ctx)
	if handle == "" {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	user, err := h.UserService.GetUserByHandle(ctx, handle)
	if err != nil {
		log.Warn("failed to load user", "handle", handle, "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.UserInfoResponse{
		Handle:      user.Handle.String(),
		DisplayName: user.DisplayName,
		SessionID:   httpx.SessionIDFromContext(ctx),
		MFAEnabled:  user.HasMFA(),
		CreatedAt:   user.CreatedAt.UTC().Format(timeFormat),
	})
}
