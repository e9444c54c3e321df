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

type MFAHandler struct {
	MFAService  *service.MFAService
	UserService *service.UserService
}

// HandleEnroll starts TOTP enrollment for the authenticated user. MFA is not
// enabled until the first code is confirmed via HandleActivate.
func (h *MFAHandler) HandleEnroll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	enrollment, err := h.MFAService.EnrollTOTP(ctx, user.ID)
	if err != nil {
		if errors.Is(err, service.ErrMFAAlreadyEnabled) {
			(&authsdk.APIError{
				StatusCode:  http.StatusConflict,
				Code:        "mfa_already_enabled",
				Description: "MFA is already enabled for this account",
			}).WriteError(w)
			return
		}
		log.Error("mfa enrollment failed", "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.TOTPEnrollResponse{
		Secret: enrollment.Secret,
		URL:    enrollment.URL,
	})
}

// HandleActivate confirms enrollment with a first TOTP code and enables MFA.
func (h *MFAHandler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req authsdk.TOTPCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	if err := h.MFAService.ActivateTOTP(ctx, user.ID, req.Code); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidTOTPCode):
			authsdk.ErrMFAInvalidCode.WriteError(w)
		case errors.Is(err, service.ErrMFANotEnabled), errors.Is(err, service.ErrMFAAlreadyEnabled):
			authsdk.ErrInvalidRequest.WriteError(w)
		default:
			log.Error("mfa activation failed", "err", err)
			authsdk.ErrServerError.WriteError(w)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleRemove disables MFA after verifying a current TOTP code.
func (h *MFAHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req authsdk.TOTPCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	if err := h.MFAService.RemoveMFA(ctx, user.ID, req.Code); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidTOTPCode):
			authsdk.ErrMFAInvalidCode.WriteError(w)
		case errors.Is(err, service.ErrMFANotEnabled):
			authsdk.ErrInvalidRequest.WriteError(w)
		default:
			log.Error("mfa removal failed", "err", err)
			authsdk.ErrServerError.WriteError(w)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// currentUser resolves the authenticated handle to a stored user. Writes the
// error response itself when resolution fails.
func (h *MFAHandler) currentUser(w http.ResponseWriter, r *http.Request) (domain.User, bool) {
	ctx := r.Context()

	handle := httpx.HandleFromContext(ctx)
	if handle == "" {
		authsdk.ErrInvalidToken.WriteError(w)
		return domain.User{}, false
	}

	user, err := h.UserService.GetUserByHandle(ctx, handle)
	if err != nil {
		slogx.FromContext(ctx).Warn("failed to load user", "handle", handle, "err", err)
		authsdk.ErrServerError.WriteError(w)
		return domain.User{}, false
	}

	return user, true
}
