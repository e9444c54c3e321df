package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/quillfeed/quillfeed/internal/auth/domain"
	"github.com/quillfeed/quillfeed/internal/auth/store"
)

var (
	ErrInvalidTOTPCode   = errors.New("invalid_totp_code")
	ErrMFANotEnabled     = errors.New("mfa_not_enabled")
	ErrMFAAlreadyEnabled = errors.New("mfa_already_enabled")
)

// MFAEnrollment is returned from EnrollTOTP; the client renders the
// provisioning URL as a QR code and confirms with a first code.
type MFAEnrollment struct {
	Secret string `json:"secret"`
	URL    string `json:"url"`
}

// MFAService manages TOTP enrollment. Enrollment is two-phase: EnrollTOTP
// stores a pending secret, ActivateTOTP verifies a code against it and only
// then flips the user to MFA-enabled.
type MFAService struct {
	Store  store.Store
	Issuer string // shown in authenticator apps
}

// EnrollTOTP generates and stores a pending TOTP secret for the user. MFA is
// not enabled until the user proves possession via ActivateTOTP.
func (s *MFAService) EnrollTOTP(ctx context.Context, userID domain.UserID) (MFAEnrollment, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return MFAEnrollment{}, err
	}
	if user.HasMFA() {
		return MFAEnrollment{}, ErrMFAAlreadyEnabled
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: user.Handle.String(),
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return MFAEnrollment{}, fmt.Errorf("generate totp key: %w", err)
	}

	if err := s.Store.Users().UpdateMFASecret(ctx, userID, key.Secret()); err != nil {
		return MFAEnrollment{}, fmt.Errorf("store mfa secret: %w", err)
	}

	return MFAEnrollment{
		Secret: key.Secret(),
		URL:    key.URL(),
	}, nil
}

// ActivateTOTP verifies a code against the pending secret and enables MFA.
func (s *MFAService) ActivateTOTP(ctx context.Context, userID domain.UserID, code string) error {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.HasMFA() {
		return ErrMFAAlreadyEnabled
	}
	if user.MFASecret == nil || *user.MFASecret == "" {
		return ErrMFANotEnabled
	}

	if !totp.Validate(code, *user.MFASecret) {
		return ErrInvalidTOTPCode
	}

	return s.Store.Users().EnableMFA(ctx, userID)
}

// RemoveMFA disables MFA after verifying a current code.
func (s *MFAService) RemoveMFA(ctx context.Context, userID domain.UserID, code string) error {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.HasMFA() || user.MFASecret == nil {
		return ErrMFANotEnabled
	}

	if !totp.Validate(code, *user.MFASecret) {
		return ErrInvalidTOTPCode
	}

	return s.Store.Users().DisableMFA(ctx, userID)
}
