package authsdk

import "github.com/quillfeed/quillfeed/pkg/jwtx"

// RegisterRequest is the body of POST /v1/auth/register.
type RegisterRequest struct {
	Handle      string `json:"handle"`
	DisplayName string `json:"display_name,omitempty"`
	Password    string `json:"password"`
}

// LoginRequest is the body of POST /v1/auth/login. TOTPCode is only needed
// when the account has MFA enabled.
type LoginRequest struct {
	Handle   string `json:"handle"`
	Password string `json:"password"`
	TOTPCode string `json:"totp_code,omitempty"`
}

// RefreshRequest is the body of POST /v1/auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// TokenResponse is returned from login and refresh. ExpiresIn is seconds
// until the access token expires.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope,omitempty"`
}

// UserInfoResponse is returned from GET /v1/userinfo.
type UserInfoResponse struct {
	Handle      string `json:"handle"`
	DisplayName string `json:"display_name"`
	SessionID   string `json:"session_id"`
	MFAEnabled  bool   `json:"mfa_enabled"`
	CreatedAt   string `json:"created_at"`
}

// TOTPEnrollResponse is returned from POST /v1/mfa/enroll. The URL is an
// otpauth:// provisioning URI, usually rendered as a QR code.
type TOTPEnrollResponse struct {
	Secret string `json:"secret"`
	URL    string `json:"url"`
}

// TOTPCodeRequest carries a TOTP code for activation or removal.
type TOTPCodeRequest struct {
	Code string `json:"code"`
}

// HealthResponse is returned from /livez and /readyz.
type HealthResponse struct {
	Status  string        `json:"status"`
	Version string        `json:"version,omitempty"`
	Uptime  string        `json:"uptime,omitempty"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports per-dependency status on /readyz.
type HealthChecks struct {
	Database string `json:"database"`
	Signer   string `json:"signer"`
}

// JWKSResponse is the body of GET /.well-known/jwks.json.
type JWKSResponse = jwtx.JWKS
