package authsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is a thin client for the Quillfeed auth service. It covers the
// public endpoints plus the bearer-authenticated account operations; callers
// hold on to the TokenResponse and refresh when they see ErrInvalidToken.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates an auth service client with a sane default timeout.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Register creates a new account. Registering does not log in; follow with
// Login to open a session.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (UserInfoResponse, error) {
	var out UserInfoResponse
	err := c.postJSON(ctx, "/v1/auth/register", req, "", &out, http.StatusCreated)
	return out, err
}

// Login authenticates and opens a new session, returning its first token pair.
func (c *Client) Login(ctx context.Context, req LoginRequest) (TokenResponse, error) {
	var out TokenResponse
	err := c.postJSON(ctx, "/v1/auth/login", req, "", &out, http.StatusOK)
	return out, err
}

// Refresh rotates a refresh token for a new token pair. The presented token
// is single-use; on success it is revoked server-side.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (TokenResponse, error) {
	var out TokenResponse
	err := c.postJSON(ctx, "/v1/auth/refresh", RefreshRequest{RefreshToken: refreshToken}, "", &out, http.StatusOK)
	return out, err
}

// Logout revokes the session behind the given access token.
func (c *Client) Logout(ctx context.Context, accessToken string) error {
	resp, err := c.do(ctx, http.MethodPost, "/v1/auth/logout", nil, accessToken)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

// UserInfo returns the profile behind the given access token.
func (c *Client) UserInfo(ctx context.Context, accessToken string) (UserInfoResponse, error) {
	var out UserInfoResponse
	resp, err := c.do(ctx, http.MethodGet, "/v1/userinfo", nil, accessToken)
	if err != nil {
		return out, err
	}
	return out, decodeJSON(resp, &out, http.StatusOK)
}

// EnrollTOTP starts MFA enrollment for the authenticated user.
func (c *Client) EnrollTOTP(ctx context.Context, accessToken string) (TOTPEnrollResponse, error) {
	var out TOTPEnrollResponse
	err := c.postJSON(ctx, "/v1/mfa/enroll", nil, accessToken, &out, http.StatusOK)
	return out, err
}

// ActivateTOTP confirms enrollment with a first code, enabling MFA.
func (c *Client) ActivateTOTP(ctx context.Context, accessToken, code string) error {
	resp, err := c.do(ctx, http.MethodPost, "/v1/mfa/activate", TOTPCodeRequest{Code: code}, accessToken)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

// RemoveTOTP disables MFA after verifying a current code.
func (c *Client) RemoveTOTP(ctx context.Context, accessToken, code string) error {
	resp, err := c.do(ctx, http.MethodPost, "/v1/mfa/remove", TOTPCodeRequest{Code: code}, accessToken)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

// JWKS fetches the verification key set.
func (c *Client) JWKS(ctx context.Context) (JWKSResponse, error) {
	var out JWKSResponse
	resp, err := c.do(ctx, http.MethodGet, "/.well-known/jwks.json", nil, "")
	if err != nil {
		return out, err
	}
	return out, decodeJSON(resp, &out, http.StatusOK)
}

// Livez reports whether the service process is up.
func (c *Client) Livez(ctx context.Context) (HealthResponse, error) {
	var out HealthResponse
	resp, err := c.do(ctx, http.MethodGet, "/livez", nil, "")
	if err != nil {
		return out, err
	}
	return out, decodeJSON(resp, &out, http.StatusOK)
}

// Readyz reports whether the service can reach its dependencies.
func (c *Client) Readyz(ctx context.Context) (HealthResponse, error) {
	var out HealthResponse
	resp, err := c.do(ctx, http.MethodGet, "/readyz", nil, "")
	if err != nil {
		return out, err
	}
	return out, decodeJSON(resp, &out, http.StatusOK)
}

func (c *Client) url(path string) string {
	return c.BaseURL + path
}

// do performs a request, JSON-encoding body when non-nil and attaching the
// bearer token when provided.
func (c *Client) do(ctx context.Context, method, path string, body any, accessToken string) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return resp, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body any, accessToken string, target any, expectedStatus int) error {
	resp, err := c.do(ctx, http.MethodPost, path, body, accessToken)
	if err != nil {
		return err
	}
	return decodeJSON(resp, target, expectedStatus)
}

// decodeJSON decodes a JSON response into the target.
// Returns a typed *APIError if the response indicates an error.
func decodeJSON(resp *http.Response, target any, expectedStatus int) error {
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != expectedStatus {
		return parseErrorResponse(resp, bodyBytes)
	}

	if err := json.Unmarshal(bodyBytes, target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// checkStatusNoContent returns a typed error if the status is not 204.
func checkStatusNoContent(resp *http.Response) error {
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return parseErrorResponse(resp, bodyBytes)
	}

	return nil
}
