package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token kind values carried in the "tkn" claim. The two token kinds share
// one claim schema on the wire, so the discriminant is what stops a refresh
// token being replayed where an access token is expected (and vice versa).
const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

// Claims is the exact payload of a Quillfeed token. Timestamps are integer
// milliseconds since epoch, scope is a single space-joined string and the
// audience always serialises as an array.
type Claims struct {
	Issuer    string           `json:"iss"`
	Audience  jwt.ClaimStrings `json:"aud"`
	Subject   string           `json:"sub"`
	SessionID string           `json:"sid"`
	Scope     string           `json:"scope"`
	Kind      string           `json:"tkn"`
	IssuedAt  int64            `json:"iat"`
	ExpiresAt int64            `json:"exp"`
}

// The jwt.Claims interface wants NumericDates in seconds; ours are stored in
// milliseconds, so convert on the way out.

func (c Claims) GetExpirationTime() (*jwt.NumericDate, error) {
	return jwt.NewNumericDate(time.UnixMilli(c.ExpiresAt)), nil
}

func (c Claims) GetIssuedAt() (*jwt.NumericDate, error) {
	return jwt.NewNumericDate(time.UnixMilli(c.IssuedAt)), nil
}

func (c Claims) GetNotBefore() (*jwt.NumericDate, error) {
	return nil, nil
}

func (c Claims) GetIssuer() (string, error) {
	return c.Issuer, nil
}

func (c Claims) GetSubject() (string, error) {
	return c.Subject, nil
}

func (c Claims) GetAudience() (jwt.ClaimStrings, error) {
	return c.Audience, nil
}
