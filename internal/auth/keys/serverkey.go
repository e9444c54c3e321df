package keys

import (
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/quillfeed/quillfeed/internal/auth/domain"
	"github.com/quillfeed/quillfeed/pkg/jwtx"
)

// ServerKey is the credential authority: the sole holder of the signing
// keypair and the only component allowed to produce or accept a token
// signature. The key material is parsed once at construction and immutable
// afterwards, so one instance serves concurrent sign and verify calls
// without locking.
type ServerKey struct {
	signer   *jwtx.EdDSASigner
	verifier *jwtx.EdDSAVerifier
	keyset   *jwtx.KeySet
	params   Params
}

// NewServerKey builds an authority from keypair material. The Params value
// is owned by the returned instance from here on.
func NewServerKey(params Params) (*ServerKey, error) {
	signer, err := jwtx.NewSignerEdDSA(params.Kid, params.PrivateKeyPEM)
	if err != nil {
		return nil, err
	}
	if err := signer.Validate(); err != nil {
		return nil, err
	}

	keyset := jwtx.NewKeySet()
	if err := keyset.AddSigner(signer); err != nil {
		return nil, err
	}

	return &ServerKey{
		signer:   signer,
		verifier: jwtx.NewVerifierEdDSA(keyset),
		keyset:   keyset,
		params:   params,
	}, nil
}

func (k *ServerKey) KID() string { return k.params.Kid }

// Params returns the keypair material the authority was built from.
func (k *ServerKey) Params() Params { return k.params }

// KeySet exposes the verification keys, e.g. for the JWKS endpoint.
func (k *ServerKey) KeySet() *jwtx.KeySet { return k.keyset }

// SignAccessToken serializes an access token's claims and signs them.
// Always succeeds for a well-formed token; signing is pure CPU work.
func (k *ServerKey) SignAccessToken(t domain.AccessToken) (string, error) {
	return k.signer.Sign(claimsFor(
		t.Issuer, t.Audience, t.Handle, t.SessionID, t.Scope(),
		jwtx.KindAccess, t.IssuedAt, t.ExpiresAt,
	))
}

// SignRefreshToken signs a refresh token. The encoding procedure is
// claim-for-claim identical to access tokens; only the tkn discriminant
// differs.
func (k *ServerKey) SignRefreshToken(t domain.RefreshToken) (string, error) {
	return k.signer.Sign(claimsFor(
		t.Issuer, t.Audience, t.Handle, t.SessionID, t.Scope(),
		jwtx.KindRefresh, t.IssuedAt, t.ExpiresAt,
	))
}

// VerifyAccessToken checks the signature, validates the claim set, and
// reconstructs the AccessToken record. Every failure mode comes back as an
// *InvalidParameterError.
func (k *ServerKey) VerifyAccessToken(s string) (domain.AccessToken, error) {
	c, err := k.decode(s, jwtx.KindAccess)
	if err != nil {
		return domain.AccessToken{}, err
	}

	tok, err := domain.NewAccessToken(
		c.issuer, c.audience, c.handle, c.sessionID, c.scopes, c.issuedAt, c.expiresAt,
	)
	if err != nil {
		return domain.AccessToken{}, invalidParamCause(err.Error(), err)
	}
	return tok, nil
}

// VerifyRefreshToken runs the identical extraction pipeline, then hands the
// fields to the RefreshToken constructor; its derived-access-shape check
// failing propagates as the outer result's error.
func (k *ServerKey) VerifyRefreshToken(s string) (domain.RefreshToken, error) {
	c, err := k.decode(s, jwtx.KindRefresh)
	if err != nil {
		return domain.RefreshToken{}, err
	}

	tok, err := domain.NewRefreshToken(
		c.issuer, c.audience, c.handle, c.sessionID, c.scopes, c.issuedAt, c.expiresAt,
	)
	if err != nil {
		return domain.RefreshToken{}, invalidParamCause(err.Error(), err)
	}
	return tok, nil
}

// claimValues are the extracted, validated raw fields of a verified token.
type claimValues struct {
	issuer    string
	audience  []string
	handle    domain.UserHandle
	sessionID domain.SessionID
	scopes    []string
	issuedAt  time.Time
	expiresAt time.Time
}

// decode verifies the signature, then validates claims in a fixed order:
// tkn, iss, sub, sid, scope, iat, exp. The first missing or mistyped claim
// short-circuits with its own reason; later problems go unreported.
func (k *ServerKey) decode(s, wantKind string) (claimValues, error) {
	raw, err := k.verifier.Decode(s)
	if err != nil {
		return claimValues{}, invalidParamCause("token verification failed", err)
	}

	kind, _ := raw["tkn"].(string)
	if kind != wantKind {
		return claimValues{}, invalidParam("token kind is not " + strconv.Quote(wantKind))
	}

	iss, ok := raw["iss"].(string)
	if !ok || iss == "" {
		return claimValues{}, invalidParam("no iss claim")
	}

	sub, ok := raw["sub"].(string)
	if !ok || sub == "" {
		return claimValues{}, invalidParam("no sub claim")
	}
	handle, err := domain.ParseUserHandle(sub)
	if err != nil {
		return claimValues{}, invalidParamCause(err.Error(), err)
	}

	sid, ok := raw["sid"].(string)
	if !ok || sid == "" {
		return claimValues{}, invalidParam("no sid claim")
	}
	sessionID, err := domain.ParseSessionID(sid)
	if err != nil {
		return claimValues{}, invalidParamCause(err.Error(), err)
	}

	scope, ok := raw["scope"].(string)
	if !ok || strings.TrimSpace(scope) == "" {
		return claimValues{}, invalidParam("no scope claim")
	}

	iat, ok := raw["iat"].(float64)
	if !ok {
		return claimValues{}, invalidParam("no iat claim")
	}

	exp, ok := raw["exp"].(float64)
	if !ok {
		return claimValues{}, invalidParam("no exp claim")
	}
	expiresAt := time.UnixMilli(int64(exp)).UTC()
	if !expiresAt.After(time.Now()) {
		return claimValues{}, invalidParamCause("token expired", ErrExpired)
	}

	return claimValues{
		issuer:    iss,
		audience:  audienceStrings(raw["aud"]),
		handle:    handle,
		sessionID: sessionID,
		scopes:    strings.Fields(scope),
		issuedAt:  time.UnixMilli(int64(iat)).UTC(),
		expiresAt: expiresAt,
	}, nil
}

// audienceStrings extracts the aud claim leniently: array, single string,
// or absent all decode without failing the pipeline.
func audienceStrings(v any) []string {
	switch aud := v.(type) {
	case []any:
		out := make([]string, 0, len(aud))
		for _, a := range aud {
			if s, ok := a.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return []string{aud}
	default:
		return nil
	}
}

// claimsFor builds the wire claim set from token record fields.
func claimsFor(
	issuer string,
	audience []string,
	handle domain.UserHandle,
	sessionID domain.SessionID,
	scope, kind string,
	issuedAt, expiresAt time.Time,
) jwtx.Claims {
	return jwtx.Claims{
		Issuer:    issuer,
		Audience:  jwt.ClaimStrings(audience),
		Subject:   handle.String(),
		SessionID: sessionID.String(),
		Scope:     scope,
		Kind:      kind,
		IssuedAt:  issuedAt.UnixMilli(),
		ExpiresAt: expiresAt.UnixMilli(),
	}
}
