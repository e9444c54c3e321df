package httpx

import "context"

type ctxKey string

const (
	CtxKeyHandle    ctxKey = "handle"
	CtxKeySessionID ctxKey = "session_id"
	CtxKeyScopes    ctxKey = "scopes"
)

// HandleFromContext returns the authenticated user handle, if any.
func HandleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyHandle).(string); ok {
		return v
	}
	return ""
}

// SessionIDFromContext returns the authenticated session id, if any.
func SessionIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeySessionID).(string); ok {
		return v
	}
	return ""
}

func scopesFromCtx(ctx context.Context) []string {
	if v, ok := ctx.Value(CtxKeyScopes).([]string); ok {
		return v
	}
	return nil
}
