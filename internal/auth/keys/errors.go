package keys

import "errors"

// ErrExpired marks a verification failure caused by the token's exp claim
// being in the past. It is always wrapped in an InvalidParameterError so
// callers can treat it like any other unusable token, or single it out with
// errors.Is when they care.
var ErrExpired = errors.New("keys: token expired")

// InvalidParameterError is the single failure kind every verification error
// funnels into: bad signature, missing claim, mistyped claim, or a nested
// constructor failure. Callers get the offending reason but deliberately no
// structural distinction between "forged" and "malformed" - an unusable
// token is an unusable token.
type InvalidParameterError struct {
	Reason string
	cause  error
}

func invalidParam(reason string) *InvalidParameterError {
	return &InvalidParameterError{Reason: reason}
}

func invalidParamCause(reason string, cause error) *InvalidParameterError {
	return &InvalidParameterError{Reason: reason, cause: cause}
}

func (e *InvalidParameterError) Error() string {
	return "keys: invalid parameter: " + e.Reason
}

func (e *InvalidParameterError) Unwrap() error { return e.cause }

// IsInvalidParameter reports whether err is (or wraps) an InvalidParameterError.
func IsInvalidParameter(err error) bool {
	var ipe *InvalidParameterError
	return errors.As(err, &ipe)
}
