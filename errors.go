package authclient

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeNetworkFailure      = "NETWORK_FAILURE"
	TextCodeLoginRejected       = "LOGIN_REJECTED"
	TextCodeMalformedResponse   = "MALFORMED_RESPONSE"
	TextCodeInvalidCredential   = "INVALID_CREDENTIAL"
	TextCodeUnauthorizedRole    = "UNAUTHORIZED_ROLE"
	TextCodeMalformedCredential = "MALFORMED_CREDENTIAL"
	TextCodeInvalidClaims       = "INVALID_CLAIMS"
	TextCodeSessionStorage      = "SESSION_STORAGE"
	TextCodeNoSession           = "NO_SESSION"
	TextCodeForbiddenRoute      = "FORBIDDEN_ROUTE"
)

// Fallback messages shown inline by the presentation layer.
const (
	MessageLoginFailed  = "Login failed."
	MessageUnauthorized = "Unauthorized access."
	MessageUnexpected   = "Something went wrong."
)

// ErrNetworkFailure is returned when the authentication endpoint could not be reached.
var ErrNetworkFailure = goerrors.New("authentication endpoint unreachable", goerrors.CategoryOperation).
	WithTextCode(TextCodeNetworkFailure).
	WithCode(goerrors.CodeInternal)

// ErrRejected is returned when the server declined the credentials. The
// server supplied reason is available through RejectionMessage.
var ErrRejected = goerrors.New(MessageLoginFailed, goerrors.CategoryAuth).
	WithTextCode(TextCodeLoginRejected).
	WithCode(goerrors.CodeUnauthorized)

// ErrMalformedResponse is returned when a success response carries no token.
var ErrMalformedResponse = goerrors.New("login response is missing a token", goerrors.CategoryOperation).
	WithTextCode(TextCodeMalformedResponse).
	WithCode(goerrors.CodeInternal)

// ErrInvalidCredential is returned when an issued token cannot be decoded.
var ErrInvalidCredential = goerrors.New("issued credential could not be decoded", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredential).
	WithCode(goerrors.CodeUnauthorized)

// ErrUnauthorized is returned when the credential role is not permitted.
var ErrUnauthorized = goerrors.New(MessageUnauthorized, goerrors.CategoryAuthz).
	WithTextCode(TextCodeUnauthorizedRole).
	WithCode(goerrors.CodeForbidden)

// ErrMalformedCredential is returned when the credential is not segmented
// base64url.
var ErrMalformedCredential = goerrors.New("malformed credential", goerrors.CategoryBadInput).
	WithTextCode(TextCodeMalformedCredential).
	WithCode(goerrors.CodeBadRequest)

// ErrInvalidClaims is returned when the payload is not a claim set with a
// string username and role.
var ErrInvalidClaims = goerrors.New("invalid credential claims", goerrors.CategoryValidation).
	WithTextCode(TextCodeInvalidClaims).
	WithCode(goerrors.CodeBadRequest)

// ErrSessionStorage is returned when the session store fails to persist or clear.
var ErrSessionStorage = goerrors.New("session storage failure", goerrors.CategoryInternal).
	WithTextCode(TextCodeSessionStorage).
	WithCode(goerrors.CodeInternal)

// ErrNoSession is returned by the gate when nobody is logged in.
var ErrNoSession = goerrors.New("no active session", goerrors.CategoryAuth).
	WithTextCode(TextCodeNoSession).
	WithCode(goerrors.CodeUnauthorized)

// ErrForbiddenRoute is returned by the gate when the session role may not
// open a route.
var ErrForbiddenRoute = goerrors.New("route not permitted for role", goerrors.CategoryAuthz).
	WithTextCode(TextCodeForbiddenRoute).
	WithCode(goerrors.CodeForbidden)

// detailed returns a copy of base with its own message and metadata. The
// copy unwraps to base so errors.Is keeps matching the sentinel.
func detailed(base *goerrors.Error, message string, metadata map[string]any) error {
	clone := base.Clone()
	if clone == nil {
		return base
	}
	if message != "" {
		clone.Message = message
	}
	clone.Source = base
	if len(metadata) == 0 {
		return clone
	}
	return clone.WithMetadata(metadata)
}

func withCause(base *goerrors.Error, cause error, metadata map[string]any) error {
	if cause == nil {
		return detailed(base, "", metadata)
	}
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadata["cause"] = cause.Error()
	return detailed(base, "", metadata)
}

// RejectionMessage returns the server supplied reason carried by an
// ErrRejected error.
func RejectionMessage(err error) (string, bool) {
	if !errors.Is(err, ErrRejected) {
		return "", false
	}

	var richErr *goerrors.Error
	if errors.As(err, &richErr) && richErr.Message != "" {
		return richErr.Message, true
	}
	return MessageLoginFailed, true
}

// UserMessage maps a login error to the inline text shown next to the form.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnauthorized):
		return MessageUnauthorized
	case errors.Is(err, ErrRejected):
		msg, _ := RejectionMessage(err)
		return msg
	default:
		return MessageUnexpected
	}
}
