package authclient_test

import (
	"errors"
	"fmt"
	"testing"

	authclient "github.com/goliatone/go-auth-client"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
)

func TestSentinels(t *testing.T) {
	tests := []struct {
		name     string
		err      *goerrors.Error
		category goerrors.Category
		textCode string
	}{
		{"network failure", authclient.ErrNetworkFailure, goerrors.CategoryOperation, authclient.TextCodeNetworkFailure},
		{"rejected", authclient.ErrRejected, goerrors.CategoryAuth, authclient.TextCodeLoginRejected},
		{"malformed response", authclient.ErrMalformedResponse, goerrors.CategoryOperation, authclient.TextCodeMalformedResponse},
		{"invalid credential", authclient.ErrInvalidCredential, goerrors.CategoryAuth, authclient.TextCodeInvalidCredential},
		{"unauthorized", authclient.ErrUnauthorized, goerrors.CategoryAuthz, authclient.TextCodeUnauthorizedRole},
		{"malformed credential", authclient.ErrMalformedCredential, goerrors.CategoryBadInput, authclient.TextCodeMalformedCredential},
		{"invalid claims", authclient.ErrInvalidClaims, goerrors.CategoryValidation, authclient.TextCodeInvalidClaims},
		{"session storage", authclient.ErrSessionStorage, goerrors.CategoryInternal, authclient.TextCodeSessionStorage},
		{"no session", authclient.ErrNoSession, goerrors.CategoryAuth, authclient.TextCodeNoSession},
		{"forbidden route", authclient.ErrForbiddenRoute, goerrors.CategoryAuthz, authclient.TextCodeForbiddenRoute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.category, tt.err.Category)
			assert.Equal(t, tt.textCode, tt.err.TextCode)
		})
	}
}

func TestRejectionMessage(t *testing.T) {
	t.Run("server message", func(t *testing.T) {
		_, err := authclient.NewClient(stubEndpoint,
			authclient.WithHTTPDoer(respondWith(401, `{"message":"bad credentials"}`)),
			authclient.WithClientLogger(authclient.NopLogger()),
		).Login(t.Context(), "u", "p")

		msg, ok := authclient.RejectionMessage(err)
		assert.True(t, ok)
		assert.Equal(t, "bad credentials", msg)
	})

	t.Run("bare sentinel falls back", func(t *testing.T) {
		msg, ok := authclient.RejectionMessage(authclient.ErrRejected)
		assert.True(t, ok)
		assert.Equal(t, authclient.MessageLoginFailed, msg)
	})

	t.Run("other errors", func(t *testing.T) {
		_, ok := authclient.RejectionMessage(authclient.ErrNetworkFailure)
		assert.False(t, ok)

		_, ok = authclient.RejectionMessage(nil)
		assert.False(t, ok)
	})
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"unauthorized", authclient.ErrUnauthorized, authclient.MessageUnauthorized},
		{"wrapped unauthorized", fmt.Errorf("login: %w", authclient.ErrUnauthorized), authclient.MessageUnauthorized},
		{"rejected", authclient.ErrRejected, authclient.MessageLoginFailed},
		{"network", authclient.ErrNetworkFailure, authclient.MessageUnexpected},
		{"malformed response", authclient.ErrMalformedResponse, authclient.MessageUnexpected},
		{"invalid credential", authclient.ErrInvalidCredential, authclient.MessageUnexpected},
		{"plain error", errors.New("boom"), authclient.MessageUnexpected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, authclient.UserMessage(tt.err))
		})
	}
}
