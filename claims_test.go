package authclient_test

import (
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	authclient "github.com/goliatone/go-auth-client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	t.Run("reads username and role", func(t *testing.T) {
		claims, err := authclient.Decode(credential(t, map[string]any{
			"username": "admin1",
			"role":     "Admin",
		}))
		require.NoError(t, err)
		assert.Equal(t, "admin1", claims.Username)
		assert.Equal(t, authclient.RoleAdmin, claims.Role)
	})

	t.Run("ignores unknown fields and keeps registered claims", func(t *testing.T) {
		exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
		claims, err := authclient.Decode(credential(t, map[string]any{
			"username": "m",
			"role":     "manager",
			"sub":      "42",
			"exp":      exp.Unix(),
			"extra":    []int{1, 2},
		}))
		require.NoError(t, err)
		assert.Equal(t, authclient.RoleManager, claims.Role)
		assert.Equal(t, "42", claims.Subject)
		assert.True(t, exp.Equal(claims.Expires()))
	})

	t.Run("does not check expiry", func(t *testing.T) {
		claims, err := authclient.Decode(credential(t, map[string]any{
			"username": "old",
			"role":     "Admin",
			"exp":      time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC).Unix(),
		}))
		require.NoError(t, err)
		assert.Equal(t, "old", claims.Username)
	})

	t.Run("accepts padded payloads and two segments", func(t *testing.T) {
		payload := base64.URLEncoding.EncodeToString([]byte(`{"username":"ab","role":"guest"}`))
		claims, err := authclient.Decode("header." + payload)
		require.NoError(t, err)
		assert.Equal(t, authclient.RoleGuest, claims.Role)
	})

	t.Run("empty strings are present claims", func(t *testing.T) {
		claims, err := authclient.Decode(credential(t, map[string]any{
			"username": "",
			"role":     "",
		}))
		require.NoError(t, err)
		assert.Equal(t, authclient.Role(""), claims.Role)
	})

	t.Run("drops standard claims of unexpected types", func(t *testing.T) {
		tests := []struct {
			name  string
			claim string
			value any
		}{
			{name: "numeric sub", claim: "sub", value: 7},
			{name: "numeric aud", claim: "aud", value: 42},
			{name: "string exp", claim: "exp", value: "tomorrow"},
			{name: "object iss", claim: "iss", value: map[string]any{"a": 1}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				claims, err := authclient.Decode(credential(t, map[string]any{
					"username": "admin1",
					"role":     "Admin",
					"iat":      int64(1700000000),
					tt.claim:   tt.value,
				}))
				require.NoError(t, err)
				assert.Equal(t, "admin1", claims.Username)
				assert.Equal(t, authclient.RoleAdmin, claims.Role)
				require.NotNil(t, claims.IssuedAt)
				assert.Equal(t, int64(1700000000), claims.IssuedAt.Unix())
			})
		}

		claims, err := authclient.Decode(credential(t, map[string]any{
			"username": "x",
			"role":     "Admin",
			"sub":      7,
			"aud":      []string{"parking"},
			"exp":      "tomorrow",
		}))
		require.NoError(t, err)
		assert.Empty(t, claims.Subject)
		assert.Nil(t, claims.ExpiresAt)
		assert.Equal(t, jwt.ClaimStrings{"parking"}, claims.Audience)
	})

	tests := []struct {
		name       string
		credential string
		want       error
	}{
		{name: "empty", credential: "", want: authclient.ErrMalformedCredential},
		{name: "single segment", credential: "abc", want: authclient.ErrMalformedCredential},
		{name: "payload not base64url", credential: "a.$$$.c", want: authclient.ErrMalformedCredential},
		{
			name:       "payload not json",
			credential: "a." + base64.RawURLEncoding.EncodeToString([]byte("not json")) + ".c",
			want:       authclient.ErrInvalidClaims,
		},
		{
			name:       "payload is an array",
			credential: "a." + base64.RawURLEncoding.EncodeToString([]byte(`["x"]`)) + ".c",
			want:       authclient.ErrInvalidClaims,
		},
		{
			name:       "missing role",
			credential: "a." + base64.RawURLEncoding.EncodeToString([]byte(`{"username":"x"}`)) + ".c",
			want:       authclient.ErrInvalidClaims,
		},
		{
			name:       "missing username",
			credential: "a." + base64.RawURLEncoding.EncodeToString([]byte(`{"role":"Admin"}`)) + ".c",
			want:       authclient.ErrInvalidClaims,
		},
		{
			name:       "null role",
			credential: "a." + base64.RawURLEncoding.EncodeToString([]byte(`{"username":"x","role":null}`)) + ".c",
			want:       authclient.ErrInvalidClaims,
		},
		{
			name:       "numeric role",
			credential: "a." + base64.RawURLEncoding.EncodeToString([]byte(`{"username":"x","role":7}`)) + ".c",
			want:       authclient.ErrInvalidClaims,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := authclient.Decode(tt.credential)
			assert.Nil(t, claims)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestDecode_MatchesSignedCredential(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": "admin1",
		"role":     "Admin",
	})
	raw, err := token.SignedString([]byte("whatever"))
	require.NoError(t, err)

	claims, err := authclient.UnverifiedDecoder().Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, "admin1", claims.Username)
}

func TestDecoderFunc(t *testing.T) {
	var nilFunc authclient.DecoderFunc
	_, err := nilFunc.Decode("a.b.c")
	assert.ErrorIs(t, err, authclient.ErrMalformedCredential)

	fixed := authclient.DecoderFunc(func(string) (*authclient.ClaimSet, error) {
		return &authclient.ClaimSet{Username: "fixed", Role: authclient.RoleGuest}, nil
	})
	claims, err := fixed.Decode("anything")
	require.NoError(t, err)
	assert.Equal(t, "fixed", claims.Username)
}
