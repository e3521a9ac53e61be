package authclient

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ClaimSet is the structured payload of a credential.
type ClaimSet struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// ClaimDecoder turns a credential into a claim set.
type ClaimDecoder interface {
	Decode(credential string) (*ClaimSet, error)
}

// DecoderFunc adapts a function into a ClaimDecoder.
type DecoderFunc func(credential string) (*ClaimSet, error)

// Decode satisfies the ClaimDecoder interface.
func (f DecoderFunc) Decode(credential string) (*ClaimSet, error) {
	if f == nil {
		return nil, ErrMalformedCredential
	}
	return f(credential)
}

// UnverifiedDecoder returns the default decoder, which trusts the payload
// without checking the signature.
func UnverifiedDecoder() ClaimDecoder {
	return DecoderFunc(Decode)
}

// Expires returns the expiration time, zero when absent
func (c *ClaimSet) Expires() time.Time {
	if c.ExpiresAt != nil {
		return c.ExpiresAt.Time
	}
	return time.Time{}
}

// registeredFields are the standard claims carried over when they decode.
// A standard claim of an unexpected type is dropped, it never fails the
// credential.
var registeredFields = []string{"iss", "sub", "aud", "exp", "nbf", "iat", "jti"}

func claimSetFromPayload(raw []byte) (*ClaimSet, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, withCause(ErrInvalidClaims, err, nil)
	}

	username, ok := stringClaim(fields, "username")
	if !ok {
		return nil, invalidClaims("username")
	}
	role, ok := stringClaim(fields, "role")
	if !ok {
		return nil, invalidClaims("role")
	}

	claims := &ClaimSet{Username: username, Role: Role(role)}
	for _, name := range registeredFields {
		value, exists := fields[name]
		if !exists {
			continue
		}
		single, _ := json.Marshal(map[string]json.RawMessage{name: value})
		_ = json.Unmarshal(single, &claims.RegisteredClaims)
	}

	return claims, nil
}

func stringClaim(fields map[string]json.RawMessage, name string) (string, bool) {
	value, exists := fields[name]
	if !exists {
		return "", false
	}
	var out *string
	if err := json.Unmarshal(value, &out); err != nil || out == nil {
		return "", false
	}
	return *out, true
}

var segmentParser = jwt.NewParser(jwt.WithPaddingAllowed())

// Decode reads the payload segment of credential without verifying its
// signature. It fails with ErrMalformedCredential when the credential has
// fewer than two segments or the payload is not base64url, and with
// ErrInvalidClaims when the payload is not an object holding string
// username and role fields.
func Decode(credential string) (*ClaimSet, error) {
	segments := strings.Split(credential, ".")
	if len(segments) < 2 {
		return nil, detailed(ErrMalformedCredential, "", map[string]any{
			"segments": len(segments),
		})
	}

	raw, err := segmentParser.DecodeSegment(segments[1])
	if err != nil {
		return nil, withCause(ErrMalformedCredential, err, nil)
	}

	return claimSetFromPayload(raw)
}

func invalidClaims(field string) error {
	return detailed(ErrInvalidClaims, "missing or invalid claim: "+field, map[string]any{
		"claim": field,
	})
}
