package authclient

import (
	"errors"
	"fmt"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
)

// verifiedPayload keeps registered claims strictly typed so the parser can
// validate exp, nbf and iat.
type verifiedPayload struct {
	jwt.RegisteredClaims
	Username *string `json:"username"`
	Role     *string `json:"role"`
}

func (p *verifiedPayload) claimSet() (*ClaimSet, error) {
	if p.Username == nil {
		return nil, invalidClaims("username")
	}
	if p.Role == nil {
		return nil, invalidClaims("role")
	}

	return &ClaimSet{
		RegisteredClaims: p.RegisteredClaims,
		Username:         *p.Username,
		Role:             Role(*p.Role),
	}, nil
}

type verifiedDecoder struct {
	keyFunc jwt.Keyfunc
	parser  *jwt.Parser
}

// NewVerifiedDecoder returns a decoder that checks the credential signature
// and registered claims (exp, nbf, iat) before trusting the payload.
func NewVerifiedDecoder(keyFunc jwt.Keyfunc, opts ...jwt.ParserOption) ClaimDecoder {
	return &verifiedDecoder{
		keyFunc: keyFunc,
		parser:  jwt.NewParser(opts...),
	}
}

// Decode satisfies the ClaimDecoder interface.
func (d *verifiedDecoder) Decode(credential string) (*ClaimSet, error) {
	if d.keyFunc == nil {
		return nil, detailed(ErrInvalidClaims, "no verification key configured", nil)
	}

	var payload verifiedPayload
	token, err := d.parser.ParseWithClaims(credential, &payload, d.keyFunc)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return nil, withCause(ErrMalformedCredential, err, nil)
		}
		return nil, withCause(ErrInvalidClaims, err, map[string]any{
			"reason": "verification failed",
		})
	}

	if !token.Valid {
		return nil, detailed(ErrInvalidClaims, "credential is not valid", nil)
	}

	return payload.claimSet()
}

// HMACKeyfunc verifies HS256/384/512 credentials with a shared secret.
func HMACKeyfunc(secret []byte) jwt.Keyfunc {
	return func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	}
}

// JWKSKeyfunc fetches the issuer key set from url and refreshes it in the
// background. Call the returned stop function to end the refresh loop.
func JWKSKeyfunc(url string, logger Logger) (jwt.Keyfunc, func(), error) {
	logger = normalizeLogger(logger)

	jwks, err := keyfunc.Get(url, keyfunc.Options{
		RefreshErrorHandler: func(err error) {
			logger.Warn("failed to refresh JWK set", "url", url, "error", err)
		},
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  5 * time.Minute,
		RefreshTimeout:    10 * time.Second,
		RefreshUnknownKID: true,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get JWK set: %w", err)
	}

	return jwks.Keyfunc, jwks.EndBackground, nil
}
