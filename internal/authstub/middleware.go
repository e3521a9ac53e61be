package authstub

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	authScheme = "Bearer"
	claimsKey  = "authstub.claims"
)

// ErrMissingCredential is returned when no bearer credential was sent.
var ErrMissingCredential = errors.New("missing or malformed credential")

// Protected verifies the bearer credential and stores its claims in the
// request locals.
func (s *Server) Protected() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, err := bearerFromHeader(c.Get(fiber.HeaderAuthorization))
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": err.Error()})
		}

		claims := &Claims{}
		_, err = jwt.ParseWithClaims(raw, claims, s.keyFunc,
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(s.issuer),
		)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": err.Error()})
		}

		c.Locals(claimsKey, claims)
		return c.Next()
	}
}

// ClaimsFrom returns the claims stored by Protected.
func ClaimsFrom(c *fiber.Ctx) (*Claims, bool) {
	claims, ok := c.Locals(claimsKey).(*Claims)
	return claims, ok && claims != nil
}

func (s *Server) keyFunc(*jwt.Token) (any, error) {
	return s.secret, nil
}

func (s *Server) handleMe(c *fiber.Ctx) error {
	claims, ok := ClaimsFrom(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	return c.JSON(fiber.Map{
		"id":       claims.Subject,
		"username": claims.Username,
		"role":     claims.Role,
	})
}

func bearerFromHeader(header string) (string, error) {
	l := len(authScheme)
	if len(header) > l+1 && strings.EqualFold(header[:l], authScheme) {
		if raw := strings.TrimSpace(header[l:]); raw != "" {
			return raw, nil
		}
	}
	return "", ErrMissingCredential
}
