// Package authstub is a development authentication service. It answers
// POST /login with an HS256 credential carrying the username and role of a
// configured account, and GET /me with the claims of a bearer credential.
package authstub

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	// MessageInvalidCredentials is sent with 401 responses.
	MessageInvalidCredentials = "Invalid username or password"
	// MessageBadRequest is sent when the body cannot be parsed.
	MessageBadRequest = "Invalid request body"
)

// Claims is the payload of an issued credential.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Account is a user the stub accepts.
type Account struct {
	ID           string
	Username     string
	Role         string
	PasswordHash string
}

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Password, validation.Required),
	)
}

// Server holds the accounts and the signing key.
type Server struct {
	app    *fiber.App
	secret []byte
	issuer string
	ttl    time.Duration
	cost   int
	now    func() time.Time

	pending []pendingAccount

	mu       sync.RWMutex
	accounts map[string]Account
}

// Option customizes the Server.
type Option func(*Server)

// WithSecret sets the HS256 signing key.
func WithSecret(secret []byte) Option {
	return func(s *Server) {
		if len(secret) > 0 {
			s.secret = secret
		}
	}
}

// WithIssuer sets the iss claim.
func WithIssuer(issuer string) Option {
	return func(s *Server) {
		s.issuer = issuer
	}
}

// WithTTL sets how long issued credentials are valid.
func WithTTL(ttl time.Duration) Option {
	return func(s *Server) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithBcryptCost sets the cost used to hash account passwords.
func WithBcryptCost(cost int) Option {
	return func(s *Server) {
		s.cost = cost
	}
}

// WithClock injects a custom clock (useful for tests).
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// WithAccount registers an account.
func WithAccount(username, password, role string) Option {
	return func(s *Server) {
		s.pending = append(s.pending, pendingAccount{username, password, role})
	}
}

type pendingAccount struct {
	username, password, role string
}

// New builds a stub with the given options. Accounts given through
// WithAccount are hashed before New returns.
func New(opts ...Option) (*Server, error) {
	s := &Server{
		secret:   []byte("authstub-dev-secret"),
		issuer:   "authstub",
		ttl:      24 * time.Hour,
		cost:     bcrypt.DefaultCost,
		now:      time.Now,
		accounts: map[string]Account{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	for _, p := range s.pending {
		if err := s.AddAccount(p.username, p.password, p.role); err != nil {
			return nil, err
		}
	}
	s.pending = nil

	s.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})
	s.app.Post("/login", s.handleLogin)
	s.app.Get("/me", s.Protected(), s.handleMe)

	return s, nil
}

// AddAccount registers or replaces an account.
func (s *Server) AddAccount(username, password, role string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return errors.New("authstub: username and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.accounts[username] = Account{
		ID:           uuid.NewString(),
		Username:     username,
		Role:         role,
		PasswordHash: string(hash),
	}
	return nil
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Secret returns the signing key.
func (s *Server) Secret() []byte {
	return s.secret
}

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown stops the listener.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// Do serves req in process, without a listener.
func (s *Server) Do(req *http.Request) (*http.Response, error) {
	return s.app.Test(req, -1)
}

// Mint issues a credential for an arbitrary subject.
func (s *Server) Mint(id, username, role string) (string, error) {
	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   id,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Username: username,
		Role:     role,
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": MessageBadRequest})
	}

	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	s.mu.RLock()
	account, ok := s.accounts[req.Username]
	s.mu.RUnlock()

	if !ok || bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)) != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": MessageInvalidCredentials})
	}

	token, err := s.Mint(account.ID, account.Username, account.Role)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"token": token})
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{"message": err.Error()})
}
