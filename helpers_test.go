package authclient_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	authclient "github.com/goliatone/go-auth-client"
	"github.com/goliatone/go-auth-client/internal/authstub"
	"github.com/goliatone/go-auth-client/store"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const stubEndpoint = "http://authstub.test"

// credential builds an unsigned three segment credential around payload.
func credential(t *testing.T, payload any) string {
	t.Helper()

	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	return header + "." + base64.RawURLEncoding.EncodeToString(raw) + ".c2lnbmF0dXJl"
}

func newStub(t *testing.T) *authstub.Server {
	t.Helper()

	srv, err := authstub.New(
		authstub.WithBcryptCost(bcrypt.MinCost),
		authstub.WithSecret([]byte("test-secret")),
		authstub.WithAccount("admin1", "secret", "Admin"),
		authstub.WithAccount("manager1", "secret", "manager"),
		authstub.WithAccount("guest1", "secret", "guest"),
	)
	require.NoError(t, err)
	return srv
}

func newStubManager(t *testing.T, opts ...authclient.ManagerOption) (*authclient.Manager, *authstub.Server, store.Store) {
	t.Helper()

	srv := newStub(t)
	st := store.NewMemory()
	client := authclient.NewClient(stubEndpoint,
		authclient.WithHTTPDoer(srv),
		authclient.WithClientLogger(authclient.NopLogger()),
	)

	opts = append([]authclient.ManagerOption{authclient.WithLogger(authclient.NopLogger())}, opts...)
	return authclient.NewManager(client, st, opts...), srv, st
}

// fiberDoer serves requests through a fiber app built by the test.
type fiberDoer struct {
	app *fiber.App
}

func newFiberDoer(register func(app *fiber.App)) *fiberDoer {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	register(app)
	return &fiberDoer{app: app}
}

func (d *fiberDoer) Do(req *http.Request) (*http.Response, error) {
	return d.app.Test(req, -1)
}

// respondWith returns a doer whose /login answers with status and body.
func respondWith(status int, body string) *fiberDoer {
	return newFiberDoer(func(app *fiber.App) {
		app.Post("/login", func(c *fiber.Ctx) error {
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.Status(status).SendString(body)
		})
	})
}

type doerFunc func(req *http.Request) (*http.Response, error)

func (f doerFunc) Do(req *http.Request) (*http.Response, error) {
	return f(req)
}

// MockAuthenticator implements authclient.Authenticator for testing
type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Login(ctx context.Context, username, password string) (string, error) {
	args := m.Called(ctx, username, password)
	return args.String(0), args.Error(1)
}

// MockLogouter implements authclient.Logouter for testing
type MockLogouter struct {
	mock.Mock
}

func (m *MockLogouter) Logout(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// failingStore wraps a store and fails the selected operations.
type failingStore struct {
	store.Store
	saveErr  error
	loadErr  error
	clearErr error
}

func (f *failingStore) Save(ctx context.Context, credential string) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	return f.Store.Save(ctx, credential)
}

func (f *failingStore) Load(ctx context.Context) (string, error) {
	if f.loadErr != nil {
		return "", f.loadErr
	}
	return f.Store.Load(ctx)
}

func (f *failingStore) Clear(ctx context.Context) error {
	if f.clearErr != nil {
		return f.clearErr
	}
	return f.Store.Clear(ctx)
}

type recordingSink struct {
	mu     sync.Mutex
	events []authclient.ActivityEvent
}

func (r *recordingSink) Record(_ context.Context, event authclient.ActivityEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingSink) types() []authclient.ActivityEventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]authclient.ActivityEventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.EventType)
	}
	return out
}

// staticSessions is a SessionReader returning a fixed answer.
type staticSessions struct {
	claims *authclient.ClaimSet
}

func (s staticSessions) CurrentUser(context.Context) (*authclient.ClaimSet, bool) {
	return s.claims, s.claims != nil
}
