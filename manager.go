package authclient

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/goliatone/go-auth-client/store"
	"github.com/hashicorp/go-set/v3"
)

// Manager owns the session lifecycle: it acquires a credential through an
// Authenticator, persists it in a store.Store and answers who is logged in.
// It holds no cached copy of the credential, every query re-reads the store.
type Manager struct {
	auth              Authenticator
	store             store.Store
	decoder           ClaimDecoder
	permitted         *set.Set[Role]
	clearUnauthorized bool
	logger            Logger
	activity          ActivitySink
	now               func() time.Time

	mu          sync.Mutex
	closers     []func() error
	lastInvalid string
}

var (
	_ SessionReader = (*Manager)(nil)
	_ Logouter      = (*Manager)(nil)
)

// ManagerOption customizes the Manager.
type ManagerOption func(*Manager)

// WithDecoder replaces the optimistic claim decoder, e.g. with
// NewVerifiedDecoder.
func WithDecoder(decoder ClaimDecoder) ManagerOption {
	return func(m *Manager) {
		if decoder != nil {
			m.decoder = decoder
		}
	}
}

// WithPermittedRoles sets the roles Login accepts. Defaults to AdminRoles.
func WithPermittedRoles(roles *set.Set[Role]) ManagerOption {
	return func(m *Manager) {
		if roles != nil {
			m.permitted = roles
		}
	}
}

// WithClearUnauthorized makes Login remove a credential whose role is not
// permitted.
func WithClearUnauthorized() ManagerOption {
	return func(m *Manager) {
		m.clearUnauthorized = true
	}
}

// WithLogger sets the logger.
func WithLogger(logger Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithActivitySink sets the sink that receives session events.
func WithActivitySink(sink ActivitySink) ManagerOption {
	return func(m *Manager) {
		m.activity = normalizeActivitySink(sink)
	}
}

// WithClock injects a custom clock (useful for tests).
func WithClock(clock func() time.Time) ManagerOption {
	return func(m *Manager) {
		if clock != nil {
			m.now = clock
		}
	}
}

func withCloser(fn func() error) ManagerOption {
	return func(m *Manager) {
		if fn != nil {
			m.closers = append(m.closers, fn)
		}
	}
}

// NewManager returns a Manager that logs in through auth and keeps the
// credential in st.
func NewManager(auth Authenticator, st store.Store, opts ...ManagerOption) *Manager {
	m := &Manager{
		auth:      auth,
		store:     st,
		decoder:   UnverifiedDecoder(),
		permitted: AdminRoles(),
		logger:    defLogger{},
		activity:  noopActivitySink{},
		now:       time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	return m
}

// Login authenticates against the remote service, persists the issued
// credential and checks its role.
//
// The credential is persisted before it is decoded, so a credential that
// fails with ErrInvalidCredential or ErrUnauthorized is still stored unless
// WithClearUnauthorized was given for the latter.
func (m *Manager) Login(ctx context.Context, username, password string) (Role, error) {
	credential, err := m.auth.Login(ctx, username, password)
	if err != nil {
		m.logger.Info("login failed", "username", username, "error", err)
		m.recordActivity(ctx, ActivityEvent{
			EventType: ActivityEventLoginFailure,
			Username:  username,
			Metadata:  map[string]any{"error": err.Error()},
		})
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Save(ctx, credential); err != nil {
		m.logger.Error("failed to persist credential", "username", username, "error", err)
		return "", withCause(ErrSessionStorage, err, map[string]any{"operation": "save"})
	}

	claims, err := m.decoder.Decode(credential)
	if err != nil {
		m.logger.Warn("issued credential could not be decoded", "username", username, "error", err)
		m.recordActivity(ctx, ActivityEvent{
			EventType: ActivityEventLoginFailure,
			Username:  username,
			Metadata:  map[string]any{"error": err.Error()},
		})
		return "", withCause(ErrInvalidCredential, err, nil)
	}

	if !IsPermitted(claims.Role, m.permitted) {
		m.logger.Info("role not permitted", "username", claims.Username, "role", claims.Role)
		metadata := map[string]any{"role": claims.Role.String()}
		if m.clearUnauthorized {
			if err := m.store.Clear(ctx); err != nil {
				m.logger.Error("failed to clear unauthorized credential", "error", err)
			}
			metadata["cleared"] = true
		}
		m.recordActivity(ctx, ActivityEvent{
			EventType: ActivityEventLoginUnauthorized,
			Username:  claims.Username,
			Role:      claims.Role,
			Metadata:  metadata,
		})
		return "", detailed(ErrUnauthorized, "", metadata)
	}

	m.logger.Info("login succeeded", "username", claims.Username, "role", claims.Role)
	m.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventLoginSuccess,
		Username:  claims.Username,
		Role:      claims.Role,
	})

	return claims.Role, nil
}

// CurrentUser returns the claims of the persisted credential. A missing,
// unreadable or undecodable credential reports no session.
func (m *Manager) CurrentUser(ctx context.Context) (*ClaimSet, bool) {
	m.mu.Lock()
	credential, err := m.store.Load(ctx)
	m.mu.Unlock()

	if err != nil {
		if !store.IsNotFound(err) {
			m.logger.Warn("failed to load credential", "error", err)
		}
		return nil, false
	}

	claims, err := m.decoder.Decode(credential)
	if err != nil {
		m.reportInvalid(ctx, credential, err)
		return nil, false
	}

	return claims, true
}

// reportInvalid warns and records session.invalid once per distinct stored
// credential. Repeated reads of the same credential log at Debug.
func (m *Manager) reportInvalid(ctx context.Context, credential string, err error) {
	m.mu.Lock()
	seen := m.lastInvalid == credential
	m.lastInvalid = credential
	m.mu.Unlock()

	if seen {
		m.logger.Debug("stored credential is invalid", "error", err)
		return
	}

	m.logger.Warn("stored credential is invalid", "error", err)
	m.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventSessionInvalid,
		Metadata:  map[string]any{"error": err.Error()},
	})
}

// CurrentRole returns the role of the current session.
func (m *Manager) CurrentRole(ctx context.Context) (Role, bool) {
	claims, ok := m.CurrentUser(ctx)
	if !ok {
		return "", false
	}
	return claims.Role, true
}

// Logout removes the persisted credential. It performs no network call and
// succeeds when nobody is logged in.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var username string
	if credential, err := m.store.Load(ctx); err == nil {
		if claims, err := m.decoder.Decode(credential); err == nil {
			username = claims.Username
		}
	}

	if err := m.store.Clear(ctx); err != nil {
		m.logger.Error("failed to clear credential", "error", err)
		return withCause(ErrSessionStorage, err, map[string]any{"operation": "clear"})
	}

	m.logger.Info("logged out", "username", username)
	m.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventLogout,
		Username:  username,
	})

	return nil
}

// Close releases resources acquired by Open. It is safe to call more than
// once.
func (m *Manager) Close() error {
	m.mu.Lock()
	closers := m.closers
	m.closers = nil
	m.mu.Unlock()

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Manager) recordActivity(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = m.now()
	}

	sink := normalizeActivitySink(m.activity)
	if err := sink.Record(ctx, event); err != nil {
		m.logger.Warn("activity sink error", "error", err)
	}
}
