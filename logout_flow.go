package authclient

import (
	"context"
	"sync"
)

// LogoutState is the state of the logout confirmation dialog.
type LogoutState string

const (
	LogoutIdle                 LogoutState = "idle"
	LogoutAwaitingConfirmation LogoutState = "awaiting_confirmation"
)

// LogoutEvent drives the logout confirmation dialog.
type LogoutEvent string

const (
	LogoutEventRequest LogoutEvent = "request_logout"
	LogoutEventConfirm LogoutEvent = "confirm"
	LogoutEventCancel  LogoutEvent = "cancel"
)

var logoutTransitions = map[LogoutState]map[LogoutEvent]LogoutState{
	LogoutIdle: {
		LogoutEventRequest: LogoutAwaitingConfirmation,
	},
	LogoutAwaitingConfirmation: {
		LogoutEventConfirm: LogoutIdle,
		LogoutEventCancel:  LogoutIdle,
	},
}

// LogoutFlow is the two step logout dialog. A logout happens only when a
// confirm follows a request; any other sequence leaves the session alone.
type LogoutFlow struct {
	sessions    Logouter
	onLoggedOut func(ctx context.Context)
	logger      Logger

	mu    sync.Mutex
	state LogoutState
}

// LogoutFlowOption customizes the LogoutFlow.
type LogoutFlowOption func(*LogoutFlow)

// WithOnLoggedOut registers the hook run after a confirmed logout
// succeeded, typically navigating back to "/".
func WithOnLoggedOut(fn func(ctx context.Context)) LogoutFlowOption {
	return func(f *LogoutFlow) {
		f.onLoggedOut = fn
	}
}

// WithLogoutFlowLogger sets the logger.
func WithLogoutFlowLogger(logger Logger) LogoutFlowOption {
	return func(f *LogoutFlow) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewLogoutFlow returns an idle flow that logs out through sessions.
func NewLogoutFlow(sessions Logouter, opts ...LogoutFlowOption) *LogoutFlow {
	f := &LogoutFlow{
		sessions: sessions,
		logger:   defLogger{},
		state:    LogoutIdle,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}

	return f
}

// State returns the current state.
func (f *LogoutFlow) State() LogoutState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Fire applies event. Events with no transition from the current state are
// ignored. Confirming calls Logout exactly once; if it fails the flow still
// returns to idle, the error is returned and the hook is skipped.
func (f *LogoutFlow) Fire(ctx context.Context, event LogoutEvent) (LogoutState, error) {
	f.mu.Lock()

	from := f.state
	to, ok := logoutTransitions[from][event]
	if !ok {
		f.mu.Unlock()
		f.logger.Debug("logout flow event ignored", "state", from, "event", event)
		return from, nil
	}
	f.state = to
	f.mu.Unlock()

	if from != LogoutAwaitingConfirmation || event != LogoutEventConfirm {
		return to, nil
	}

	if err := f.sessions.Logout(ctx); err != nil {
		f.logger.Error("logout failed", "error", err)
		return to, err
	}

	if f.onLoggedOut != nil {
		f.onLoggedOut(ctx)
	}

	return to, nil
}

// RequestLogout opens the confirmation dialog.
func (f *LogoutFlow) RequestLogout(ctx context.Context) LogoutState {
	state, _ := f.Fire(ctx, LogoutEventRequest)
	return state
}

// Confirm logs out if the dialog is open.
func (f *LogoutFlow) Confirm(ctx context.Context) (LogoutState, error) {
	return f.Fire(ctx, LogoutEventConfirm)
}

// Cancel closes the dialog without logging out.
func (f *LogoutFlow) Cancel(ctx context.Context) LogoutState {
	state, _ := f.Fire(ctx, LogoutEventCancel)
	return state
}
