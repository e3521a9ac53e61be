package authclient_test

import (
	"context"
	"errors"
	"testing"

	authclient "github.com/goliatone/go-auth-client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestLogoutFlow(t *testing.T) {
	t.Run("request then confirm logs out once and navigates", func(t *testing.T) {
		sessions := &MockLogouter{}
		sessions.On("Logout", mock.Anything).Return(nil).Once()

		navigated := 0
		flow := authclient.NewLogoutFlow(sessions,
			authclient.WithOnLoggedOut(func(context.Context) { navigated++ }),
			authclient.WithLogoutFlowLogger(authclient.NopLogger()),
		)
		assert.Equal(t, authclient.LogoutIdle, flow.State())

		assert.Equal(t, authclient.LogoutAwaitingConfirmation, flow.RequestLogout(t.Context()))

		state, err := flow.Confirm(t.Context())
		require.NoError(t, err)
		assert.Equal(t, authclient.LogoutIdle, state)
		assert.Equal(t, 1, navigated)

		// a second confirm without a request is ignored
		state, err = flow.Confirm(t.Context())
		require.NoError(t, err)
		assert.Equal(t, authclient.LogoutIdle, state)

		sessions.AssertNumberOfCalls(t, "Logout", 1)
		assert.Equal(t, 1, navigated)
	})

	t.Run("cancel has no side effect", func(t *testing.T) {
		sessions := &MockLogouter{}
		flow := authclient.NewLogoutFlow(sessions, authclient.WithLogoutFlowLogger(authclient.NopLogger()))

		flow.RequestLogout(t.Context())
		assert.Equal(t, authclient.LogoutIdle, flow.Cancel(t.Context()))

		sessions.AssertNotCalled(t, "Logout", mock.Anything)
	})

	t.Run("ignored events keep the state", func(t *testing.T) {
		sessions := &MockLogouter{}
		flow := authclient.NewLogoutFlow(sessions, authclient.WithLogoutFlowLogger(authclient.NopLogger()))

		assert.Equal(t, authclient.LogoutIdle, flow.Cancel(t.Context()))

		state, err := flow.Confirm(t.Context())
		require.NoError(t, err)
		assert.Equal(t, authclient.LogoutIdle, state)

		flow.RequestLogout(t.Context())
		assert.Equal(t, authclient.LogoutAwaitingConfirmation, flow.RequestLogout(t.Context()))

		state, err = flow.Fire(t.Context(), authclient.LogoutEvent("unknown"))
		require.NoError(t, err)
		assert.Equal(t, authclient.LogoutAwaitingConfirmation, state)

		sessions.AssertNotCalled(t, "Logout", mock.Anything)
	})

	t.Run("failed logout returns to idle without navigating", func(t *testing.T) {
		sessions := &MockLogouter{}
		sessions.On("Logout", mock.Anything).Return(authclient.ErrSessionStorage).Once()

		navigated := false
		flow := authclient.NewLogoutFlow(sessions,
			authclient.WithOnLoggedOut(func(context.Context) { navigated = true }),
			authclient.WithLogoutFlowLogger(authclient.NopLogger()),
		)

		flow.RequestLogout(t.Context())
		state, err := flow.Confirm(t.Context())
		assert.True(t, errors.Is(err, authclient.ErrSessionStorage))
		assert.Equal(t, authclient.LogoutIdle, state)
		assert.False(t, navigated)
	})
}

func TestLogoutFlow_WithManager(t *testing.T) {
	manager, _, _ := newStubManager(t)
	_, err := manager.Login(t.Context(), "admin1", "secret")
	require.NoError(t, err)

	flow := authclient.NewLogoutFlow(manager, authclient.WithLogoutFlowLogger(authclient.NopLogger()))

	flow.RequestLogout(t.Context())
	flow.Cancel(t.Context())
	_, ok := manager.CurrentUser(t.Context())
	assert.True(t, ok)

	flow.RequestLogout(t.Context())
	_, err = flow.Confirm(t.Context())
	require.NoError(t, err)
	_, ok = manager.CurrentUser(t.Context())
	assert.False(t, ok)
}
