package mock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"elan/internal/session/models"
)

func fastLatencies() Latencies {
	return Latencies{
		SignIn:  time.Millisecond,
		SignUp:  time.Millisecond,
		Social:  time.Millisecond,
		SignOut: time.Millisecond,
		Reset:   time.Millisecond,
	}
}

func TestSignInAcceptsAnyCredentials(t *testing.T) {
	p := New(WithLatencies(fastLatencies()))

	identity, err := p.SignIn(context.Background(), "a@x.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "mock@example.com", identity.Email)
	assert.Equal(t, "mock-user-123", identity.ID)
	assert.True(t, identity.EmailVerified)
}

func TestSocialSignInUsesGoogleDisplayName(t *testing.T) {
	p := New(WithLatencies(fastLatencies()))

	identity, err := p.SignInWithSocial(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "Google Mock User", identity.DisplayName)
	assert.Equal(t, "mock@example.com", identity.Email)
}

func TestOperationsRespectContextCancellation(t *testing.T) {
	p := New(WithLatencies(Latencies{SignIn: time.Minute}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.SignIn(ctx, "a@x.com", "pw")
	require.ErrorIs(t, err, context.Canceled)
}

func TestRestoreSessionReturnsPersistedIdentity(t *testing.T) {
	p := New(WithLatencies(fastLatencies()))

	persisted := &models.Identity{ID: "mock-user-123", Email: "mock@example.com"}
	identity, sub, err := p.RestoreSession(context.Background(), persisted)
	require.NoError(t, err)
	assert.Equal(t, persisted, identity)
	require.NotNil(t, sub)
	sub.Unsubscribe()

	identity, _, err = p.RestoreSession(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, identity)
}
