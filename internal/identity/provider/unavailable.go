package provider

import (
	"context"

	dErrors "elan/pkg/domain-errors"

	"elan/internal/session/models"
)

// Unavailable stands in for the real provider when its configuration is
// missing or broken in a production environment. Every identity-changing
// operation fails with provider_unavailable instead of silently degrading
// to mock.
type Unavailable struct{}

func NewUnavailable() Unavailable { return Unavailable{} }

func (Unavailable) Mode() models.Mode { return models.ModeReal }

func (Unavailable) SignIn(context.Context, string, string) (models.Identity, error) {
	return models.Identity{}, errUnavailable()
}

func (Unavailable) SignUp(context.Context, string, string) (models.Identity, error) {
	return models.Identity{}, errUnavailable()
}

func (Unavailable) SignInWithSocial(context.Context, string) (models.Identity, error) {
	return models.Identity{}, errUnavailable()
}

func (Unavailable) SignOut(context.Context) error { return nil }

func (Unavailable) SendReset(context.Context, string) error { return errUnavailable() }

// RestoreSession reports no active session; without a provider nothing can
// vouch for a persisted identity.
func (Unavailable) RestoreSession(context.Context, *models.Identity) (*models.Identity, Subscription, error) {
	return nil, NoopSubscription{}, nil
}

func errUnavailable() error {
	return dErrors.New(dErrors.CodeProviderUnavailable, "identity provider is not configured")
}
