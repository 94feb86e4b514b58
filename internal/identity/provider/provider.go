// Package provider defines the identity-provider capability the session
// manager depends on. Real and mock variants implement it; calling code is
// oblivious to which is active apart from the read-only Mode flag.
package provider

//go:generate mockgen -source=provider.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"elan/internal/session/models"
)

// Provider performs credential verification and account management. Every
// method suspends at least once (network round-trip or simulated delay);
// none blocks the caller beyond its context.
type Provider interface {
	// Mode reports which variant this is. Fixed for the process lifetime.
	Mode() models.Mode

	// SignIn exchanges email/password for an identity. Fails with
	// invalid_credentials, rate_limited or unknown.
	SignIn(ctx context.Context, email, password string) (models.Identity, error)

	// SignUp creates a new backing account and signs it in. Fails with
	// email_already_in_use, invalid_email, weak_password or unknown.
	SignUp(ctx context.Context, email, password string) (models.Identity, error)

	// SignInWithSocial completes a third-party interactive sign-in.
	// credential is the provider-specific opaque credential (an
	// authorization code for the real variant, ignored by the mock).
	// Any failure collapses to provider_sign_in_failed.
	SignInWithSocial(ctx context.Context, credential string) (models.Identity, error)

	// SignOut ends the provider-side session, if any.
	SignOut(ctx context.Context) error

	// SendReset asks the provider to send an out-of-band reset email.
	// Fails with account_not_found or unknown.
	SendReset(ctx context.Context, email string) error

	// RestoreSession validates a persisted identity at startup. It returns
	// the current identity (nil when the provider reports no active
	// session) and a subscription delivering external changes, such as a
	// provider-detected sign-out.
	RestoreSession(ctx context.Context, persisted *models.Identity) (*models.Identity, Subscription, error)
}

// Subscription delivers provider-side identity changes. A nil identity on
// the channel means the provider signed the session out externally.
// Unsubscribe stops delivery and releases the subscription's resources.
type Subscription interface {
	Changes() <-chan *models.Identity
	Unsubscribe()
}

// NoopSubscription satisfies Subscription for variants with no
// change-notification machinery.
type NoopSubscription struct{}

func (NoopSubscription) Changes() <-chan *models.Identity { return nil }
func (NoopSubscription) Unsubscribe()                     {}
