// Package mock implements the identity provider against canned data so the
// rest of the system runs without live provider credentials. It reproduces
// the exact state machine of the real variant: credentials are accepted
// unconditionally after a fixed simulated latency.
package mock

import (
	"context"
	"log/slog"
	"time"

	"elan/internal/identity/provider"
	"elan/internal/session/models"
)

// Canned identity every mock sign-in produces.
var mockIdentity = models.Identity{
	ID:            "mock-user-123",
	Email:         "mock@example.com",
	DisplayName:   "Mock User",
	EmailVerified: true,
}

// Latencies are the simulated round-trip delays per operation.
type Latencies struct {
	SignIn  time.Duration
	SignUp  time.Duration
	Social  time.Duration
	SignOut time.Duration
	Reset   time.Duration
}

// DefaultLatencies match the delays the product UI was tuned against.
func DefaultLatencies() Latencies {
	return Latencies{
		SignIn:  500 * time.Millisecond,
		SignUp:  500 * time.Millisecond,
		Social:  700 * time.Millisecond,
		SignOut: 300 * time.Millisecond,
		Reset:   300 * time.Millisecond,
	}
}

type Provider struct {
	latencies Latencies
	logger    *slog.Logger
}

type Option func(*Provider)

// WithLatencies overrides the simulated delays; tests pass near-zero
// values to keep suites fast.
func WithLatencies(l Latencies) Option {
	return func(p *Provider) { p.latencies = l }
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func New(opts ...Option) *Provider {
	p := &Provider{
		latencies: DefaultLatencies(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

func (p *Provider) Mode() models.Mode { return models.ModeMock }

func (p *Provider) SignIn(ctx context.Context, email, _ string) (models.Identity, error) {
	if err := sleep(ctx, p.latencies.SignIn); err != nil {
		return models.Identity{}, err
	}
	p.logger.Debug("mock sign-in", "email", email)
	return mockIdentity, nil
}

func (p *Provider) SignUp(ctx context.Context, email, _ string) (models.Identity, error) {
	if err := sleep(ctx, p.latencies.SignUp); err != nil {
		return models.Identity{}, err
	}
	p.logger.Debug("mock registration", "email", email)
	return mockIdentity, nil
}

func (p *Provider) SignInWithSocial(ctx context.Context, _ string) (models.Identity, error) {
	if err := sleep(ctx, p.latencies.Social); err != nil {
		return models.Identity{}, err
	}
	identity := mockIdentity
	identity.DisplayName = "Google Mock User"
	return identity, nil
}

func (p *Provider) SignOut(ctx context.Context) error {
	return sleep(ctx, p.latencies.SignOut)
}

func (p *Provider) SendReset(ctx context.Context, email string) error {
	if err := sleep(ctx, p.latencies.Reset); err != nil {
		return err
	}
	p.logger.Info("mock password reset email sent", "email", email)
	return nil
}

// RestoreSession accepts the persisted identity as-is; there is no backend
// to re-validate against.
func (p *Provider) RestoreSession(_ context.Context, persisted *models.Identity) (*models.Identity, provider.Subscription, error) {
	return persisted, provider.NoopSubscription{}, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
