// Package service owns the identity lifecycle: it is the single authority
// every UI surface goes through for login, registration, social sign-in,
// logout, password reset and session restore. All writers of the session
// snapshot and the persisted record live here, which is what preserves the
// key-pair invariant.
package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"elan/internal/audit"
	"elan/internal/identity/provider"
	"elan/internal/revocation"
	"elan/internal/session/models"
	"elan/internal/session/store"
	"elan/internal/sessiontoken"
)

// Navigation targets signalled to the caller after identity changes.
const (
	AuthenticatedLanding = "/dashboard"
	PublicLanding        = "/"
)

// TokenMinter produces the key-B session token for an identity.
type TokenMinter interface {
	Mint(identity models.Identity) (store.Token, error)
}

// TokenValidator verifies a session token; wired in real mode so restore
// and logout can check and revoke tokens. Nil in mock mode.
type TokenValidator interface {
	Validate(tokenString string) (*sessiontoken.Claims, error)
}

// Result is the outcome of a successful identity-changing operation.
type Result struct {
	Identity models.Identity
	Token    store.Token
	Redirect string
}

// Manager is the process-wide session authority. Exactly one instance
// exists per running process; construct it at startup and hand it to
// every component that needs it.
//
// Identity-changing operations issued concurrently are not serialized
// against each other: callers are expected to disable their triggering
// controls while an operation is in flight. Each operation still commits
// its snapshot and persisted pair atomically with respect to readers, so
// the state after concurrent operations settle is fully one outcome or
// the other, never a mix.
type Manager struct {
	provider    provider.Provider
	store       store.Store
	tokens      TokenMinter
	validator   TokenValidator
	revocations revocation.List
	audit       *audit.Publisher
	logger      *slog.Logger
	tracer      trace.Tracer

	mu       sync.RWMutex
	snap     models.Snapshot
	initDone bool

	subMu   sync.Mutex
	subs    map[int]func(models.Snapshot)
	nextSub int

	provSub   provider.Subscription
	closeCh   chan struct{}
	watchDone chan struct{}
	closeOnce sync.Once
}

type Option func(*Manager)

// WithValidator wires token verification for restore and logout.
func WithValidator(v TokenValidator) Option {
	return func(m *Manager) { m.validator = v }
}

// WithRevocations makes logout revoke the token's jti.
func WithRevocations(list revocation.List) Option {
	return func(m *Manager) { m.revocations = list }
}

func WithAudit(publisher *audit.Publisher) Option {
	return func(m *Manager) { m.audit = publisher }
}

func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

func New(p provider.Provider, st store.Store, tokens TokenMinter, opts ...Option) *Manager {
	m := &Manager{
		provider:  p,
		store:     st,
		tokens:    tokens,
		logger:    slog.Default(),
		tracer:    otel.Tracer("elan/session"),
		snap:      models.NewSnapshot(p.Mode()),
		subs:      make(map[int]func(models.Snapshot)),
		closeCh:   make(chan struct{}),
		watchDone: make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// Snapshot returns the current session view. While Loading is true the
// identity must not be read as authoritative.
func (m *Manager) Snapshot() models.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snap
}

// Mode reports which provider variant is active. Read-only; the only
// mode-dependent behavior calling code may have is a demo-mode notice.
func (m *Manager) Mode() models.Mode {
	return m.provider.Mode()
}

// Subscribe registers fn for snapshot changes and returns a cancel
// function. fn runs on the mutating goroutine; keep it short.
func (m *Manager) Subscribe(fn func(models.Snapshot)) func() {
	m.subMu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.subMu.Unlock()
	return func() {
		m.subMu.Lock()
		delete(m.subs, id)
		m.subMu.Unlock()
	}
}

// Initialize performs the startup restore probe: it reads the persisted
// pair, validates it, asks the provider to vouch for it, and settles the
// session in Anonymous or Authenticated. Call once, before serving.
func (m *Manager) Initialize(ctx context.Context) error {
	ctx, span := m.tracer.Start(ctx, "session.initialize")
	defer span.End()

	persisted := m.readPersisted(ctx)
	if persisted == nil {
		m.clearPersisted(ctx)
	}

	current, sub, err := m.provider.RestoreSession(ctx, persisted)
	if err != nil {
		m.logger.Error("session restore failed, starting anonymous", "error", err)
		current = nil
	}
	if current == nil && persisted != nil {
		// Provider no longer vouches for the stored identity.
		m.clearPersisted(ctx)
	}

	m.provSub = sub
	if sub != nil && sub.Changes() != nil {
		go m.watch(sub)
	} else {
		close(m.watchDone)
	}
	m.mu.Lock()
	m.initDone = true
	m.mu.Unlock()

	m.transform(func(s models.Snapshot) models.Snapshot { return s.Resolve(current) })
	m.logger.Info("session initialized",
		"state", m.Snapshot().State(),
		"provider_mode", m.provider.Mode(),
	)
	return nil
}

// readPersisted loads and validates the stored pair. A missing or expired
// half means the record as a whole is treated as unauthenticated.
func (m *Manager) readPersisted(ctx context.Context) *models.Identity {
	identity, err := m.store.ReadIdentity(ctx)
	if err != nil {
		return nil
	}
	token, err := m.store.ReadToken(ctx)
	if err != nil {
		return nil
	}
	if m.validator != nil {
		if _, err := m.validator.Validate(token.Value); err != nil {
			m.logger.Warn("persisted session token rejected", "error", err)
			return nil
		}
	}
	return &identity
}

// Login exchanges email/password for an authenticated session. The caller
// validates field presence before invoking; the provider still rejects
// bad credentials.
func (m *Manager) Login(ctx context.Context, email, password string) (Result, error) {
	return m.runAuth(ctx, "session.login", "password", audit.ActionSignedIn,
		func(ctx context.Context) (models.Identity, error) {
			return m.provider.SignIn(ctx, email, password)
		})
}

// Register creates a new account and signs it in.
func (m *Manager) Register(ctx context.Context, email, password string) (Result, error) {
	return m.runAuth(ctx, "session.register", "password", audit.ActionRegistered,
		func(ctx context.Context) (models.Identity, error) {
			return m.provider.SignUp(ctx, email, password)
		})
}

// GoogleSignIn completes the third-party interactive sign-in. credential
// is the provider-specific opaque credential from the callback; the mock
// variant ignores it.
func (m *Manager) GoogleSignIn(ctx context.Context, credential string) (Result, error) {
	return m.runAuth(ctx, "session.google_sign_in", "google", audit.ActionSignedIn,
		func(ctx context.Context) (models.Identity, error) {
			return m.provider.SignInWithSocial(ctx, credential)
		})
}

// Logout clears the session. Idempotent: logging out an anonymous session
// succeeds trivially. Provider-side failures are logged, never surfaced;
// the local session is cleared regardless.
func (m *Manager) Logout(ctx context.Context) (Result, error) {
	ctx, span := m.tracer.Start(ctx, "session.logout")
	defer span.End()

	m.transform(func(s models.Snapshot) models.Snapshot { return s.BeginOp() })

	m.revokeCurrentToken(ctx)

	if err := m.provider.SignOut(ctx); err != nil {
		m.logger.Warn("provider sign-out failed", "error", err)
	}

	m.clearPersisted(ctx)
	m.transform(func(s models.Snapshot) models.Snapshot { return s.Resolve(nil) })

	m.emit(ctx, audit.Event{Action: audit.ActionSignedOut})
	return Result{Redirect: PublicLanding}, nil
}

// ResetPassword asks the provider to send an out-of-band reset email. It
// never changes session state.
func (m *Manager) ResetPassword(ctx context.Context, email string) error {
	ctx, span := m.tracer.Start(ctx, "session.reset_password")
	defer span.End()

	if err := m.provider.SendReset(ctx, email); err != nil {
		return err
	}
	m.emit(ctx, audit.Event{Action: audit.ActionResetRequested, Email: email})
	return nil
}

// Close stops the provider change watcher. The manager must not be used
// afterwards. Safe to call even when Initialize never ran.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		close(m.closeCh)
		if m.provSub != nil {
			m.provSub.Unsubscribe()
		}
	})
	m.mu.RLock()
	started := m.initDone
	m.mu.RUnlock()
	if started {
		<-m.watchDone
	}
}

func (m *Manager) runAuth(
	ctx context.Context,
	op, method string,
	action audit.Action,
	exchange func(context.Context) (models.Identity, error),
) (Result, error) {
	ctx, span := m.tracer.Start(ctx, op)
	defer span.End()

	m.transform(func(s models.Snapshot) models.Snapshot { return s.BeginOp() })

	identity, err := exchange(ctx)
	if err != nil {
		m.transform(func(s models.Snapshot) models.Snapshot { return s.Fail() })
		m.logger.Warn("authentication failed", "operation", op, "error", err)
		m.emit(ctx, audit.Event{
			Action: audit.ActionSignInFailed,
			Method: method,
			Reason: err.Error(),
		})
		return Result{}, err
	}

	token, err := m.commit(ctx, identity)
	if err != nil {
		m.transform(func(s models.Snapshot) models.Snapshot { return s.Fail() })
		return Result{}, err
	}

	m.transform(func(s models.Snapshot) models.Snapshot { return s.Resolve(&identity) })
	m.emit(ctx, audit.Event{
		Action: action,
		UserID: identity.ID,
		Email:  identity.Email,
		Method: method,
	})
	return Result{Identity: identity, Token: token, Redirect: AuthenticatedLanding}, nil
}

// commit persists the pair in the required order: identity first, then
// token. If the token half fails, the identity half is rolled back so the
// record never ends up half-written in the other direction.
func (m *Manager) commit(ctx context.Context, identity models.Identity) (store.Token, error) {
	if err := m.store.WriteIdentity(ctx, identity); err != nil {
		return store.Token{}, errPersist(err)
	}
	token, err := m.tokens.Mint(identity)
	if err == nil {
		err = m.store.WriteToken(ctx, token)
	}
	if err != nil {
		if delErr := m.store.DeleteIdentity(ctx); delErr != nil {
			m.logger.Error("identity rollback failed", "error", delErr)
		}
		return store.Token{}, errPersist(err)
	}
	return token, nil
}

// clearPersisted removes the pair in the required order: token first,
// then identity. A crash between steps leaves an identity without a
// token, which the route guard treats as unauthenticated.
func (m *Manager) clearPersisted(ctx context.Context) {
	if err := m.store.DeleteToken(ctx); err != nil {
		m.logger.Error("clearing session token failed", "error", err)
		return
	}
	if err := m.store.DeleteIdentity(ctx); err != nil {
		m.logger.Error("clearing stored identity failed", "error", err)
	}
}

// revokeCurrentToken puts the outgoing token's jti on the revocation list
// for its remaining lifetime. Best-effort: a failure here only means the
// cookie dies at its natural expiry.
func (m *Manager) revokeCurrentToken(ctx context.Context) {
	if m.validator == nil || m.revocations == nil {
		return
	}
	token, err := m.store.ReadToken(ctx)
	if err != nil {
		return
	}
	claims, err := m.validator.Validate(token.Value)
	if err != nil || claims.ExpiresAt == nil {
		return
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return
	}
	if err := m.revocations.Revoke(ctx, claims.ID, ttl); err != nil {
		m.logger.Error("token revocation failed", "error", err, "jti", claims.ID)
	}
}

// watch applies provider-side changes: a nil identity is an external
// sign-out (token expiry detected by the provider), a non-nil identity is
// a refreshed profile.
func (m *Manager) watch(sub provider.Subscription) {
	defer close(m.watchDone)
	for {
		select {
		case <-m.closeCh:
			return
		case identity, ok := <-sub.Changes():
			if !ok {
				return
			}
			ctx := context.Background()
			if identity == nil {
				m.logger.Info("provider signed session out externally")
				m.clearPersisted(ctx)
				m.transform(func(s models.Snapshot) models.Snapshot { return s.Resolve(nil) })
				continue
			}
			if err := m.store.WriteIdentity(ctx, *identity); err != nil {
				m.logger.Error("persisting refreshed identity failed", "error", err)
			}
			m.transform(func(s models.Snapshot) models.Snapshot { return s.Resolve(identity) })
		}
	}
}

// transform applies f to the snapshot under the write lock and notifies
// subscribers with the result outside it.
func (m *Manager) transform(f func(models.Snapshot) models.Snapshot) {
	m.mu.Lock()
	m.snap = f(m.snap)
	snap := m.snap
	m.mu.Unlock()

	m.subMu.Lock()
	fns := make([]func(models.Snapshot), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.subMu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}

func (m *Manager) emit(ctx context.Context, event audit.Event) {
	if m.audit == nil {
		return
	}
	if err := m.audit.Emit(ctx, event); err != nil {
		m.logger.Error("audit emit failed", "error", err, "action", event.Action)
	}
}

func errPersist(err error) error {
	return wrapUnknown("persisting session failed", err)
}
