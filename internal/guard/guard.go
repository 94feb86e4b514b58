// Package guard implements the server-side route guard: requests to
// protected paths must carry a non-expired auth-session cookie or they are
// redirected to the sign-in entry point with the originally requested path
// preserved as redirectTo.
//
// In real mode the guard verifies the token's signature and expiry and
// optionally consults the revocation list. In mock mode no validator is
// wired and only cookie presence is checked; that weakening is part of the
// demo configuration, not something to reuse in production.
package guard

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"elan/internal/session/store"
	"elan/internal/sessiontoken"
)

// TokenValidator verifies a session token string. Nil disables
// cryptographic verification (mock mode).
type TokenValidator interface {
	Validate(tokenString string) (*sessiontoken.Claims, error)
}

// RevocationChecker reports whether a token ID has been revoked.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// PathSet matches protected paths. An entry is either an exact path
// ("/tryon") or a subtree ("/dashboard/*").
type PathSet []string

func (ps PathSet) Match(path string) bool {
	for _, pattern := range ps {
		if subtree, ok := strings.CutSuffix(pattern, "/*"); ok {
			if path == subtree || strings.HasPrefix(path, subtree+"/") {
				return true
			}
			continue
		}
		if path == pattern {
			return true
		}
	}
	return false
}

// DefaultProtectedPaths mirror the product's protected routes.
func DefaultProtectedPaths() PathSet {
	return PathSet{"/dashboard", "/dashboard/*", "/tryon", "/tryon/*"}
}

// Identity context helpers, for handlers behind the guard.
type contextKeyUserID struct{}
type contextKeyEmail struct{}

// UserID retrieves the authenticated user ID from the context. Empty when
// the guard ran without a validator (mock mode) or the path was public.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(contextKeyUserID{}).(string)
	return id
}

func Email(ctx context.Context) string {
	email, _ := ctx.Value(contextKeyEmail{}).(string)
	return email
}

type Guard struct {
	protected   PathSet
	signInPath  string
	validator   TokenValidator
	revocations RevocationChecker
	logger      *slog.Logger
	onDecision  func(allowed bool)
}

type Option func(*Guard)

// WithValidator enables cryptographic token verification.
func WithValidator(v TokenValidator) Option {
	return func(g *Guard) { g.validator = v }
}

// WithRevocations enables revocation checks; only consulted when a
// validator is also present, since the jti comes from verified claims.
func WithRevocations(r RevocationChecker) Option {
	return func(g *Guard) { g.revocations = r }
}

func WithLogger(logger *slog.Logger) Option {
	return func(g *Guard) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithDecisionHook observes every protected-path decision, for metrics.
func WithDecisionHook(hook func(allowed bool)) Option {
	return func(g *Guard) { g.onDecision = hook }
}

func New(protected PathSet, signInPath string, opts ...Option) *Guard {
	g := &Guard{
		protected:  protected,
		signInPath: signInPath,
		logger:     slog.Default(),
		onDecision: func(bool) {},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if !g.protected.Match(path) {
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie(store.KeySession)
		if err != nil || cookie.Value == "" {
			g.redirect(w, r, path, "missing session cookie")
			return
		}

		if g.validator == nil {
			// Mock configuration: presence is sufficient.
			g.onDecision(true)
			next.ServeHTTP(w, r)
			return
		}

		claims, err := g.validator.Validate(cookie.Value)
		if err != nil {
			g.redirect(w, r, path, "invalid session token")
			return
		}

		if g.revocations != nil {
			revoked, err := g.revocations.IsRevoked(r.Context(), claims.ID)
			if err != nil {
				g.logger.Error("revocation check failed", "error", err, "path", path)
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			if revoked {
				g.redirect(w, r, path, "session token revoked")
				return
			}
		}

		ctx := context.WithValue(r.Context(), contextKeyUserID{}, claims.UserID)
		ctx = context.WithValue(ctx, contextKeyEmail{}, claims.Email)
		g.onDecision(true)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (g *Guard) redirect(w http.ResponseWriter, r *http.Request, path, reason string) {
	g.onDecision(false)
	g.logger.Warn("unauthenticated access to protected path",
		"path", path,
		"reason", reason,
	)
	target := g.signInPath + "?redirectTo=" + url.QueryEscape(path)
	http.Redirect(w, r, target, http.StatusFound)
}
