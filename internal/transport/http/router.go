// Package httptransport is the thin HTTP layer. It delegates to the session
// manager without embedding business logic so transport concerns remain
// isolated.
package httptransport

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"elan/internal/guard"
	"elan/internal/identity/provider/google"
	"elan/internal/platform/metrics"
	"elan/internal/session/service"
	dErrors "elan/pkg/domain-errors"
)

// SignInPath is where unauthenticated visitors land; the guard appends the
// originally requested path as redirectTo.
const SignInPath = "/auth"

type Handler struct {
	sessions *service.Manager
	google   *google.Exchanger
	metrics  *metrics.Metrics
	logger   *slog.Logger
	secure   bool
}

type HandlerOption func(*Handler)

// WithGoogle enables the real Google sign-in redirect flow. Without it the
// callback completes against the active provider with an empty credential,
// which the mock variant accepts.
func WithGoogle(exchanger *google.Exchanger) HandlerOption {
	return func(h *Handler) { h.google = exchanger }
}

func WithMetrics(m *metrics.Metrics) HandlerOption {
	return func(h *Handler) { h.metrics = m }
}

// WithSecureCookies marks session cookies Secure; on in production.
func WithSecureCookies(secure bool) HandlerOption {
	return func(h *Handler) { h.secure = secure }
}

func NewHandler(sessions *service.Manager, logger *slog.Logger, opts ...HandlerOption) *Handler {
	h := &Handler{sessions: sessions, logger: logger}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// NewRouter wires all endpoints. The guard middleware wraps everything so
// protected page paths are checked uniformly.
func NewRouter(h *Handler, g *guard.Guard) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(g.Middleware)

	h.Register(r)
	return r
}

// Register attaches the handler's routes to the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/login", h.handleLogin)
	r.Post("/auth/register", h.handleRegister)
	r.Post("/auth/logout", h.handleLogout)
	r.Post("/auth/reset-password", h.handleResetPassword)
	r.Get("/auth/session", h.handleSession)
	r.Get("/auth/google", h.handleGoogleStart)
	r.Get("/auth/google/callback", h.handleGoogleCallback)
	r.Get(SignInPath, h.handleSignInPage)

	r.Get("/", h.handleHome)
	r.Get("/dashboard", h.handleDashboard)
	r.Get("/tryon", h.handleTryOn)

	r.Get("/healthz", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError centralizes domain error translation so every handler returns
// the same JSON error envelope.
func writeError(w http.ResponseWriter, err error) {
	code := dErrors.CodeUnknown
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		code = domainErr.Code
	}
	writeJSON(w, dErrors.ToHTTPStatus(code), map[string]string{
		"error":   string(code),
		"message": dErrors.MessageOf(err),
	})
}
