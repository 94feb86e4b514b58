package httptransport

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"elan/internal/session/service"
	"elan/internal/session/store"
	dErrors "elan/pkg/domain-errors"
)

const stateCookie = "oauth-state"

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var form service.LoginForm
	if err := decode(r, &form); err != nil {
		writeError(w, err)
		return
	}
	if err := form.Validate(); err != nil {
		writeError(w, err)
		return
	}

	start := time.Now()
	result, err := h.sessions.Login(r.Context(), form.Email, form.Password)
	h.observe("login", "password", start, err)
	if err != nil {
		writeError(w, err)
		return
	}
	h.completeSignIn(w, result)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var form service.RegistrationForm
	if err := decode(r, &form); err != nil {
		writeError(w, err)
		return
	}
	if err := form.Validate(); err != nil {
		writeError(w, err)
		return
	}

	start := time.Now()
	result, err := h.sessions.Register(r.Context(), form.Email, form.Password)
	h.observe("register", "password", start, err)
	if err != nil {
		writeError(w, err)
		return
	}
	h.completeSignIn(w, result)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	result, err := h.sessions.Logout(r.Context())
	h.observe("logout", "", start, err)
	if err != nil {
		writeError(w, err)
		return
	}

	h.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"redirect": result.Redirect})
}

func (h *Handler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var form service.ResetForm
	if err := decode(r, &form); err != nil {
		writeError(w, err)
		return
	}
	if err := form.Validate(); err != nil {
		writeError(w, err)
		return
	}

	if err := h.sessions.ResetPassword(r.Context(), form.Email); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset email sent"})
}

// handleSession exposes the current snapshot so clients can render
// authenticated state and the demo-mode notice.
func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.sessions.Snapshot())
}

// handleGoogleStart begins the interactive Google flow. In real mode it
// redirects to the consent screen; in mock mode it short-circuits straight
// to the callback.
func (h *Handler) handleGoogleStart(w http.ResponseWriter, r *http.Request) {
	if h.google == nil {
		http.Redirect(w, r, "/auth/google/callback", http.StatusFound)
		return
	}

	state := randomState()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/auth/google",
		MaxAge:   300,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.google.LoginURL(state), http.StatusFound)
}

func (h *Handler) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	credential := r.URL.Query().Get("code")
	if h.google != nil {
		cookie, err := r.Cookie(stateCookie)
		if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
			writeError(w, dErrors.New(dErrors.CodeProviderSignIn, "state mismatch"))
			return
		}
	}

	start := time.Now()
	result, err := h.sessions.GoogleSignIn(r.Context(), credential)
	h.observe("google_sign_in", "google", start, err)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setSessionCookie(w, result.Token)
	http.Redirect(w, r, result.Redirect, http.StatusFound)
}

// completeSignIn sets the session cookie and returns the identity with the
// landing path the client should navigate to.
func (h *Handler) completeSignIn(w http.ResponseWriter, result service.Result) {
	h.setSessionCookie(w, result.Token)
	writeJSON(w, http.StatusOK, map[string]any{
		"identity": result.Identity,
		"redirect": result.Redirect,
	})
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token store.Token) {
	http.SetCookie(w, &http.Cookie{
		Name:     store.KeySession,
		Value:    token.Value,
		Path:     "/",
		Expires:  token.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     store.KeySession,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) observe(operation, method string, start time.Time, err error) {
	if h.metrics == nil {
		return
	}
	h.metrics.ObserveOp(operation, time.Since(start))
	if method == "" {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = string(dErrors.CodeOf(err))
	}
	h.metrics.ObserveSignIn(method, string(h.sessions.Mode()), outcome)
}

func decode(r *http.Request, into any) error {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		return dErrors.New(dErrors.CodeBadRequest, "malformed request body")
	}
	return nil
}

func randomState() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

// redirectTarget sanitizes the redirectTo query parameter: only local
// paths are honored so the sign-in page cannot become an open redirect.
func redirectTarget(raw string) string {
	if raw == "" {
		return service.AuthenticatedLanding
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.IsAbs() || parsed.Host != "" || !hasLeadingSlash(raw) {
		return service.AuthenticatedLanding
	}
	return raw
}

func hasLeadingSlash(path string) bool {
	return len(path) > 0 && path[0] == '/' && (len(path) == 1 || path[1] != '/')
}
