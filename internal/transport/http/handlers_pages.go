package httptransport

import (
	"fmt"
	"net/http"

	"elan/internal/guard"
	"elan/internal/session/models"
)

// The page handlers are deliberately minimal server-rendered stand-ins for
// the product pages; the interesting part is which of them sit behind the
// guard.

func (h *Handler) handleHome(w http.ResponseWriter, r *http.Request) {
	h.page(w, "elan", "AI-powered personal styling, public landing page.")
}

func (h *Handler) handleSignInPage(w http.ResponseWriter, r *http.Request) {
	target := redirectTarget(r.URL.Query().Get("redirectTo"))
	h.page(w, "Sign in", fmt.Sprintf("Sign in to continue to %s.", target))
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	who := guard.Email(r.Context())
	if who == "" {
		who = "stylist"
	}
	h.page(w, "Dashboard", fmt.Sprintf("Welcome back, %s.", who))
}

func (h *Handler) handleTryOn(w http.ResponseWriter, r *http.Request) {
	h.page(w, "Virtual try-on", "Upload a photo to try a look.")
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":        "ok",
		"provider_mode": string(h.sessions.Mode()),
	})
}

func (h *Handler) page(w http.ResponseWriter, title, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	notice := ""
	if h.sessions.Mode() == models.ModeMock {
		notice = "<p><em>Demo mode: any credentials are accepted.</em></p>"
	}
	fmt.Fprintf(w, "<html><head><title>%s</title></head><body><h1>%s</h1><p>%s</p>%s</body></html>",
		title, title, body, notice)
}
