package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"elan/internal/guard"
	"elan/internal/identity/provider/mock"
	"elan/internal/session/service"
	"elan/internal/session/store"
	"elan/internal/sessiontoken"
)

// HandlersSuite runs the full mock-mode stack behind httptest: mock
// provider, in-memory store, static token, guard without validator.
type HandlersSuite struct {
	suite.Suite
	manager *service.Manager
	router  http.Handler
}

func (s *HandlersSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	provider := mock.New(mock.WithLatencies(mock.Latencies{}))
	s.manager = service.New(
		provider,
		store.NewInMemoryStore(),
		sessiontoken.Static{TTL: time.Hour},
		service.WithLogger(logger),
	)
	s.Require().NoError(s.manager.Initialize(context.Background()))

	g := guard.New(guard.DefaultProtectedPaths(), SignInPath, guard.WithLogger(logger))
	h := NewHandler(s.manager, logger)
	s.router = NewRouter(h, g)
}

func (s *HandlersSuite) TearDownTest() {
	s.manager.Close()
}

func TestHandlersSuite(t *testing.T) {
	suite.Run(t, new(HandlersSuite))
}

func (s *HandlersSuite) postJSON(path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlersSuite) sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == store.KeySession {
			return cookie
		}
	}
	return nil
}

func (s *HandlersSuite) TestLogin() {
	s.Run("accepts credentials and sets the session cookie", func() {
		rec := s.postJSON("/auth/login", `{"email":"user@example.com","password":"secret123"}`)
		s.Require().Equal(http.StatusOK, rec.Code)

		cookie := s.sessionCookie(rec)
		s.Require().NotNil(cookie, "session cookie should be set")
		s.Equal("mock-session-token", cookie.Value)
		s.True(cookie.HttpOnly)

		var body struct {
			Redirect string `json:"redirect"`
		}
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&body))
		s.Equal("/dashboard", body.Redirect)
	})

	s.Run("rejects missing fields before touching the provider", func() {
		rec := s.postJSON("/auth/login", `{"email":"user@example.com"}`)
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Contains(rec.Body.String(), "bad_request")
	})

	s.Run("rejects malformed bodies", func() {
		rec := s.postJSON("/auth/login", `{not json`)
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *HandlersSuite) TestRegister() {
	s.Run("rejects short passwords", func() {
		rec := s.postJSON("/auth/register", `{"email":"a@b.c","password":"abc","confirm_password":"abc"}`)
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Contains(rec.Body.String(), "weak_password")
	})

	s.Run("rejects mismatched confirmation", func() {
		rec := s.postJSON("/auth/register", `{"email":"a@b.c","password":"secret123","confirm_password":"secret124"}`)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("creates the account and signs in", func() {
		rec := s.postJSON("/auth/register", `{"email":"a@b.c","password":"secret123","confirm_password":"secret123"}`)
		s.Require().Equal(http.StatusOK, rec.Code)
		s.NotNil(s.sessionCookie(rec))
	})
}

func (s *HandlersSuite) TestLogout() {
	login := s.postJSON("/auth/login", `{"email":"user@example.com","password":"secret123"}`)
	s.Require().Equal(http.StatusOK, login.Code)

	rec := s.postJSON("/auth/logout", "")
	s.Require().Equal(http.StatusOK, rec.Code)

	cookie := s.sessionCookie(rec)
	s.Require().NotNil(cookie, "logout should clear the cookie")
	s.Empty(cookie.Value)
	s.Negative(cookie.MaxAge)

	var body struct {
		Redirect string `json:"redirect"`
	}
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&body))
	s.Equal("/", body.Redirect)
}

func (s *HandlersSuite) TestGoogleSignIn() {
	// No exchanger configured: /auth/google short-circuits to the callback.
	req := httptest.NewRequest(http.MethodGet, "/auth/google", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Require().Equal(http.StatusFound, rec.Code)
	s.Equal("/auth/google/callback", rec.Header().Get("Location"))

	req = httptest.NewRequest(http.MethodGet, "/auth/google/callback", nil)
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Require().Equal(http.StatusFound, rec.Code)
	s.Equal("/dashboard", rec.Header().Get("Location"))
	s.NotNil(s.sessionCookie(rec))
}

func (s *HandlersSuite) TestSessionEndpoint() {
	req := httptest.NewRequest(http.MethodGet, "/auth/session", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	s.Require().Equal(http.StatusOK, rec.Code)
	var body struct {
		Mode    string `json:"provider_mode"`
		Loading bool   `json:"loading"`
	}
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&body))
	s.Equal("mock", body.Mode)
	s.False(body.Loading)
}

func (s *HandlersSuite) TestRouteGuard() {
	s.Run("redirects anonymous visitors off protected paths", func() {
		req := httptest.NewRequest(http.MethodGet, "/dashboard/looks", nil)
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)

		s.Require().Equal(http.StatusFound, rec.Code)
		s.Equal("/auth?redirectTo=%2Fdashboard%2Flooks", rec.Header().Get("Location"))
	})

	s.Run("leaves public paths alone", func() {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("admits a signed-in visitor", func() {
		login := s.postJSON("/auth/login", `{"email":"user@example.com","password":"secret123"}`)
		cookie := s.sessionCookie(login)
		s.Require().NotNil(cookie)

		req := httptest.NewRequest(http.MethodGet, "/tryon", nil)
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		s.Equal(http.StatusOK, rec.Code)
	})
}

func TestRedirectTarget(t *testing.T) {
	cases := map[string]string{
		"":                     "/dashboard",
		"/tryon":               "/tryon",
		"/dashboard/looks":     "/dashboard/looks",
		"https://evil.example": "/dashboard",
		"//evil.example":       "/dashboard",
		"javascript:alert(1)":  "/dashboard",
		"relative/path":        "/dashboard",
	}
	for input, want := range cases {
		if got := redirectTarget(input); got != want {
			t.Errorf("redirectTarget(%q) = %q, want %q", input, got, want)
		}
	}
}
