package guard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"elan/internal/revocation"
	"elan/internal/session/models"
	"elan/internal/session/store"
	"elan/internal/sessiontoken"
)

func TestPathSetMatch(t *testing.T) {
	ps := DefaultProtectedPaths()

	cases := []struct {
		path string
		want bool
	}{
		{"/dashboard", true},
		{"/dashboard/settings", true},
		{"/tryon", true},
		{"/tryon/jacket", true},
		{"/dashboardish", false},
		{"/", false},
		{"/auth", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ps.Match(tc.path), tc.path)
	}
}

type GuardSuite struct {
	suite.Suite
	tokens *sessiontoken.Service
	next   http.Handler
}

func (s *GuardSuite) SetupTest() {
	s.tokens = sessiontoken.NewService("guard-test-key", "elan", time.Hour)
	s.next = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(UserID(r.Context())))
	})
}

func TestGuardSuite(t *testing.T) {
	suite.Run(t, new(GuardSuite))
}

func (s *GuardSuite) request(g *Guard, path, cookieValue string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookieValue != "" {
		req.AddCookie(&http.Cookie{Name: store.KeySession, Value: cookieValue})
	}
	rec := httptest.NewRecorder()
	g.Middleware(s.next).ServeHTTP(rec, req)
	return rec
}

func (s *GuardSuite) TestRealMode() {
	g := New(DefaultProtectedPaths(), "/auth", WithValidator(s.tokens))

	s.Run("valid token reaches the handler with identity in context", func() {
		token, err := s.tokens.Mint(models.Identity{ID: "uid-1", Email: "a@x.com"})
		s.Require().NoError(err)

		rec := s.request(g, "/dashboard", token.Value)
		s.Equal(http.StatusOK, rec.Code)
		s.Equal("uid-1", rec.Body.String())
	})

	s.Run("missing cookie redirects with redirectTo", func() {
		rec := s.request(g, "/dashboard", "")
		s.Equal(http.StatusFound, rec.Code)
		s.Equal("/auth?redirectTo=%2Fdashboard", rec.Header().Get("Location"))
	})

	s.Run("garbage token redirects", func() {
		rec := s.request(g, "/tryon", "not-a-jwt")
		s.Equal(http.StatusFound, rec.Code)
		s.Equal("/auth?redirectTo=%2Ftryon", rec.Header().Get("Location"))
	})

	s.Run("expired token redirects", func() {
		expired := sessiontoken.NewService("guard-test-key", "elan", -time.Minute)
		token, err := expired.Mint(models.Identity{ID: "uid-1"})
		s.Require().NoError(err)

		rec := s.request(g, "/dashboard", token.Value)
		s.Equal(http.StatusFound, rec.Code)
	})

	s.Run("public paths pass untouched", func() {
		rec := s.request(g, "/", "")
		s.Equal(http.StatusOK, rec.Code)
	})
}

func (s *GuardSuite) TestRevocation() {
	trl := revocation.NewMemoryList()
	g := New(DefaultProtectedPaths(), "/auth",
		WithValidator(s.tokens), WithRevocations(trl))

	token, err := s.tokens.Mint(models.Identity{ID: "uid-1"})
	s.Require().NoError(err)
	claims, err := s.tokens.Validate(token.Value)
	s.Require().NoError(err)

	rec := s.request(g, "/dashboard", token.Value)
	s.Equal(http.StatusOK, rec.Code)

	s.Require().NoError(trl.Revoke(context.Background(), claims.ID, time.Hour))

	rec = s.request(g, "/dashboard", token.Value)
	s.Equal(http.StatusFound, rec.Code)
	s.Equal("/auth?redirectTo=%2Fdashboard", rec.Header().Get("Location"))
}

func (s *GuardSuite) TestMockModePresenceOnly() {
	g := New(DefaultProtectedPaths(), "/auth")

	s.Run("any cookie value passes", func() {
		rec := s.request(g, "/dashboard", "mock-session-token")
		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("absence still redirects", func() {
		rec := s.request(g, "/tryon", "")
		s.Equal(http.StatusFound, rec.Code)
		s.Equal("/auth?redirectTo=%2Ftryon", rec.Header().Get("Location"))
	})
}

func TestDecisionHookObservesOutcomes(t *testing.T) {
	var allowed, denied int
	g := New(DefaultProtectedPaths(), "/auth",
		WithDecisionHook(func(ok bool) {
			if ok {
				allowed++
			} else {
				denied++
			}
		}))

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: store.KeySession, Value: "tok"})
	g.Middleware(next).ServeHTTP(httptest.NewRecorder(), req)

	g.Middleware(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	require.Equal(t, 1, allowed)
	require.Equal(t, 1, denied)
}
