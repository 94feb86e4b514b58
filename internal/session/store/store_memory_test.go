package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"elan/internal/session/models"
	"elan/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	now   time.Time
}

func (s *MemoryStoreSuite) SetupTest() {
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.store = NewInMemoryStore(WithClock(func() time.Time { return s.now }))
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) TestIdentityRoundTrip() {
	identity := models.Identity{
		ID:            "user-1",
		Email:         "a@x.com",
		DisplayName:   "A",
		EmailVerified: true,
	}

	err := s.store.WriteIdentity(context.Background(), identity)
	s.Require().NoError(err)

	found, err := s.store.ReadIdentity(context.Background())
	s.Require().NoError(err)
	s.Equal(identity, found)
}

func (s *MemoryStoreSuite) TestReadIdentityAbsent() {
	_, err := s.store.ReadIdentity(context.Background())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MemoryStoreSuite) TestTokenExpiry() {
	s.Run("valid token reads back", func() {
		token := Token{Value: "tok", ExpiresAt: s.now.Add(time.Hour)}
		s.Require().NoError(s.store.WriteToken(context.Background(), token))

		found, err := s.store.ReadToken(context.Background())
		s.Require().NoError(err)
		s.Equal(token.Value, found.Value)
	})

	s.Run("expired token reads as ErrExpired", func() {
		token := Token{Value: "tok", ExpiresAt: s.now.Add(-time.Minute)}
		s.Require().NoError(s.store.WriteToken(context.Background(), token))

		_, err := s.store.ReadToken(context.Background())
		s.Require().ErrorIs(err, sentinel.ErrExpired)
	})

	s.Run("absent token reads as ErrNotFound", func() {
		s.Require().NoError(s.store.DeleteToken(context.Background()))
		_, err := s.store.ReadToken(context.Background())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *MemoryStoreSuite) TestDeleteIsIdempotent() {
	s.Require().NoError(s.store.DeleteToken(context.Background()))
	s.Require().NoError(s.store.DeleteIdentity(context.Background()))
	s.Require().NoError(s.store.DeleteToken(context.Background()))
	s.Require().NoError(s.store.DeleteIdentity(context.Background()))
}
