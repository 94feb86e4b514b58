package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"elan/internal/session/models"
	"elan/pkg/platform/sentinel"
)

// InMemoryStore models the browser's localStorage/cookie pair in memory.
// It intentionally favors clarity over performance; entries are stored
// serialized so the read path exercises the same decode the real storage
// would.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
	expiry  map[string]time.Time

	clock func() time.Time
}

type InMemoryOption func(*InMemoryStore)

// WithClock sets the clock function for testability.
func WithClock(clock func() time.Time) InMemoryOption {
	return func(s *InMemoryStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func NewInMemoryStore(opts ...InMemoryOption) *InMemoryStore {
	s := &InMemoryStore{
		entries: make(map[string][]byte),
		expiry:  make(map[string]time.Time),
		clock:   time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *InMemoryStore) WriteIdentity(_ context.Context, identity models.Identity) error {
	raw, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("marshal identity: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[KeyIdentity] = raw
	return nil
}

func (s *InMemoryStore) ReadIdentity(_ context.Context) (models.Identity, error) {
	s.mu.RLock()
	raw, ok := s.entries[KeyIdentity]
	s.mu.RUnlock()
	if !ok {
		return models.Identity{}, sentinel.ErrNotFound
	}
	var identity models.Identity
	if err := json.Unmarshal(raw, &identity); err != nil {
		return models.Identity{}, fmt.Errorf("unmarshal identity: %w", err)
	}
	return identity, nil
}

func (s *InMemoryStore) DeleteIdentity(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, KeyIdentity)
	return nil
}

func (s *InMemoryStore) WriteToken(_ context.Context, token Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[KeySession] = []byte(token.Value)
	s.expiry[KeySession] = token.ExpiresAt
	return nil
}

func (s *InMemoryStore) ReadToken(_ context.Context) (Token, error) {
	s.mu.RLock()
	raw, ok := s.entries[KeySession]
	expiresAt := s.expiry[KeySession]
	s.mu.RUnlock()
	if !ok {
		return Token{}, sentinel.ErrNotFound
	}
	token := Token{Value: string(raw), ExpiresAt: expiresAt}
	if token.Expired(s.clock()) {
		return Token{}, sentinel.ErrExpired
	}
	return token, nil
}

func (s *InMemoryStore) DeleteToken(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, KeySession)
	delete(s.expiry, KeySession)
	return nil
}
