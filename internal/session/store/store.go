// Package store persists the session record that survives a reload: the
// serialized identity under KeyIdentity and the session token under
// KeySession. The two entries must always be written and cleared together;
// the service layer orders the writes (identity then token, clear token
// then identity) so a crash between steps leaves at worst an identity with
// no valid token, which the route guard treats as unauthenticated.
package store

import (
	"context"
	"time"

	"elan/internal/session/models"
)

const (
	// KeyIdentity is storage key A: the JSON-serialized identity.
	KeyIdentity = "auth-user"
	// KeySession is storage key B: the opaque session token, also surfaced
	// as the cookie the route guard reads.
	KeySession = "auth-session"
)

// Token is the key-B record: an opaque value with an absolute expiry.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Expired reports whether the token has passed its expiry at now.
func (t Token) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && now.After(t.ExpiresAt)
}

// Store abstracts the client-side storage the session record lives in.
// Reads return sentinel.ErrNotFound for absent entries and
// sentinel.ErrExpired for a token past its expiry. Deletes of absent
// entries succeed.
type Store interface {
	WriteIdentity(ctx context.Context, identity models.Identity) error
	ReadIdentity(ctx context.Context) (models.Identity, error)
	DeleteIdentity(ctx context.Context) error

	WriteToken(ctx context.Context, token Token) error
	ReadToken(ctx context.Context) (Token, error)
	DeleteToken(ctx context.Context) error
}
