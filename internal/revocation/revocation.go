// Package revocation tracks revoked session-token IDs so a logged-out
// cookie dies before its seven-day expiry. Memory, Redis and PostgreSQL
// variants share the List interface; the route guard consults whichever is
// wired.
package revocation

import (
	"context"
	"fmt"
	"time"
)

// List is the token revocation list.
type List interface {
	// Revoke marks a token ID revoked until its remaining TTL lapses.
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	// IsRevoked reports whether the token ID is on the list. Expired
	// entries read as not revoked.
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Clock is injected for testability; defaults to time.Now.
type Clock func() time.Time

func validateTTL(ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("revocation ttl must be positive, got %s", ttl)
	}
	return nil
}
