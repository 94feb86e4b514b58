package firebase

import (
	"context"
	"sync"
	"time"

	"elan/internal/session/models"
)

// probeSubscription polls accounts:lookup with the held provider token and
// emits a nil identity when the provider reports the session gone. This is
// the REST-shaped stand-in for the SDK's auth-state listener.
type probeSubscription struct {
	provider *Provider
	changes  chan *models.Identity
	stop     chan struct{}
	once     sync.Once
}

func newProbeSubscription(p *Provider, interval time.Duration) *probeSubscription {
	sub := &probeSubscription{
		provider: p,
		changes:  make(chan *models.Identity, 1),
		stop:     make(chan struct{}),
	}
	go sub.run(interval)
	return sub
}

func (s *probeSubscription) Changes() <-chan *models.Identity { return s.changes }

func (s *probeSubscription) Unsubscribe() {
	s.once.Do(func() { close(s.stop) })
}

func (s *probeSubscription) run(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if s.probe() {
				return
			}
		}
	}
}

// probe returns true when the session is gone and the subscription is done.
func (s *probeSubscription) probe() bool {
	token := s.provider.currentToken()
	if token == "" {
		// Nothing to vouch for yet; a fresh process restores on the local
		// token alone until the next interactive sign-in.
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var lookup lookupResponse
	err := s.provider.call(ctx, "accounts:lookup", authPayload{IDToken: token}, &lookup)
	if err == nil && len(lookup.Users) > 0 {
		return false
	}
	if err != nil {
		// Only an authoritative provider answer counts as session-gone.
		// A transport failure or a provider outage is not a sign-out.
		api, ok := err.(*apiError)
		if !ok || api.Status >= 500 {
			s.provider.logger.Warn("session probe failed, will retry", "error", err)
			return false
		}
	}
	s.provider.logger.Info("provider reported session gone", "error", err)
	// Must not block: it is valid for nobody to be observing anymore.
	select {
	case s.changes <- nil:
	default:
	}
	return true
}
