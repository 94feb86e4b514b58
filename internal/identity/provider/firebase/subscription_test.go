package firebase

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProbeSkipsTransportFailures(t *testing.T) {
	// Nothing listens here; every probe fails before reaching the provider.
	p := New(Config{APIKey: "k", Endpoint: "http://127.0.0.1:1"})
	p.setToken("held-token")

	sub := newProbeSubscription(p, 5*time.Millisecond)
	defer sub.Unsubscribe()

	select {
	case <-sub.Changes():
		t.Fatal("a connection failure must not read as a sign-out")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestProbeSkipsProviderOutage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeAPIError(w, http.StatusServiceUnavailable, "BACKEND_ERROR")
	}))
	defer server.Close()

	p := New(Config{APIKey: "k", Endpoint: server.URL})
	p.setToken("held-token")

	sub := newProbeSubscription(p, 5*time.Millisecond)
	defer sub.Unsubscribe()

	select {
	case <-sub.Changes():
		t.Fatal("a 5xx answer must not read as a sign-out")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestProbeReportsSessionGone(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeAPIError(w, http.StatusBadRequest, "INVALID_ID_TOKEN")
	}))
	defer server.Close()

	p := New(Config{APIKey: "k", Endpoint: server.URL})
	p.setToken("stale-token")

	sub := newProbeSubscription(p, 5*time.Millisecond)
	defer sub.Unsubscribe()

	select {
	case identity := <-sub.Changes():
		assert.Nil(t, identity, "session-gone is signalled as a nil identity")
	case <-time.After(time.Second):
		t.Fatal("expected a sign-out signal for a rejected token")
	}
}
