package prices

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

func testFeed(t *testing.T, handler http.HandlerFunc, clock clockwork.Clock) *Feed {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	f, err := NewFeed(FeedConfig{
		Logger:   slog.Default(),
		Clock:    clock,
		Interval: time.Minute,
		Endpoint: srv.URL,
	})
	require.NoError(t, err)
	return f
}

func TestFetchComputesRate(t *testing.T) {
	f := testFeed(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"toucan-protocol-nature-carbon-tonne":{"usd":1.5},"solana":{"usd":150}}`))
	}, clockwork.NewFakeClock())

	require.NoError(t, f.Fetch(context.Background()))
	rate, ok := f.Rate()
	require.True(t, ok)
	require.InDelta(t, 0.01, rate, 1e-12)
}

func TestRateUnavailableBeforeFirstFetch(t *testing.T) {
	f := testFeed(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}, clockwork.NewFakeClock())

	_, ok := f.Rate()
	require.False(t, ok)
	require.Error(t, f.Fetch(context.Background()))
	_, ok = f.Rate()
	require.False(t, ok, "failed fetch must not make a rate available")
}

func TestRateRejectsInvalidData(t *testing.T) {
	f := testFeed(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"solana":{"usd":0}}`))
	}, clockwork.NewFakeClock())

	require.Error(t, f.Fetch(context.Background()))
	_, ok := f.Rate()
	require.False(t, ok, "zero prices must not be usable")
}

// A rate older than the staleness window degrades to unavailable rather
// than being silently reused.
func TestRateAgesOut(t *testing.T) {
	clock := clockwork.NewFakeClock()
	f := testFeed(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"toucan-protocol-nature-carbon-tonne":{"usd":2},"solana":{"usd":100}}`))
	}, clock)

	require.NoError(t, f.Fetch(context.Background()))
	_, ok := f.Rate()
	require.True(t, ok)

	clock.Advance(4 * time.Minute)
	_, ok = f.Rate()
	require.False(t, ok, "stale rate must read as unavailable")
}
