// Package prices polls an external price API for the NCT/SOL exchange
// rate. The rate is advisory display data: when the feed is down the
// rate is reported as unavailable rather than zero or a silently stale
// number.
package prices

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

const defaultEndpoint = "https://api.coingecko.com/api/v3/simple/price" +
	"?ids=toucan-protocol-nature-carbon-tonne,solana&vs_currencies=usd"

// FeedConfig wires a Feed.
type FeedConfig struct {
	Logger       *slog.Logger
	Clock        clockwork.Clock
	Interval     time.Duration
	Endpoint     string        // overridable for testing
	HTTPClient   *http.Client  // overridable for testing
	MaxStaleness time.Duration // after this, the last rate is unavailable
}

func (cfg *FeedConfig) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.Interval <= 0 {
		return errors.New("interval must be greater than 0")
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if cfg.MaxStaleness <= 0 {
		cfg.MaxStaleness = 3 * cfg.Interval
	}
	return nil
}

// Feed caches the most recent NCT-in-SOL rate.
type Feed struct {
	log   *slog.Logger
	clock clockwork.Clock
	cfg   FeedConfig

	mu          sync.RWMutex
	rate        float64
	lastSuccess time.Time
}

func NewFeed(cfg FeedConfig) (*Feed, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Feed{log: cfg.Logger, clock: cfg.Clock, cfg: cfg}, nil
}

// Rate returns the cached NCT-in-SOL rate. ok is false when no rate has
// been fetched yet or the last successful fetch is too old to trust.
func (f *Feed) Rate() (rate float64, ok bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.lastSuccess.IsZero() {
		return 0, false
	}
	if f.clock.Now().Sub(f.lastSuccess) > f.cfg.MaxStaleness {
		return 0, false
	}
	return f.rate, true
}

// Fetch performs one price lookup and updates the cache on success. A
// failed fetch leaves the previous rate in place until it ages out.
func (f *Feed) Fetch(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.cfg.Endpoint, nil)
	if err != nil {
		return fmt.Errorf("prices: build request: %w", err)
	}
	resp, err := f.cfg.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("prices: fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("prices: unexpected status %d", resp.StatusCode)
	}

	var body map[string]struct {
		USD float64 `json:"usd"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("prices: decode: %w", err)
	}

	nctUSD := body["toucan-protocol-nature-carbon-tonne"].USD
	solUSD := body["solana"].USD
	if nctUSD <= 0 || solUSD <= 0 {
		return fmt.Errorf("prices: invalid price data (nct=%v sol=%v)", nctUSD, solUSD)
	}

	f.mu.Lock()
	f.rate = nctUSD / solUSD
	f.lastSuccess = f.clock.Now()
	f.mu.Unlock()
	return nil
}

// Run polls on the configured interval until ctx is cancelled.
func (f *Feed) Run(ctx context.Context) error {
	if err := f.Fetch(ctx); err != nil {
		f.log.Warn("price fetch failed", "error", err)
	}
	ticker := f.clock.NewTicker(f.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
			if err := f.Fetch(ctx); err != nil {
				f.log.Warn("price fetch failed", "error", err)
			}
		}
	}
}
