package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/chloris-protocol/vault-client/internal/gate"
	"github.com/chloris-protocol/vault-client/internal/milestone"
	"github.com/chloris-protocol/vault-client/internal/vault"
)

// StateProvider exposes the vault service's state for the API layer.
type StateProvider interface {
	Snapshot() *vault.Snapshot
	Refresh(ctx context.Context) error
	ReadOnly() bool
	CanDeposit(amountDisplay string) error
	CanClaim() error
	CanInitialize() error
}

// MilestoneProvider exposes the milestone catalog and surfaced set.
type MilestoneProvider interface {
	Definitions() []milestone.Definition
	Shown() ([]int, error)
	Unlocked(m milestone.Metrics) []int
}

// PriceProvider exposes the cached NCT-in-SOL rate (nil if unavailable).
type PriceProvider interface {
	Rate() (float64, bool)
}

// Server is a lightweight HTTP API over the vault client's local view.
type Server struct {
	httpServer *http.Server
	state      StateProvider
	milestones MilestoneProvider
	prices     PriceProvider
	startedAt  time.Time
}

// NewServer creates a new API server bound to addr.
func NewServer(addr string, state StateProvider, milestones MilestoneProvider, prices PriceProvider) *Server {
	s := &Server{
		state:      state,
		milestones: milestones,
		prices:     prices,
		startedAt:  time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/ready", s.handleReady)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/actions", s.handleActions)
	mux.HandleFunc("/api/milestones", s.handleMilestones)
	mux.HandleFunc("/api/refresh", s.handleRefresh)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Start begins serving HTTP requests.
func (s *Server) Start(_ context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	log.Printf("api server listening on %s", s.httpServer.Addr)
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Printf("api server: %v", err)
		}
	}()
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// GET /api/health — liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, map[string]interface{}{
		"ok":       true,
		"uptime_s": time.Since(s.startedAt).Seconds(),
	})
}

// GET /api/ready — readiness probe. Ready once the first refresh landed.
func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	snap := s.state.Snapshot()
	ready := !snap.FetchedAt.IsZero()
	resp := map[string]interface{}{
		"ready":    ready,
		"uptime_s": time.Since(s.startedAt).Seconds(),
	}
	if !ready {
		resp["reason"] = "no_refresh_yet"
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	s.writeJSON(w, resp)
}

// GET /api/status — the full last-known snapshot plus derived values.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	snap := s.state.Snapshot()
	resp := map[string]interface{}{
		"phase":            snap.Phase.String(),
		"epoch":            snap.CurrentEpoch(),
		"fetched_at":       snap.FetchedAt,
		"read_only":        s.state.ReadOnly(),
		"balance_sol":      snap.BalanceDisplay,
		"deposited_sol":    snap.DepositedDisplay,
		"est_yield_sol":    snap.EstimatedYieldDisplay,
		"contribution_sol": snap.ContributionDisplay,
		"apy_percent":      snap.APYPercent,
		"max_deposit":      snap.MaxDepositLamports(),
	}
	if snap.TreasuryBalance > 0 {
		resp["treasury_balance"] = snap.TreasuryBalance
	}
	if s.prices != nil {
		if rate, ok := s.prices.Rate(); ok {
			resp["nct_sol_rate"] = rate
		}
	}
	s.writeJSON(w, resp)
}

// GET /api/actions — per-action permission under the current phase, with
// the blocking reason when denied.
func (s *Server) handleActions(w http.ResponseWriter, _ *http.Request) {
	entry := func(err error) map[string]interface{} {
		e := map[string]interface{}{"allowed": err == nil}
		if err != nil {
			e["reason"] = err.Error()
		}
		return e
	}
	// Probe the deposit gate with the smallest possible amount so only
	// phase and funds decide the answer.
	depositErr := s.state.CanDeposit("0.000000001")
	if errors.Is(depositErr, gate.ErrInsufficientFunds) {
		depositErr = nil
	}
	s.writeJSON(w, map[string]interface{}{
		"deposit":    entry(depositErr),
		"claim":      entry(s.state.CanClaim()),
		"initialize": entry(s.state.CanInitialize()),
	})
}

// GET /api/milestones — catalog with unlocked/shown flags.
func (s *Server) handleMilestones(w http.ResponseWriter, _ *http.Request) {
	snap := s.state.Snapshot()
	var m milestone.Metrics
	if snap.User != nil {
		m.DepositedLamports = snap.User.DepositedAmount
		m.ContributionLamports = snap.User.TotalNctContributed
	}
	unlocked := make(map[int]bool)
	for _, id := range s.milestones.Unlocked(m) {
		unlocked[id] = true
	}
	shownIDs, err := s.milestones.Shown()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	shown := make(map[int]bool)
	for _, id := range shownIDs {
		shown[id] = true
	}

	type milestoneEntry struct {
		ID        int    `json:"id"`
		Title     string `json:"title"`
		Threshold string `json:"threshold"`
		Unlocked  bool   `json:"unlocked"`
		Shown     bool   `json:"shown"`
	}
	var entries []milestoneEntry
	for _, d := range s.milestones.Definitions() {
		entries = append(entries, milestoneEntry{
			ID:        d.ID,
			Title:     d.Title,
			Threshold: d.Threshold,
			Unlocked:  unlocked[d.ID] || shown[d.ID],
			Shown:     shown[d.ID],
		})
	}
	s.writeJSON(w, map[string]interface{}{"milestones": entries})
}

// POST /api/refresh — force a refresh outside the poll schedule.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.state.Refresh(r.Context()); err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	snap := s.state.Snapshot()
	s.writeJSON(w, map[string]interface{}{
		"ok":         true,
		"phase":      snap.Phase.String(),
		"fetched_at": snap.FetchedAt,
	})
}
