// Package vault is the client core: it owns the only mutable cache of
// last-known external state, refreshes it on a timer and on demand, and
// runs every user action through the gate before submission.
package vault

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/jonboulle/clockwork"

	"github.com/chloris-protocol/vault-client/internal/gate"
	"github.com/chloris-protocol/vault-client/internal/lamports"
	"github.com/chloris-protocol/vault-client/internal/ledger"
	"github.com/chloris-protocol/vault-client/internal/milestone"
)

// Ledger is the read side of the external authority.
type Ledger interface {
	GlobalState(ctx context.Context) (*ledger.GlobalState, error)
	UserState(ctx context.Context, owner solana.PublicKey) (*ledger.UserState, error)
	Balance(ctx context.Context, addr solana.PublicKey) (uint64, error)
}

// Mutator is the write side. Nil in read-only (watch) mode.
type Mutator interface {
	InitializeUser(ctx context.Context) (solana.Signature, error)
	Deposit(ctx context.Context, amount uint64) (solana.Signature, error)
	Claim(ctx context.Context) (solana.Signature, error)
}

// Notifier receives user-facing event notifications. Methods must not
// block refresh; failures are logged and dropped.
type Notifier interface {
	NotifyMilestone(ctx context.Context, title, threshold string) error
	NotifyDeposit(ctx context.Context, amountSOL, signature string) error
	NotifyClaim(ctx context.Context, amountSOL, signature string) error
	NotifyPhaseChange(ctx context.Context, from, to string, epoch uint64) error
}

// ErrReadOnly is returned by write actions when no wallet is configured.
var ErrReadOnly = errors.New("no wallet configured: client is read-only")

// ServiceConfig wires a Service.
type ServiceConfig struct {
	Logger          *slog.Logger
	Clock           clockwork.Clock
	Ledger          Ledger
	Mutator         Mutator // optional
	Milestones      *milestone.Engine
	Notifier        Notifier // optional
	Owner           solana.PublicKey
	NctTreasury     solana.PublicKey // optional, zero skips the balance read
	RefreshInterval time.Duration
}

func (cfg *ServiceConfig) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.Ledger == nil {
		return errors.New("ledger client is required")
	}
	if cfg.Milestones == nil {
		return errors.New("milestone engine is required")
	}
	if cfg.Owner.IsZero() {
		return errors.New("owner is required")
	}
	if cfg.RefreshInterval <= 0 {
		return errors.New("refresh interval must be greater than 0")
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return nil
}

// Service coordinates refreshes and gated write actions.
type Service struct {
	log   *slog.Logger
	clock clockwork.Clock
	cfg   ServiceConfig

	mu   sync.RWMutex
	snap *Snapshot
	// Refresh generations. A fetch applies only when no newer fetch has
	// started since it began: last writer by intent, not by arrival.
	startedGen uint64
	appliedGen uint64
}

func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Service{
		log:   cfg.Logger,
		clock: cfg.Clock,
		cfg:   cfg,
		snap:  &Snapshot{},
	}, nil
}

// Snapshot returns the last-known state. Never nil; before the first
// successful refresh it is the zero snapshot (phase unknown).
func (s *Service) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Refresh re-reads all external state and replaces the snapshot
// wholesale. A failed read keeps the previous snapshot; a fetch
// superseded by a newer one is discarded.
func (s *Service) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.startedGen++
	gen := s.startedGen
	s.mu.Unlock()

	snap, err := s.fetch(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if gen != s.startedGen || gen <= s.appliedGen {
		s.mu.Unlock()
		s.log.Debug("refresh superseded, dropping result", "generation", gen)
		return nil
	}
	s.appliedGen = gen
	prevPhase := s.snap.Phase
	s.snap = snap
	s.mu.Unlock()

	if prevPhase != snap.Phase && prevPhase.Known() && s.cfg.Notifier != nil {
		if err := s.cfg.Notifier.NotifyPhaseChange(ctx, prevPhase.String(), snap.Phase.String(), snap.CurrentEpoch()); err != nil {
			s.log.Warn("phase change notification failed", "error", err)
		}
	}
	s.evaluateMilestones(ctx, snap)
	return nil
}

func (s *Service) fetch(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{FetchedAt: s.clock.Now()}

	global, err := s.cfg.Ledger.GlobalState(ctx)
	switch {
	case err == nil:
		snap.Global = global
	case errors.Is(err, ledger.ErrNotFound):
		// Protocol not initialized yet; a valid empty state.
	case errors.Is(err, ledger.ErrMalformed):
		s.log.Warn("global state undecodable, degrading to unknown phase", "error", err)
	default:
		return nil, fmt.Errorf("refresh global state: %w", err)
	}

	user, err := s.cfg.Ledger.UserState(ctx, s.cfg.Owner)
	switch {
	case err == nil:
		snap.User = user
	case errors.Is(err, ledger.ErrNotFound):
		// Never-deposited user: zero everything.
	case errors.Is(err, ledger.ErrMalformed):
		s.log.Warn("user state undecodable, treating as absent", "error", err)
	default:
		return nil, fmt.Errorf("refresh user state: %w", err)
	}

	balance, err := s.cfg.Ledger.Balance(ctx, s.cfg.Owner)
	if err != nil {
		return nil, fmt.Errorf("refresh balance: %w", err)
	}
	snap.Balance = balance

	if !s.cfg.NctTreasury.IsZero() {
		tb, err := s.cfg.Ledger.Balance(ctx, s.cfg.NctTreasury)
		if err != nil {
			// Display-only; do not fail the whole refresh over it.
			s.log.Warn("treasury balance read failed", "error", err)
		} else {
			snap.TreasuryBalance = tb
		}
	}

	snap.buildDerived()
	return snap, nil
}

func (s *Service) evaluateMilestones(ctx context.Context, snap *Snapshot) {
	var m milestone.Metrics
	if snap.User != nil {
		m.DepositedLamports = snap.User.DepositedAmount
		m.ContributionLamports = snap.User.TotalNctContributed
	}
	def, err := s.cfg.Milestones.Evaluate(m)
	if err != nil {
		s.log.Error("milestone evaluation failed", "error", err)
		return
	}
	if def == nil {
		return
	}
	if s.cfg.Notifier != nil {
		if err := s.cfg.Notifier.NotifyMilestone(ctx, def.Title, def.Threshold); err != nil {
			s.log.Warn("milestone notification failed", "error", err)
		}
	}
}

// CanDeposit reports whether depositing the given display amount is
// currently permitted.
func (s *Service) CanDeposit(amountDisplay string) error {
	amount, err := lamports.ToRaw(amountDisplay, lamports.SolDecimals)
	if err != nil {
		return err
	}
	snap := s.Snapshot()
	return gate.CanDeposit(snap.Phase, amount, snap.Balance)
}

// CanClaim reports whether claiming is currently permitted.
func (s *Service) CanClaim() error {
	snap := s.Snapshot()
	return gate.CanClaim(snap.Phase, snap.User, snap.CurrentEpoch())
}

// CanInitialize reports whether creating the user account is permitted.
func (s *Service) CanInitialize() error {
	snap := s.Snapshot()
	return gate.CanInitialize(snap.Phase, snap.User)
}

// Deposit validates and stakes the given display amount. A user without
// a state account is initialized first. The gate is re-checked here,
// directly before submission, because the phase may have advanced since
// the caller last looked. A successful write always triggers an
// immediate refresh of all external state.
func (s *Service) Deposit(ctx context.Context, amountDisplay string) (solana.Signature, error) {
	if s.cfg.Mutator == nil {
		return solana.Signature{}, ErrReadOnly
	}
	amount, err := lamports.ToRaw(amountDisplay, lamports.SolDecimals)
	if err != nil {
		return solana.Signature{}, err
	}

	snap := s.Snapshot()
	if err := gate.CanDeposit(snap.Phase, amount, snap.Balance); err != nil {
		return solana.Signature{}, err
	}

	if snap.User == nil {
		s.log.Info("no user account, initializing before deposit")
		if _, err := s.cfg.Mutator.InitializeUser(ctx); err != nil {
			return solana.Signature{}, fmt.Errorf("initialize user: %w", err)
		}
		s.refreshAfterWrite(ctx)
	}

	sig, err := s.cfg.Mutator.Deposit(ctx, amount)
	if err != nil {
		return solana.Signature{}, err
	}
	s.refreshAfterWrite(ctx)

	if s.cfg.Notifier != nil {
		display := lamports.ToDisplay(amount, lamports.SolDecimals)
		if nerr := s.cfg.Notifier.NotifyDeposit(ctx, display, sig.String()); nerr != nil {
			s.log.Warn("deposit notification failed", "error", nerr)
		}
	}
	return sig, nil
}

// Claim withdraws principal plus yield. Gate re-checked before submit;
// successful writes refresh immediately.
func (s *Service) Claim(ctx context.Context) (solana.Signature, error) {
	if s.cfg.Mutator == nil {
		return solana.Signature{}, ErrReadOnly
	}
	snap := s.Snapshot()
	if err := gate.CanClaim(snap.Phase, snap.User, snap.CurrentEpoch()); err != nil {
		return solana.Signature{}, err
	}
	estimate := snap.EstimatedYieldDisplay

	sig, err := s.cfg.Mutator.Claim(ctx)
	if err != nil {
		return solana.Signature{}, err
	}
	s.refreshAfterWrite(ctx)

	if s.cfg.Notifier != nil {
		if nerr := s.cfg.Notifier.NotifyClaim(ctx, estimate, sig.String()); nerr != nil {
			s.log.Warn("claim notification failed", "error", nerr)
		}
	}
	return sig, nil
}

// InitializeUser creates the user's state account.
func (s *Service) InitializeUser(ctx context.Context) (solana.Signature, error) {
	if s.cfg.Mutator == nil {
		return solana.Signature{}, ErrReadOnly
	}
	snap := s.Snapshot()
	if err := gate.CanInitialize(snap.Phase, snap.User); err != nil {
		return solana.Signature{}, err
	}
	sig, err := s.cfg.Mutator.InitializeUser(ctx)
	if err != nil {
		return solana.Signature{}, err
	}
	s.refreshAfterWrite(ctx)
	return sig, nil
}

// refreshAfterWrite is the unconditional post-write refresh. The write
// already succeeded, so a refresh failure here only delays the updated
// view until the next poll.
func (s *Service) refreshAfterWrite(ctx context.Context) {
	if err := s.Refresh(ctx); err != nil {
		s.log.Warn("post-write refresh failed, keeping previous snapshot", "error", err)
	}
}

// Run polls on the configured interval until ctx is cancelled. A failed
// poll keeps the previous snapshot in place: stale but available, with
// self-healing on the next successful read.
func (s *Service) Run(ctx context.Context) error {
	if err := s.Refresh(ctx); err != nil {
		s.log.Warn("initial refresh failed", "error", err)
	}
	ticker := s.clock.NewTicker(s.cfg.RefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.Chan():
			if err := s.Refresh(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				s.log.Warn("refresh failed, keeping previous snapshot", "error", err)
			}
		}
	}
}

// Owner returns the identity this service watches.
func (s *Service) Owner() solana.PublicKey { return s.cfg.Owner }

// ReadOnly reports whether write actions are available.
func (s *Service) ReadOnly() bool { return s.cfg.Mutator == nil }
