package vault

import (
	"time"

	"github.com/chloris-protocol/vault-client/internal/lamports"
	"github.com/chloris-protocol/vault-client/internal/ledger"
	"github.com/chloris-protocol/vault-client/internal/phase"
)

// Snapshot is the client's complete last-known view of external state
// plus everything derived from it. It is immutable once built; the
// coordinator replaces it wholesale on each successful refresh.
type Snapshot struct {
	FetchedAt time.Time

	Global *ledger.GlobalState // nil until the protocol is initialized
	User   *ledger.UserState   // nil for a never-initialized user
	Phase  phase.Phase

	// Wallet and treasury native balances, raw lamports.
	Balance         uint64
	TreasuryBalance uint64

	// Derived display values.
	DepositedDisplay       string
	EstimatedYieldLamports uint64
	EstimatedYieldDisplay  string
	ContributionDisplay    string
	BalanceDisplay         string
	APYPercent             float64
}

// buildDerived fills every derived field from the raw state. A nil
// Global or User contributes zeros, never an error: absence is a valid
// state for both.
func (s *Snapshot) buildDerived() {
	s.Phase = phase.Unknown
	if s.Global != nil {
		s.Phase = phase.FromVariant(s.Global.EpochPhase)
		s.APYPercent = float64(s.Global.LastEpochApyBps) / 100
	}

	var deposited, contribution uint64
	if s.User != nil {
		deposited = s.User.DepositedAmount
		contribution = s.User.TotalNctContributed
	}
	s.DepositedDisplay = lamports.ToDisplay(deposited, lamports.SolDecimals)
	s.ContributionDisplay = lamports.ToDisplay(contribution, lamports.SolDecimals)
	s.BalanceDisplay = lamports.ToDisplay(s.Balance, lamports.SolDecimals)

	var yieldPerLamport uint64
	if s.Global != nil {
		yieldPerLamport = s.Global.YieldPerLamport
	}
	s.EstimatedYieldLamports = lamports.EstimateYield(deposited, yieldPerLamport)
	s.EstimatedYieldDisplay = lamports.ToDisplay(s.EstimatedYieldLamports, lamports.SolDecimals)
}

// CurrentEpoch returns the epoch counter, zero before initialization.
func (s *Snapshot) CurrentEpoch() uint64 {
	if s.Global == nil {
		return 0
	}
	return s.Global.CurrentEpoch
}

// MaxDepositLamports returns the suggested deposit ceiling: the wallet
// balance minus a reserve for transaction fees.
func (s *Snapshot) MaxDepositLamports() uint64 {
	const feeReserve = 10_000_000 // 0.01 SOL
	if s.Balance <= feeReserve {
		return 0
	}
	return s.Balance - feeReserve
}
