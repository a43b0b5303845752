// Package gate decides which vault actions are permitted given the
// current phase and account state. Every check runs locally before any
// network round trip, and write paths re-check immediately before
// submission because the phase may flip between render and click.
package gate

import (
	"errors"
	"fmt"

	"github.com/chloris-protocol/vault-client/internal/ledger"
	"github.com/chloris-protocol/vault-client/internal/phase"
)

var (
	ErrWrongPhase         = errors.New("action not permitted in current phase")
	ErrAmountNotPositive  = errors.New("deposit amount must be greater than zero")
	ErrInsufficientFunds  = errors.New("deposit amount exceeds wallet balance")
	ErrAlreadyInitialized = errors.New("user account already initialized")
	ErrNoUserState        = errors.New("user account not initialized")
	ErrNothingToClaim     = errors.New("no unclaimed yield for this epoch")
)

// CanDeposit reports whether a deposit of amount lamports is permitted.
// Deposits require the deposit phase, a positive amount, and an amount
// the wallet can cover.
func CanDeposit(p phase.Phase, amount, balance uint64) error {
	if p != phase.Deposit {
		return fmt.Errorf("%w: deposits require the deposit phase, current phase is %s", ErrWrongPhase, p)
	}
	if amount == 0 {
		return ErrAmountNotPositive
	}
	if amount > balance {
		return fmt.Errorf("%w: %d > %d lamports", ErrInsufficientFunds, amount, balance)
	}
	return nil
}

// CanClaim reports whether a claim is permitted: claiming phase, an
// existing user account, and unclaimed yield for the current epoch.
func CanClaim(p phase.Phase, user *ledger.UserState, currentEpoch uint64) error {
	if p != phase.Claiming {
		return fmt.Errorf("%w: claims require the claiming phase, current phase is %s", ErrWrongPhase, p)
	}
	if user == nil {
		return ErrNoUserState
	}
	if !user.HasUnclaimedYield(currentEpoch) {
		return ErrNothingToClaim
	}
	return nil
}

// CanInitialize reports whether creating a user account is permitted:
// deposit phase and no existing account.
func CanInitialize(p phase.Phase, user *ledger.UserState) error {
	if p != phase.Deposit {
		return fmt.Errorf("%w: initialization requires the deposit phase, current phase is %s", ErrWrongPhase, p)
	}
	if user != nil {
		return ErrAlreadyInitialized
	}
	return nil
}
