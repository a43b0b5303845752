// Package ledger reads and mutates the vault program's on-chain state.
// It is the only package that talks to the Solana RPC; everything above
// it works on the decoded account structs.
package ledger

import (
	"crypto/sha256"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// ErrMalformed marks account data that exists but cannot be decoded.
// Callers degrade to a safe-default view instead of failing outright.
var ErrMalformed = errors.New("malformed account data")

// accountTag returns the 8-byte anchor discriminator for an account type.
func accountTag(name string) [8]byte {
	sum := sha256.Sum256([]byte("account:" + name))
	var tag [8]byte
	copy(tag[:], sum[:8])
	return tag
}

// instructionTag returns the 8-byte anchor discriminator for an instruction.
func instructionTag(name string) []byte {
	sum := sha256.Sum256([]byte("global:" + name))
	return sum[:8]
}

var (
	globalStateTag = accountTag("GlobalState")
	userStateTag   = accountTag("UserState")
)

// GlobalState mirrors the program's global account. It is owned by the
// external authority; the client only ever reads it.
type GlobalState struct {
	Admin              solana.PublicKey
	Treasury           solana.PublicKey
	NctTreasury        solana.PublicKey
	CurrentEpoch       uint64
	EpochPhase         uint8 // borsh enum variant index
	TotalDeposited     uint64
	TotalUsers         uint64
	YieldPerLamport    uint64
	NctYieldPerLamport uint64
	LastEpochApyBps    uint64
	Bump               uint8
	VaultBump          uint8
}

// UserState mirrors a user's per-account state. Absence of this account
// is the normal state for a user who has never initialized.
type UserState struct {
	Owner               solana.PublicKey
	DepositedAmount     uint64
	DepositEpoch        uint64
	LastClaimedEpoch    uint64
	TotalClaimed        uint64
	TotalNctContributed uint64
	Bump                uint8
}

// HasUnclaimedYield reports whether the user is entitled to a claim in
// the given epoch: a live deposit that has not been claimed this epoch.
func (u *UserState) HasUnclaimedYield(currentEpoch uint64) bool {
	if u == nil {
		return false
	}
	return u.DepositedAmount > 0 && u.LastClaimedEpoch < currentEpoch
}

func decodeAccount(data []byte, tag [8]byte, out any) error {
	if len(data) < 8 {
		return fmt.Errorf("%w: %d bytes", ErrMalformed, len(data))
	}
	for i := range tag {
		if data[i] != tag[i] {
			return fmt.Errorf("%w: discriminator mismatch", ErrMalformed)
		}
	}
	if err := bin.NewBorshDecoder(data[8:]).Decode(out); err != nil {
		return fmt.Errorf("%w: borsh decode: %v", ErrMalformed, err)
	}
	return nil
}

// DecodeGlobalState decodes a raw account payload into a GlobalState.
func DecodeGlobalState(data []byte) (*GlobalState, error) {
	var gs GlobalState
	if err := decodeAccount(data, globalStateTag, &gs); err != nil {
		return nil, fmt.Errorf("global state: %w", err)
	}
	return &gs, nil
}

// DecodeUserState decodes a raw account payload into a UserState.
func DecodeUserState(data []byte) (*UserState, error) {
	var us UserState
	if err := decodeAccount(data, userStateTag, &us); err != nil {
		return nil, fmt.Errorf("user state: %w", err)
	}
	return &us, nil
}
