package ledger

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// PDA seeds used by the vault program.
var (
	seedGlobal = []byte("global")
	seedVault  = []byte("vault")
	seedUser   = []byte("user")
)

// GlobalStatePDA derives the program's global state address.
func GlobalStatePDA(programID solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress([][]byte{seedGlobal}, programID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive global state pda: %w", err)
	}
	return addr, nil
}

// VaultPDA derives the vault (deposit escrow) address.
func VaultPDA(programID solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress([][]byte{seedVault}, programID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive vault pda: %w", err)
	}
	return addr, nil
}

// UserStatePDA derives the per-user state address for an owner.
func UserStatePDA(programID, owner solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress([][]byte{seedUser, owner.Bytes()}, programID)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive user state pda: %w", err)
	}
	return addr, nil
}
