package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
)

// ErrNotFound marks an account that does not exist on chain. For
// UserState this is the expected pre-initialization condition, not a
// failure.
var ErrNotFound = errors.New("account not found")

// RPC is the subset of the Solana RPC client the ledger layer uses.
// Tests substitute function-backed fakes.
type RPC interface {
	GetAccountInfo(ctx context.Context, account solana.PublicKey) (*solanarpc.GetAccountInfoResult, error)
	GetBalance(ctx context.Context, account solana.PublicKey, commitment solanarpc.CommitmentType) (*solanarpc.GetBalanceResult, error)
	GetLatestBlockhash(ctx context.Context, commitment solanarpc.CommitmentType) (*solanarpc.GetLatestBlockhashResult, error)
	SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts solanarpc.TransactionOpts) (solana.Signature, error)
	GetSignatureStatuses(ctx context.Context, searchHistory bool, sigs ...solana.Signature) (*solanarpc.GetSignatureStatusesResult, error)
}

// ClientConfig wires a Client. Logger and RPC are required.
type ClientConfig struct {
	Logger    *slog.Logger
	RPC       RPC
	ProgramID solana.PublicKey
}

func (cfg *ClientConfig) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.RPC == nil {
		return errors.New("rpc client is required")
	}
	if cfg.ProgramID.IsZero() {
		return errors.New("program id is required")
	}
	return nil
}

// Client reads program accounts and native balances. All derived PDAs
// are computed once at construction.
type Client struct {
	log       *slog.Logger
	rpc       RPC
	programID solana.PublicKey

	globalStateAddr solana.PublicKey
	vaultAddr       solana.PublicKey
}

func NewClient(cfg ClientConfig) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	globalAddr, err := GlobalStatePDA(cfg.ProgramID)
	if err != nil {
		return nil, err
	}
	vaultAddr, err := VaultPDA(cfg.ProgramID)
	if err != nil {
		return nil, err
	}
	return &Client{
		log:             cfg.Logger,
		rpc:             cfg.RPC,
		programID:       cfg.ProgramID,
		globalStateAddr: globalAddr,
		vaultAddr:       vaultAddr,
	}, nil
}

// ProgramID returns the vault program id this client is bound to.
func (c *Client) ProgramID() solana.PublicKey { return c.programID }

func (c *Client) fetchAccount(ctx context.Context, addr solana.PublicKey) ([]byte, error) {
	res, err := c.rpc.GetAccountInfo(ctx, addr)
	if err != nil {
		if errors.Is(err, solanarpc.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get account %s: %w", addr, err)
	}
	if res == nil || res.Value == nil {
		return nil, ErrNotFound
	}
	return res.Value.Data.GetBinary(), nil
}

// GlobalState fetches and decodes the program's global account.
// Returns ErrNotFound when the protocol has not been initialized.
func (c *Client) GlobalState(ctx context.Context) (*GlobalState, error) {
	data, err := c.fetchAccount(ctx, c.globalStateAddr)
	if err != nil {
		return nil, err
	}
	gs, err := DecodeGlobalState(data)
	if err != nil {
		return nil, err
	}
	return gs, nil
}

// UserState fetches and decodes the state account for owner. Returns
// ErrNotFound when the user has never initialized; callers must treat
// that as "zero everything", not as a failure.
func (c *Client) UserState(ctx context.Context, owner solana.PublicKey) (*UserState, error) {
	addr, err := UserStatePDA(c.programID, owner)
	if err != nil {
		return nil, err
	}
	data, err := c.fetchAccount(ctx, addr)
	if err != nil {
		return nil, err
	}
	us, err := DecodeUserState(data)
	if err != nil {
		return nil, err
	}
	return us, nil
}

// Balance fetches the native lamport balance for an address. Used for
// display and affordability checks only.
func (c *Client) Balance(ctx context.Context, addr solana.PublicKey) (uint64, error) {
	res, err := c.rpc.GetBalance(ctx, addr, solanarpc.CommitmentConfirmed)
	if err != nil {
		return 0, fmt.Errorf("get balance %s: %w", addr, err)
	}
	return res.Value, nil
}
