package ledger

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/jonboulle/clockwork"
)

// ErrConfirmTimeout marks a transaction that was submitted but not seen
// confirmed within the wait window. The write may still land; callers
// refresh rather than resubmit.
var ErrConfirmTimeout = errors.New("transaction confirmation timed out")

const (
	confirmPollInterval = 500 * time.Millisecond
	confirmWait         = 30 * time.Second
)

// SubmitterConfig wires a Submitter.
type SubmitterConfig struct {
	Logger *slog.Logger
	Clock  clockwork.Clock
	RPC    RPC
	Wallet solana.PrivateKey
	Client *Client
}

func (cfg *SubmitterConfig) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.RPC == nil {
		return errors.New("rpc client is required")
	}
	if cfg.Wallet == nil {
		return errors.New("wallet is required")
	}
	if cfg.Client == nil {
		return errors.New("ledger client is required")
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return nil
}

// Submitter builds, signs, and submits vault program instructions.
// Failed submissions are surfaced to the caller and never retried here:
// resubmitting a financial transaction automatically risks duplication.
type Submitter struct {
	log    *slog.Logger
	clock  clockwork.Clock
	rpc    RPC
	wallet solana.PrivateKey
	client *Client
}

func NewSubmitter(cfg SubmitterConfig) (*Submitter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Submitter{
		log:    cfg.Logger,
		clock:  cfg.Clock,
		rpc:    cfg.RPC,
		wallet: cfg.Wallet,
		client: cfg.Client,
	}, nil
}

// Owner returns the submitting wallet's public key.
func (s *Submitter) Owner() solana.PublicKey { return s.wallet.PublicKey() }

// InitializeUser creates the caller's UserState account.
func (s *Submitter) InitializeUser(ctx context.Context) (solana.Signature, error) {
	owner := s.wallet.PublicKey()
	userAddr, err := UserStatePDA(s.client.programID, owner)
	if err != nil {
		return solana.Signature{}, err
	}
	ix := solana.NewInstruction(
		s.client.programID,
		solana.AccountMetaSlice{
			solana.Meta(owner).WRITE().SIGNER(),
			solana.Meta(userAddr).WRITE(),
			solana.Meta(s.client.globalStateAddr).WRITE(),
			solana.Meta(solana.SystemProgramID),
		},
		instructionTag("initialize_user"),
	)
	return s.submit(ctx, "initialize_user", ix)
}

// Deposit stakes the given lamport amount into the vault.
func (s *Submitter) Deposit(ctx context.Context, amount uint64) (solana.Signature, error) {
	owner := s.wallet.PublicKey()
	userAddr, err := UserStatePDA(s.client.programID, owner)
	if err != nil {
		return solana.Signature{}, err
	}
	data := make([]byte, 8+8)
	copy(data, instructionTag("deposit"))
	binary.LittleEndian.PutUint64(data[8:], amount)
	ix := solana.NewInstruction(
		s.client.programID,
		solana.AccountMetaSlice{
			solana.Meta(owner).WRITE().SIGNER(),
			solana.Meta(userAddr).WRITE(),
			solana.Meta(s.client.globalStateAddr).WRITE(),
			solana.Meta(s.client.vaultAddr).WRITE(),
			solana.Meta(solana.SystemProgramID),
		},
		data,
	)
	return s.submit(ctx, "deposit", ix)
}

// Claim withdraws the caller's principal plus yield share.
func (s *Submitter) Claim(ctx context.Context) (solana.Signature, error) {
	owner := s.wallet.PublicKey()
	userAddr, err := UserStatePDA(s.client.programID, owner)
	if err != nil {
		return solana.Signature{}, err
	}
	ix := solana.NewInstruction(
		s.client.programID,
		solana.AccountMetaSlice{
			solana.Meta(owner).WRITE().SIGNER(),
			solana.Meta(userAddr).WRITE(),
			solana.Meta(s.client.globalStateAddr).WRITE(),
			solana.Meta(s.client.vaultAddr).WRITE(),
			solana.Meta(solana.SystemProgramID),
		},
		instructionTag("claim"),
	)
	return s.submit(ctx, "claim", ix)
}

func (s *Submitter) submit(ctx context.Context, name string, ix solana.Instruction) (solana.Signature, error) {
	blockhash, err := s.rpc.GetLatestBlockhash(ctx, solanarpc.CommitmentConfirmed)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("%s: latest blockhash: %w", name, err)
	}

	tx, err := solana.NewTransaction(
		[]solana.Instruction{ix},
		blockhash.Value.Blockhash,
		solana.TransactionPayer(s.wallet.PublicKey()),
	)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("%s: build transaction: %w", name, err)
	}

	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(s.wallet.PublicKey()) {
			return &s.wallet
		}
		return nil
	}); err != nil {
		return solana.Signature{}, fmt.Errorf("%s: sign: %w", name, err)
	}

	sig, err := s.rpc.SendTransactionWithOpts(ctx, tx, solanarpc.TransactionOpts{
		PreflightCommitment: solanarpc.CommitmentConfirmed,
	})
	if err != nil {
		// Protocol-level rejections arrive here with the program's own
		// message; pass it through verbatim.
		return solana.Signature{}, fmt.Errorf("%s: %w", name, err)
	}
	s.log.Info("transaction submitted", "instruction", name, "signature", sig.String())

	if err := s.awaitConfirmation(ctx, sig); err != nil {
		return sig, err
	}
	s.log.Info("transaction confirmed", "instruction", name, "signature", sig.String())
	return sig, nil
}

func (s *Submitter) awaitConfirmation(ctx context.Context, sig solana.Signature) error {
	deadline := s.clock.Now().Add(confirmWait)
	for {
		res, err := s.rpc.GetSignatureStatuses(ctx, false, sig)
		if err == nil && res != nil && len(res.Value) > 0 && res.Value[0] != nil {
			st := res.Value[0]
			if st.Err != nil {
				return fmt.Errorf("transaction failed on chain: %v", st.Err)
			}
			switch st.ConfirmationStatus {
			case solanarpc.ConfirmationStatusConfirmed, solanarpc.ConfirmationStatusFinalized:
				return nil
			}
		}
		if s.clock.Now().After(deadline) {
			return ErrConfirmTimeout
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.clock.After(confirmPollInterval):
		}
	}
}
