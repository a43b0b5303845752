package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"

	"github.com/chloris-protocol/vault-client/internal/api"
	"github.com/chloris-protocol/vault-client/internal/config"
	"github.com/chloris-protocol/vault-client/internal/ledger"
	"github.com/chloris-protocol/vault-client/internal/logger"
	"github.com/chloris-protocol/vault-client/internal/milestone"
	"github.com/chloris-protocol/vault-client/internal/notify"
	"github.com/chloris-protocol/vault-client/internal/prices"
	"github.com/chloris-protocol/vault-client/internal/vault"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := flag.String("config", "config.yaml", "path to config file")
	ownerFlag := flag.String("owner", "", "observe this wallet address (read-only, no keypair needed)")
	statusFlag := flag.Bool("status", false, "print the current view and exit")
	depositFlag := flag.String("deposit", "", "deposit the given SOL amount and exit")
	claimFlag := flag.Bool("claim", false, "claim principal plus yield and exit")
	initFlag := flag.Bool("init", false, "create the user account and exit")
	flag.Parse()

	cfg, err := config.LoadFile(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: config file: %v, using defaults\n", err)
		cfg = config.Default()
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log := logger.New(cfg.LogLevel)

	programID, err := solana.PublicKeyFromBase58(cfg.ProgramID)
	if err != nil {
		return fmt.Errorf("program id: %w", err)
	}
	rpcClient := solanarpc.New(cfg.RPCURL)

	var wallet solana.PrivateKey
	if cfg.KeypairPath != "" {
		wallet, err = solana.PrivateKeyFromSolanaKeygenFile(cfg.KeypairPath)
		if err != nil {
			return fmt.Errorf("load keypair %s: %w", cfg.KeypairPath, err)
		}
	}

	var owner solana.PublicKey
	switch {
	case wallet != nil:
		owner = wallet.PublicKey()
	case *ownerFlag != "":
		owner, err = solana.PublicKeyFromBase58(*ownerFlag)
		if err != nil {
			return fmt.Errorf("-owner: %w", err)
		}
	default:
		return errors.New("either keypair_path in config or -owner is required")
	}

	ledgerClient, err := ledger.NewClient(ledger.ClientConfig{
		Logger:    log,
		RPC:       rpcClient,
		ProgramID: programID,
	})
	if err != nil {
		return err
	}

	var mutator vault.Mutator
	if wallet != nil {
		submitter, err := ledger.NewSubmitter(ledger.SubmitterConfig{
			Logger: log,
			RPC:    rpcClient,
			Wallet: wallet,
			Client: ledgerClient,
		})
		if err != nil {
			return err
		}
		mutator = submitter
	} else {
		log.Info("no keypair configured, running read-only", "owner", owner)
	}

	store, err := milestone.NewFileStore(cfg.MilestonePath)
	if err != nil {
		return fmt.Errorf("milestone store: %w", err)
	}
	engine, err := milestone.NewEngine(milestone.EngineConfig{
		Logger: log,
		Store:  store,
		Key:    owner.String(),
	})
	if err != nil {
		return err
	}

	var notifier vault.Notifier
	if cfg.Telegram.Enabled {
		notifier = notify.NewNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		log.Info("telegram notifications enabled")
	}

	var nctTreasury solana.PublicKey
	if cfg.NctTreasury != "" {
		nctTreasury = solana.MustPublicKeyFromBase58(cfg.NctTreasury)
	}

	svc, err := vault.NewService(vault.ServiceConfig{
		Logger:          log,
		Ledger:          ledgerClient,
		Mutator:         mutator,
		Milestones:      engine,
		Notifier:        notifier,
		Owner:           owner,
		NctTreasury:     nctTreasury,
		RefreshInterval: cfg.RefreshInterval,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *statusFlag || *depositFlag != "" || *claimFlag || *initFlag {
		return runOnce(ctx, svc, *statusFlag, *depositFlag, *claimFlag, *initFlag)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("shutdown signal received")
		cancel()
	}()

	var feed *prices.Feed
	if cfg.Prices.Enabled {
		feed, err = prices.NewFeed(prices.FeedConfig{
			Logger:   log,
			Interval: cfg.Prices.Interval,
			Endpoint: cfg.Prices.Endpoint,
		})
		if err != nil {
			return err
		}
		go func() {
			if err := feed.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("price feed stopped", "error", err)
			}
		}()
	}

	var apiServer *api.Server
	if cfg.API.Enabled {
		var priceProvider api.PriceProvider
		if feed != nil {
			priceProvider = feed
		}
		apiServer = api.NewServer(cfg.API.Addr, svc, engine, priceProvider)
		if err := apiServer.Start(ctx); err != nil {
			return fmt.Errorf("api server: %w", err)
		}
	}

	log.Info("vault client starting",
		"owner", owner,
		"program", programID,
		"rpc", cfg.RPCURL,
		"read_only", svc.ReadOnly(),
		"refresh_interval", cfg.RefreshInterval,
	)

	err = svc.Run(ctx)
	if apiServer != nil {
		_ = apiServer.Shutdown(context.Background())
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// runOnce executes exactly one action against fresh state and exits.
func runOnce(ctx context.Context, svc *vault.Service, status bool, deposit string, claim, initUser bool) error {
	if err := svc.Refresh(ctx); err != nil {
		return fmt.Errorf("refresh: %w", err)
	}

	switch {
	case deposit != "":
		sig, err := svc.Deposit(ctx, deposit)
		if err != nil {
			return fmt.Errorf("deposit: %w", err)
		}
		fmt.Printf("deposited %s SOL (%s)\n", deposit, sig)
	case claim:
		estimate := svc.Snapshot().EstimatedYieldDisplay
		sig, err := svc.Claim(ctx)
		if err != nil {
			return fmt.Errorf("claim: %w", err)
		}
		fmt.Printf("claimed principal plus ~%s SOL yield (%s)\n", estimate, sig)
	case initUser:
		sig, err := svc.InitializeUser(ctx)
		if err != nil {
			return fmt.Errorf("initialize: %w", err)
		}
		fmt.Printf("user account created (%s)\n", sig)
	}

	if status || deposit != "" || claim || initUser {
		printStatus(svc)
	}
	return nil
}

func printStatus(svc *vault.Service) {
	snap := svc.Snapshot()
	fmt.Printf("owner:        %s\n", svc.Owner())
	fmt.Printf("phase:        %s (epoch %d)\n", snap.Phase, snap.CurrentEpoch())
	fmt.Printf("balance:      %s SOL\n", snap.BalanceDisplay)
	fmt.Printf("deposited:    %s SOL\n", snap.DepositedDisplay)
	fmt.Printf("est. yield:   %s SOL\n", snap.EstimatedYieldDisplay)
	fmt.Printf("contribution: %s SOL\n", snap.ContributionDisplay)
	fmt.Printf("apy:          %.2f%%\n", snap.APYPercent)
	if snap.User == nil {
		fmt.Println("user account: not created")
	}
}
