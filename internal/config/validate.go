package config

import (
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
)

// Validate checks high-impact runtime configuration constraints.
func (c Config) Validate() error {
	if strings.TrimSpace(c.RPCURL) == "" {
		return fmt.Errorf("rpc_url must not be empty")
	}
	if _, err := solana.PublicKeyFromBase58(c.ProgramID); err != nil {
		return fmt.Errorf("program_id is not a valid address: %w", err)
	}
	if c.NctTreasury != "" {
		if _, err := solana.PublicKeyFromBase58(c.NctTreasury); err != nil {
			return fmt.Errorf("nct_treasury is not a valid address: %w", err)
		}
	}
	if c.RefreshInterval <= 0 {
		return fmt.Errorf("refresh_interval must be > 0, got %v", c.RefreshInterval)
	}
	if c.Prices.Enabled && c.Prices.Interval <= 0 {
		return fmt.Errorf("prices.interval must be > 0, got %v", c.Prices.Interval)
	}

	level := strings.ToLower(strings.TrimSpace(c.LogLevel))
	switch level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error; got %q", c.LogLevel)
	}

	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" || c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram requires both bot_token and chat_id when enabled")
		}
	}
	return nil
}
