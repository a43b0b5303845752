package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Default()
	if cfg.RPCURL == "" {
		t.Fatal("expected a default rpc_url")
	}
	if cfg.ProgramID != DefaultProgramID {
		t.Fatalf("expected default program_id, got %q", cfg.ProgramID)
	}
	if cfg.RefreshInterval != 10*time.Second {
		t.Fatalf("expected refresh_interval=10s by default, got %v", cfg.RefreshInterval)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("expected log_level=info by default, got %q", cfg.LogLevel)
	}
	if !cfg.Prices.Enabled {
		t.Fatal("expected prices enabled by default")
	}
	if cfg.Prices.Interval <= 0 {
		t.Fatal("expected positive prices interval by default")
	}
	if cfg.Telegram.Enabled {
		t.Fatal("expected telegram disabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestLoadFromYAML(t *testing.T) {
	yaml := `
rpc_url: https://api.devnet.solana.com
keypair_path: /tmp/wallet.json
refresh_interval: 30s
log_level: debug
prices:
  enabled: false
telegram:
  enabled: true
  bot_token: bot123
  chat_id: chat456
api:
  enabled: true
  addr: ":9090"
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RPCURL != "https://api.devnet.solana.com" {
		t.Errorf("rpc_url not applied, got %q", cfg.RPCURL)
	}
	if cfg.KeypairPath != "/tmp/wallet.json" {
		t.Errorf("keypair_path not applied, got %q", cfg.KeypairPath)
	}
	if cfg.RefreshInterval != 30*time.Second {
		t.Errorf("refresh_interval not applied, got %v", cfg.RefreshInterval)
	}
	if cfg.Prices.Enabled {
		t.Error("prices.enabled=false not applied")
	}
	if !cfg.Telegram.Enabled || cfg.Telegram.BotToken != "bot123" {
		t.Error("telegram section not applied")
	}
	if cfg.API.Addr != ":9090" {
		t.Errorf("api.addr not applied, got %q", cfg.API.Addr)
	}
	// Untouched keys keep their defaults.
	if cfg.ProgramID != DefaultProgramID {
		t.Errorf("expected default program_id preserved, got %q", cfg.ProgramID)
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("VAULT_RPC_URL", "http://localhost:8899")
	t.Setenv("VAULT_KEYPAIR", "/keys/id.json")
	t.Setenv("TELEGRAM_BOT_TOKEN", "env-token")
	t.Setenv("TELEGRAM_CHAT_ID", "env-chat")
	t.Setenv("VAULT_LOG_LEVEL", "DEBUG")

	cfg := Default()
	cfg.ApplyEnv()

	if cfg.RPCURL != "http://localhost:8899" {
		t.Errorf("env rpc_url not applied, got %q", cfg.RPCURL)
	}
	if cfg.KeypairPath != "/keys/id.json" {
		t.Errorf("env keypair not applied, got %q", cfg.KeypairPath)
	}
	if !cfg.Telegram.Enabled || cfg.Telegram.BotToken != "env-token" || cfg.Telegram.ChatID != "env-chat" {
		t.Error("telegram env not applied")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("env log level not normalized, got %q", cfg.LogLevel)
	}
}
