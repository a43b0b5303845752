package config

import (
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"empty rpc url", func(c *Config) { c.RPCURL = " " }, true},
		{"bad program id", func(c *Config) { c.ProgramID = "not-base58!" }, true},
		{"bad treasury", func(c *Config) { c.NctTreasury = "xyz" }, true},
		{"valid treasury", func(c *Config) { c.NctTreasury = DefaultProgramID }, false},
		{"zero refresh interval", func(c *Config) { c.RefreshInterval = 0 }, true},
		{"negative refresh interval", func(c *Config) { c.RefreshInterval = -time.Second }, true},
		{"prices enabled without interval", func(c *Config) { c.Prices.Interval = 0 }, true},
		{"prices disabled without interval", func(c *Config) { c.Prices.Enabled = false; c.Prices.Interval = 0 }, false},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }, true},
		{"empty log level ok", func(c *Config) { c.LogLevel = "" }, false},
		{"telegram enabled without chat id", func(c *Config) {
			c.Telegram.Enabled = true
			c.Telegram.BotToken = "tok"
		}, true},
		{"telegram fully configured", func(c *Config) {
			c.Telegram.Enabled = true
			c.Telegram.BotToken = "tok"
			c.Telegram.ChatID = "chat"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Fatal("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
