package config

import (
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultProgramID is the mainnet staking program address.
const DefaultProgramID = "3h5ShZh1CPw4nXv5uLuifcBppm5W5hcRHG5ivaoXJdih"

type Config struct {
	RPCURL      string `yaml:"rpc_url"`
	ProgramID   string `yaml:"program_id"`
	KeypairPath string `yaml:"keypair_path"`
	NctTreasury string `yaml:"nct_treasury"`

	RefreshInterval time.Duration `yaml:"refresh_interval"`
	LogLevel        string        `yaml:"log_level"`

	// MilestonePath is where surfaced milestone ids are persisted.
	MilestonePath string `yaml:"milestone_path"`

	Prices   PricesConfig   `yaml:"prices"`
	Telegram TelegramConfig `yaml:"telegram"`
	API      APIConfig      `yaml:"api"`
}

type PricesConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Endpoint string        `yaml:"endpoint"`
	Interval time.Duration `yaml:"interval"`
}

type TelegramConfig struct {
	Enabled  bool   `yaml:"enabled"`
	BotToken string `yaml:"bot_token"`
	ChatID   string `yaml:"chat_id"`
}

type APIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

func Default() Config {
	return Config{
		RPCURL:          "https://api.mainnet-beta.solana.com",
		ProgramID:       DefaultProgramID,
		RefreshInterval: 10 * time.Second,
		LogLevel:        "info",
		MilestonePath:   "milestones.json",
		Prices: PricesConfig{
			Enabled:  true,
			Interval: 60 * time.Second,
		},
		API: APIConfig{
			Addr: ":8080",
		},
	}
}

func LoadFile(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) ApplyEnv() {
	if v := os.Getenv("VAULT_RPC_URL"); v != "" {
		c.RPCURL = v
	}
	if v := os.Getenv("VAULT_PROGRAM_ID"); v != "" {
		c.ProgramID = v
	}
	if v := os.Getenv("VAULT_KEYPAIR"); v != "" {
		c.KeypairPath = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
		c.Telegram.Enabled = true
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := strings.TrimSpace(os.Getenv("VAULT_LOG_LEVEL")); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
}
