// Package config provides configuration management for the router.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Webhook     WebhookConfig      `mapstructure:"webhook"`
	Broker      BrokerCredentials  `mapstructure:"broker"`
	Trading     TradingConfig      `mapstructure:"trading"`
	Dedup       DedupConfig        `mapstructure:"dedup"`
	Server      ServerConfig       `mapstructure:"server"`
	Journal     JournalConfig      `mapstructure:"journal"`
	Notify      NotificationConfig `mapstructure:"notify"`
}

// WebhookConfig holds the inbound authentication settings.
type WebhookConfig struct {
	// Secret is the shared HMAC secret. Empty disables signature checks.
	Secret string `mapstructure:"secret"`
}

// BrokerCredentials holds broker login material.
type BrokerCredentials struct {
	Username   string `mapstructure:"username"`
	Password   string `mapstructure:"password"`
	TradingPIN string `mapstructure:"trading_pin"`
	TOTPSecret string `mapstructure:"totp_secret"`
	// Kite holds the live adapter credentials, when used.
	Kite KiteCredentials `mapstructure:"kite"`
}

// KiteCredentials holds Kite Connect API credentials.
type KiteCredentials struct {
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`
}

// TradingConfig holds routing policy.
type TradingConfig struct {
	Notional        float64  `mapstructure:"notional"`
	DryRun          bool     `mapstructure:"dry_run"`
	TargetDelta     float64  `mapstructure:"target_delta"`
	MaxDTE          int      `mapstructure:"max_dte"`
	PremiumFloor    float64  `mapstructure:"premium_floor"`
	ExcludedSymbols []string `mapstructure:"excluded_symbols"`
}

// DedupConfig holds idempotency-cache settings.
type DedupConfig struct {
	TTL       time.Duration `mapstructure:"ttl"`
	RedisAddr string        `mapstructure:"redis_addr"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// JournalConfig holds decision journal settings. An empty path disables
// the journal.
type JournalConfig struct {
	Path string `mapstructure:"path"`
}

// NotificationConfig holds notification settings.
type NotificationConfig struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig holds Telegram notification settings.
type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/signal-router"
	}
	return filepath.Join(home, ".config", "signal-router")
}

// Load loads configuration from the specified directory. If configDir is
// empty, the default config directory is used. A missing config file is not
// an error: defaults plus environment overrides apply.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("loading config.toml: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("trading.notional", 5000.0)
	v.SetDefault("trading.target_delta", 0.30)
	v.SetDefault("trading.max_dte", 7)
	v.SetDefault("trading.premium_floor", 0.05)
	v.SetDefault("trading.excluded_symbols", []string{"BTC", "ETH", "BTCUSD", "ETHUSD", "DOGE"})
	v.SetDefault("dedup.ttl", 6*time.Hour)
	v.SetDefault("server.addr", ":8080")
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("WEBHOOK_SECRET"); v != "" {
		cfg.Webhook.Secret = v
	}
	if v := os.Getenv("BROKER_USERNAME"); v != "" {
		cfg.Broker.Username = v
	}
	if v := os.Getenv("BROKER_PASSWORD"); v != "" {
		cfg.Broker.Password = v
	}
	if v := os.Getenv("BROKER_TRADING_PIN"); v != "" {
		cfg.Broker.TradingPIN = v
	}
	if v := os.Getenv("BROKER_TOTP_SECRET"); v != "" {
		cfg.Broker.TOTPSecret = v
	}
	if v := os.Getenv("KITE_API_KEY"); v != "" {
		cfg.Broker.Kite.APIKey = v
	}
	if v := os.Getenv("KITE_API_SECRET"); v != "" {
		cfg.Broker.Kite.APISecret = v
	}
	if v := os.Getenv("DRY_RUN"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Trading.DryRun = b
		}
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Dedup.RedisAddr = v
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Notify.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Notify.Telegram.ChatID = v
	}
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Trading.Notional < 0 {
		return fmt.Errorf("trading.notional cannot be negative")
	}
	if c.Trading.TargetDelta < 0 || c.Trading.TargetDelta > 1 {
		return fmt.Errorf("trading.target_delta must be within [0, 1]")
	}
	if c.Trading.MaxDTE < 0 {
		return fmt.Errorf("trading.max_dte cannot be negative")
	}
	if c.Dedup.TTL < 0 {
		return fmt.Errorf("dedup.ttl cannot be negative")
	}
	return nil
}
