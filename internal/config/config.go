// Package config loads application configuration: defaults in code, an
// optional config file in the keepsake directory, KEEPSAKE_* env
// overrides on top.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	DefaultHost       = "127.0.0.1"
	DefaultPort       = 18750
	DefaultNotifyHour = 9
	DefaultModel      = "claude-sonnet-4-5"
)

type Config struct {
	// Workspace is where the event store, pending notifications and
	// logs live.
	Workspace string `mapstructure:"workspace"`
	Debug     bool   `mapstructure:"debug"`

	Notify   NotifyConfig   `mapstructure:"notify"`
	RPC      RPCConfig      `mapstructure:"rpc"`
	Provider ProviderConfig `mapstructure:"provider"`
}

// NotifyConfig controls notification firing and delivery.
type NotifyConfig struct {
	// Hour is the local time-of-day notifications fire at.
	Hour int `mapstructure:"hour"`
	// Telegram delivery; when Token is empty, fired notifications go
	// to the log instead.
	TelegramToken  string `mapstructure:"telegramToken"`
	TelegramChatID int64  `mapstructure:"telegramChatId"`
}

// RPCConfig is the daemon's WebSocket control endpoint.
type RPCConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// ProviderConfig configures the external text-generation service used
// for gift ideas.
type ProviderConfig struct {
	APIKey string `mapstructure:"apiKey"`
	Model  string `mapstructure:"model"`
}

// Dir returns the keepsake directory (~/.keepsake).
func Dir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".keepsake")
}

// Load reads config.yaml from the keepsake directory if present and
// applies env overrides. A missing config file is not an error.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(Dir())

	v.SetDefault("workspace", filepath.Join(Dir(), "workspace"))
	v.SetDefault("debug", false)
	v.SetDefault("notify.hour", DefaultNotifyHour)
	v.SetDefault("rpc.host", DefaultHost)
	v.SetDefault("rpc.port", DefaultPort)
	v.SetDefault("provider.model", DefaultModel)

	v.SetEnvPrefix("KEEPSAKE")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Env fallbacks outside the KEEPSAKE_ prefix.
	if cfg.Provider.APIKey == "" {
		cfg.Provider.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if tok := os.Getenv("KEEPSAKE_TELEGRAM_TOKEN"); tok != "" {
		cfg.Notify.TelegramToken = tok
	}
	if cfg.Workspace == "" {
		cfg.Workspace = filepath.Join(Dir(), "workspace")
	}

	return &cfg, nil
}

// RPCAddr is the host:port the daemon listens on.
func (c *Config) RPCAddr() string {
	return fmt.Sprintf("%s:%d", c.RPC.Host, c.RPC.Port)
}
