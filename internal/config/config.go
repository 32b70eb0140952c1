package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	API        APIConfig
	Storefront StorefrontConfig
	Logging    LoggingConfig
	UI         UIConfig
}

// APIConfig points at the TradeWire backend.
type APIConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// StorefrontConfig points at the purchase platform and its trust anchor.
type StorefrontConfig struct {
	BaseURL      string `mapstructure:"base_url"`
	TrustKeyFile string `mapstructure:"trust_key_file"`
}

// LoggingConfig controls the debug log. The TUI owns stdout, so the log
// always goes to a file.
type LoggingConfig struct {
	Level string
	File  string
}

// UIConfig holds presentation settings.
type UIConfig struct {
	DateFormat string `mapstructure:"date_format"`
}

// Load reads configuration from file and env. Env var overrides use prefix
// TRADEWIRE_.
func Load() (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("api.base_url", "https://api.tradewire.app")
	v.SetDefault("storefront.base_url", "https://store.tradewire.app")
	v.SetDefault("storefront.trust_key_file", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", filepath.Join(os.Getenv("HOME"), ".local", "state", "tradewire", "tradewire.log"))
	v.SetDefault("ui.date_format", "2006-01-02")

	v.SetConfigType("toml")

	cfgPath := os.Getenv("TRADEWIRE_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "tradewire"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("TRADEWIRE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}
