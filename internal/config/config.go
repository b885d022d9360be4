// Package config loads and persists application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"
)

// FeedVersion is a caller preference for which OPDS generation to parse
type FeedVersion string

const (
	VersionAuto  FeedVersion = "auto"
	VersionOPDS1 FeedVersion = "1"
	VersionOPDS2 FeedVersion = "2"
)

// CatalogConfig is one named remote catalog
type CatalogConfig struct {
	Name    string `mapstructure:"name"`
	URL     string `mapstructure:"url"`
	Version string `mapstructure:"version"` // "auto", "1" or "2"
}

// FeedVersion normalizes the configured version string; anything
// unrecognized falls back to auto-detection.
func (c CatalogConfig) FeedVersion() FeedVersion {
	switch c.Version {
	case string(VersionOPDS1):
		return VersionOPDS1
	case string(VersionOPDS2):
		return VersionOPDS2
	default:
		return VersionAuto
	}
}

// TransportConfig holds fetch behavior settings
type TransportConfig struct {
	// RelayEndpoint is the CORS relay prefix; the blocked URL is appended
	// query-escaped. Empty disables the fallback.
	RelayEndpoint string `mapstructure:"relay_endpoint"`

	// ForceV1Suffixes lists host suffixes always requested as OPDS 1.
	// Merged with the built-in vendor override table.
	ForceV1Suffixes []string `mapstructure:"force_v1_suffixes"`
}

// UIConfig holds browse UI preferences
type UIConfig struct {
	Mode string `mapstructure:"mode"` // "subject" lanes or "flat"
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// Config holds all application configuration
type Config struct {
	Catalogs  []CatalogConfig `mapstructure:"catalogs"`
	Transport TransportConfig `mapstructure:"transport"`
	UI        UIConfig        `mapstructure:"ui"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// DefaultRelayEndpoint mirrors a GET request with permissive cross-origin
// headers. Externally owned; treated as a black box.
const DefaultRelayEndpoint = "https://api.allorigins.win/raw?url="

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Transport: TransportConfig{
			RelayEndpoint: DefaultRelayEndpoint,
		},
		UI: UIConfig{
			Mode: "subject",
		},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
	}
}

// Catalog looks up a configured catalog by name
func (c *Config) Catalog(name string) (CatalogConfig, bool) {
	for _, cat := range c.Catalogs {
		if cat.Name == name {
			return cat, true
		}
	}
	return CatalogConfig{}, false
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "stanza", "stanza.log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "stanza", "stanza.log")
	}
}

// defaultConfigPath returns the default config directory for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "stanza")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "stanza")
	}
}

// DataDir returns the directory for the local key/value store
func DataDir() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "stanza")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "stanza")
	}
}

// Load loads configuration from file and environment
func Load() (*Config, error) {
	cfg := Default()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(defaultConfigPath())
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("STANZA")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the default config file
func Save(cfg *Config) error {
	configPath := defaultConfigPath()
	if err := os.MkdirAll(configPath, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Set fields individually to ensure correct key names (snake_case)
	viper.Set("catalogs", cfg.Catalogs)
	viper.Set("transport.relay_endpoint", cfg.Transport.RelayEndpoint)
	viper.Set("transport.force_v1_suffixes", cfg.Transport.ForceV1Suffixes)
	viper.Set("ui.mode", cfg.UI.Mode)
	viper.Set("logging.file", cfg.Logging.File)
	viper.Set("logging.level", cfg.Logging.Level)

	configFile := filepath.Join(configPath, "config.yaml")
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
