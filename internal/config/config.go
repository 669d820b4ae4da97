// Package config loads supportdesk settings from ~/.supportdesk.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// TokenEnv overrides AdminToken when set.
const TokenEnv = "SUPPORTDESK_TOKEN"

// Config holds daemon and client settings.
type Config struct {
	// Listen is the address the API server binds to.
	Listen string `yaml:"listen" toml:"listen"`
	// DBPath is the SQLite database file.
	DBPath string `yaml:"db_path" toml:"db_path"`
	// APIAddr is the base URL clients use to reach the API.
	APIAddr string `yaml:"api_addr" toml:"api_addr"`
	// PageSize is the number of task rows per page.
	PageSize int `yaml:"page_size" toml:"page_size"`
	// AdminToken guards the representative and customer endpoints. Empty disables the check.
	AdminToken string `yaml:"admin_token" toml:"admin_token"`
	// EventPingSec is the websocket keepalive interval.
	EventPingSec int `yaml:"event_ping_sec" toml:"event_ping_sec"`
}

// Dir returns ~/.supportdesk, or .supportdesk when the home directory is unknown.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".supportdesk"
	}
	return filepath.Join(home, ".supportdesk")
}

// DefaultPath is the config file used when none is given.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Default returns a configuration suitable for a single local user.
func Default() *Config {
	return &Config{
		Listen:       "127.0.0.1:7480",
		DBPath:       filepath.Join(Dir(), "supportdesk.db"),
		APIAddr:      "http://127.0.0.1:7480",
		PageSize:     10,
		EventPingSec: 30,
	}
}

// Load reads the config at path. A missing file yields the defaults. Files
// ending in .toml are decoded as TOML, everything else as YAML.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	} else if isTOML(path) {
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if token := os.Getenv(TokenEnv); token != "" {
		cfg.AdminToken = token
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Save writes cfg to path, creating parent directories if needed.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	var data []byte
	if isTOML(path) {
		var b strings.Builder
		if err := toml.NewEncoder(&b).Encode(cfg); err != nil {
			return fmt.Errorf("marshaling config: %w", err)
		}
		data = []byte(b.String())
	} else {
		var err error
		data, err = yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("marshaling config: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Listen) == "" {
		return fmt.Errorf("listen address must not be empty")
	}
	if c.PageSize < 1 || c.PageSize > 100 {
		return fmt.Errorf("page_size must be between 1 and 100, got %d", c.PageSize)
	}
	if c.EventPingSec < 0 {
		return fmt.Errorf("event_ping_sec must not be negative")
	}
	return nil
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}
