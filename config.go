// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package shadowpaste

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/poiesic/shadowpaste/ai"
	"github.com/poiesic/shadowpaste/clipboard"
	"github.com/poiesic/shadowpaste/reembed"
	"github.com/poiesic/shadowpaste/search"
	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
)

// Clipboard platforms.
const (
	PlatformNative = "native"
	PlatformPoll   = "poll"
)

const appName = "shadowpaste"

// StorageConfig selects where history is kept.
type StorageConfig struct {
	// Backend is "sqlite" (a single file) or "badger" (a directory).
	Backend string `yaml:"backend"`

	// Path is the database file or directory. Empty picks a default
	// under the data directory.
	Path string `yaml:"path"`
}

// MonitorConfig tunes clipboard capture.
type MonitorConfig struct {
	Platform      string        `yaml:"platform"`
	SettleDelay   time.Duration `yaml:"settle_delay"`
	VerifyRetries int           `yaml:"verify_retries"`
	VerifyBackoff time.Duration `yaml:"verify_backoff"`
	PollInterval  time.Duration `yaml:"poll_interval"`
}

// Config is the application configuration, usually read from
// <user config dir>/shadowpaste/config.yaml.
type Config struct {
	Storage   StorageConfig  `yaml:"storage"`
	Embedding ai.Config      `yaml:"embedding"`
	Monitor   MonitorConfig  `yaml:"monitor"`
	Ranking   search.Config  `yaml:"ranking"`
	Reembed   reembed.Config `yaml:"reembed"`

	// PoolSize bounds concurrent embedding work. 0 uses the service default.
	PoolSize int `yaml:"pool_size"`

	// CacheSize is the number of memoised vectors.
	CacheSize int `yaml:"cache_size"`
}

// DataDir returns the directory holding the config file and the default
// database. It falls back to the working directory when the user config
// directory is unknown.
func DataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return appName
	}
	return filepath.Join(dir, appName)
}

// DefaultConfigPath returns the default config file location.
func DefaultConfigPath() string {
	return filepath.Join(DataDir(), "config.yaml")
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Storage:   StorageConfig{Backend: BackendSQLite},
		Embedding: *ai.DefaultConfig(),
		Monitor: MonitorConfig{
			Platform:      PlatformNative,
			SettleDelay:   clipboard.DefaultSettleDelay,
			VerifyRetries: clipboard.DefaultVerifyRetries,
			VerifyBackoff: clipboard.DefaultVerifyBackoff,
			PollInterval:  clipboard.DefaultPollInterval,
		},
		Ranking:   search.DefaultConfig(),
		Reembed:   *reembed.DefaultConfig(),
		CacheSize: 512,
	}
}

// LoadConfig reads path over the defaults. A missing file yields the
// defaults. An empty path means DefaultConfigPath.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigPath()
	}
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, cfg.Validate()
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Normalize lowercases enum fields and fills default paths.
func (c *Config) Normalize() {
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if c.Storage.Backend == "" {
		c.Storage.Backend = BackendSQLite
	}
	if c.Storage.Path == "" {
		switch c.Storage.Backend {
		case BackendBadger:
			c.Storage.Path = filepath.Join(DataDir(), "history")
		default:
			c.Storage.Path = filepath.Join(DataDir(), "history.db")
		}
	}
	c.Monitor.Platform = strings.ToLower(strings.TrimSpace(c.Monitor.Platform))
	if c.Monitor.Platform == "" {
		c.Monitor.Platform = PlatformNative
	}
	c.Embedding.Normalize()
}

// Validate normalizes the configuration and checks it.
func (c *Config) Validate() error {
	c.Normalize()

	switch c.Storage.Backend {
	case BackendSQLite, BackendBadger:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Storage.Backend)
	}
	switch c.Monitor.Platform {
	case PlatformNative, PlatformPoll:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownPlatform, c.Monitor.Platform)
	}
	if c.Monitor.SettleDelay < 0 || c.Monitor.VerifyBackoff < 0 || c.Monitor.VerifyRetries < 0 {
		return errors.New("config: monitor delays and retries must be non-negative")
	}
	if c.Ranking.MatchBonus < search.MinMatchBonus {
		return fmt.Errorf("config: ranking.match_bonus must be at least %g", search.MinMatchBonus)
	}
	if c.Ranking.ImageScale < 0 {
		return errors.New("config: ranking.image_scale must be non-negative")
	}
	return c.Embedding.Validate()
}
