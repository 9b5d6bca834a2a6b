// Package config loads the YAML configuration and its environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/eliteGoblin/focusd/neuguard/internal/infra"
	"github.com/eliteGoblin/focusd/neuguard/internal/policy"
)

// Environment variables that override the file.
const (
	EnvWebhookURL = "NEU_WEBHOOK_URL"
	EnvHostsPath  = "NEU_HOSTS_PATH"
	EnvDataDir    = "NEU_DATA_DIR"
)

// Config is the on-disk configuration.
type Config struct {
	WebhookURL        string        `yaml:"webhook_url,omitempty"`
	BlockedApps       []string      `yaml:"blocked_apps,omitempty"`
	BlockedDomains    []string      `yaml:"blocked_domains,omitempty"`
	WebsiteCategories []string      `yaml:"website_categories,omitempty"`
	HostsPath         string        `yaml:"hosts_path,omitempty"`
	ProcessCacheTTL   time.Duration `yaml:"process_cache_ttl,omitempty"`
	NotifyInterval    time.Duration `yaml:"notify_interval,omitempty"`
	ScanInterval      time.Duration `yaml:"scan_interval,omitempty"`
	WarnCooldown      time.Duration `yaml:"warn_cooldown,omitempty"`
	LogFile           string        `yaml:"log_file,omitempty"`
	DataDir           string        `yaml:"data_dir,omitempty"`
	Rules             []policy.Rule `yaml:"rules,omitempty"`
}

// DefaultPath is the config file used when --config is not given.
func DefaultPath() string {
	return infra.DetectExecMode().ConfigPath
}

// Default returns a configuration with every default applied.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads path, then applies .env and process environment overrides.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	return LoadWithEnv(path, os.LookupEnv)
}

// LoadFile reads path exactly as written: no environment overrides and no
// defaults. Use it to edit and Save the file without persisting either.
// A missing file yields an empty Config.
func LoadFile(path string) (*Config, error) {
	var c Config

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return &c, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	for _, r := range c.Rules {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	return &c, nil
}

// LoadWithEnv is Load with an injectable environment (for testing).
func LoadWithEnv(path string, lookup func(string) (string, bool)) (*Config, error) {
	c, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	dotenv, err := readDotEnv(filepath.Join(filepath.Dir(path), ".env"))
	if err != nil {
		return nil, err
	}
	env := func(key string) (string, bool) {
		if v, ok := lookup(key); ok && v != "" {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok && v != ""
	}
	if v, ok := env(EnvWebhookURL); ok {
		c.WebhookURL = v
	}
	if v, ok := env(EnvHostsPath); ok {
		c.HostsPath = v
	}
	if v, ok := env(EnvDataDir); ok {
		c.DataDir = v
	}

	c.applyDefaults()
	return c, nil
}

func readDotEnv(path string) (map[string]string, error) {
	values, err := godotenv.Read(path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return values, nil
}

func (c *Config) applyDefaults() {
	c.applyModeDefaults(infra.DetectExecMode())
	if c.ProcessCacheTTL <= 0 {
		c.ProcessCacheTTL = policy.DefaultProcessCacheTTL
	}
	if c.NotifyInterval <= 0 {
		c.NotifyInterval = infra.DefaultNotifyInterval
	}
	if c.ScanInterval <= 0 {
		c.ScanInterval = policy.DefaultScanInterval
	}
	if c.WarnCooldown <= 0 {
		c.WarnCooldown = policy.DefaultWarnCooldown
	}
}

// applyModeDefaults fills the paths from mode. The log file follows a
// custom data_dir and otherwise uses the mode's log path.
func (c *Config) applyModeDefaults(mode *infra.ExecModeConfig) {
	if c.HostsPath == "" {
		c.HostsPath = mode.HostsPath
	}
	if c.LogFile == "" {
		if c.DataDir == "" {
			c.LogFile = mode.LogPath
		} else {
			c.LogFile = filepath.Join(c.DataDir, "neuguard.log")
		}
	}
	if c.DataDir == "" {
		c.DataDir = mode.DataDir
	}
}

// Update applies edit to the file at path as LoadFile reads it and saves
// the result, so neither environment overrides nor defaults are written.
func Update(path string, edit func(*Config) error) error {
	c, err := LoadFile(path)
	if err != nil {
		return err
	}
	if err := edit(c); err != nil {
		return err
	}
	return c.Save(path)
}

// Save writes c to path as YAML, creating the directory.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
