// Package config provides configuration management for fabricview.
//
// Config file locations (priority order):
//  1. $FABRICVIEW_CONFIG
//  2. ./fabricview.yaml
//  3. ~/.config/fabricview/config.yaml
//  4. /etc/fabricview/config.yaml
//
// Files ending in .toml are parsed as TOML, everything else as YAML.
// FABRICVIEW_* environment variables override file values, and a .env file
// in the working directory is loaded into the environment first.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"fabricview/internal/classify"
	"fabricview/internal/layout"
)

// Environment overrides
const (
	EnvListen         = "FABRICVIEW_LISTEN"
	EnvDatasetDir     = "FABRICVIEW_DATASET_DIR"
	EnvDefaultDataset = "FABRICVIEW_DEFAULT_DATASET"
	EnvDevicesDB      = "FABRICVIEW_DEVICES_DB"
	EnvNodeNameMap    = "FABRICVIEW_NODE_NAME_MAP"
	EnvSSHUser        = "FABRICVIEW_SSH_USER"
	EnvSSHKey         = "FABRICVIEW_SSH_KEY"
	EnvSSHPassword    = "FABRICVIEW_SSH_PASSWORD"
	EnvSSHPassphrase  = "FABRICVIEW_SSH_PASSPHRASE"
)

// LoadEnv loads a .env file into the environment if one exists
func LoadEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		cfg := DefaultConfig()
		cfg.applyEnv()
		return cfg, "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, path, fmt.Errorf("parse config: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, path, fmt.Errorf("parse config: %w", err)
		}
	}

	// Relative dataset directories are relative to the config file
	if cfg.DatasetDir != "" && !filepath.IsAbs(cfg.DatasetDir) {
		cfg.DatasetDir = filepath.Join(filepath.Dir(path), cfg.DatasetDir)
	}

	cfg.applyDefaults()
	cfg.applyEnv()

	return &cfg, path, nil
}

// Save writes config to the specified path as YAML
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.DatasetDir == "" {
		c.DatasetDir = "."
	}
	if c.TickInterval == 0 {
		c.TickInterval = Duration(16 * time.Millisecond)
	}

	if c.Icons.Switch == "" {
		c.Icons.Switch = classify.IconSwitch
	}
	if c.Icons.Router == "" {
		c.Icons.Router = classify.IconRouter
	}
	if len(c.Icons.Rules) == 0 {
		c.Icons.Rules = classify.DefaultRules()
	}

	def := layout.DefaultConfig()
	if c.Layout.Width == 0 {
		c.Layout.Width = def.Width
	}
	if c.Layout.Height == 0 {
		c.Layout.Height = def.Height
	}
	if c.Layout.LinkDistance == 0 {
		c.Layout.LinkDistance = def.LinkDistance
	}
	if c.Layout.ChargeStrength == 0 {
		c.Layout.ChargeStrength = def.ChargeStrength
	}
	if c.Layout.Seed == 0 {
		c.Layout.Seed = def.Seed
	}

	if c.Devices.LookupTimeout == 0 {
		c.Devices.LookupTimeout = Duration(2 * time.Second)
	}
	if c.Fetch.Timeout == 0 {
		c.Fetch.Timeout = Duration(30 * time.Second)
	}
	if c.Watch.Debounce == 0 {
		c.Watch.Debounce = Duration(500 * time.Millisecond)
	}
}

// applyEnv overrides values from FABRICVIEW_* variables
func (c *Config) applyEnv() {
	set := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	set(EnvListen, &c.Listen)
	set(EnvDatasetDir, &c.DatasetDir)
	set(EnvDefaultDataset, &c.DefaultDataset)
	set(EnvDevicesDB, &c.Devices.Database)
	set(EnvNodeNameMap, &c.NodeNameMap)
	set(EnvSSHUser, &c.Fetch.SSH.User)
	set(EnvSSHKey, &c.Fetch.SSH.KeyPath)
	set(EnvSSHPassword, &c.Fetch.SSH.Password)
	set(EnvSSHPassphrase, &c.Fetch.SSH.Passphrase)
}

// Validate checks the dataset catalogue and icon rules
func (c *Config) Validate() error {
	seen := make(map[string]struct{}, len(c.Datasets))
	for i, ds := range c.Datasets {
		if ds.Label == "" {
			return fmt.Errorf("dataset %d: empty label", i)
		}
		if ds.Source == "" {
			return fmt.Errorf("dataset %q: empty source", ds.Label)
		}
		if _, ok := seen[ds.Label]; ok {
			return fmt.Errorf("dataset %q: duplicate label", ds.Label)
		}
		seen[ds.Label] = struct{}{}
	}

	if _, err := c.Classifier(); err != nil {
		return err
	}

	return nil
}

// Classifier builds the node classifier from the icon rule table
func (c *Config) Classifier() (*classify.Classifier, error) {
	rules, err := classify.Compile(c.Icons.Rules)
	if err != nil {
		return nil, fmt.Errorf("icons: %w", err)
	}
	cl, err := classify.New(c.Icons.Switch, c.Icons.Router, rules)
	if err != nil {
		return nil, fmt.Errorf("icons: %w", err)
	}
	return cl, nil
}

// LayoutConfig returns the simulation parameters
func (c *Config) LayoutConfig() layout.Config {
	return layout.Config{
		Width:          c.Layout.Width,
		Height:         c.Layout.Height,
		LinkDistance:   c.Layout.LinkDistance,
		ChargeStrength: c.Layout.ChargeStrength,
		Seed:           c.Layout.Seed,
	}
}

// ResolveDataset maps a catalogue label to its source. Anything that is
// not a label is returned unchanged, so raw sources are accepted too.
func (c *Config) ResolveDataset(labelOrSource string) string {
	for _, ds := range c.Datasets {
		if ds.Label == labelOrSource {
			return ds.Source
		}
	}
	return labelOrSource
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	summary := fmt.Sprintf("Listen: %s, Dataset dir: %s\n", c.Listen, c.DatasetDir)
	summary += fmt.Sprintf("Datasets (%d):", len(c.Datasets))
	for _, ds := range c.Datasets {
		summary += fmt.Sprintf(" %s", ds.Label)
	}
	if c.DefaultDataset != "" {
		summary += fmt.Sprintf("\nDefault: %s", c.DefaultDataset)
	}
	return summary
}
