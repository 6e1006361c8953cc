package config

import (
	"time"

	"fabricview/internal/classify"
)

// Config is the root configuration structure
type Config struct {
	Version        int           `yaml:"version" toml:"version"`
	Listen         string        `yaml:"listen" toml:"listen"`
	DatasetDir     string        `yaml:"dataset_dir" toml:"dataset_dir"`
	Datasets       []Dataset     `yaml:"datasets" toml:"datasets"`
	DefaultDataset string        `yaml:"default_dataset,omitempty" toml:"default_dataset"`
	TickInterval   Duration      `yaml:"tick_interval" toml:"tick_interval"`
	Icons          IconsConfig   `yaml:"icons" toml:"icons"`
	Layout         LayoutConfig  `yaml:"layout" toml:"layout"`
	Devices        DevicesConfig `yaml:"devices" toml:"devices"`
	NodeNameMap    string        `yaml:"node_name_map,omitempty" toml:"node_name_map"`
	Fetch          FetchConfig   `yaml:"fetch" toml:"fetch"`
	Watch          WatchConfig   `yaml:"watch" toml:"watch"`
}

// Dataset is one entry of the dataset selector
type Dataset struct {
	Label  string `yaml:"label" toml:"label" json:"label"`
	Source string `yaml:"source" toml:"source" json:"source"`
}

// IconsConfig holds the node icon rule table
type IconsConfig struct {
	Switch string              `yaml:"switch" toml:"switch"`
	Router string              `yaml:"router" toml:"router"`
	Rules  []classify.RuleSpec `yaml:"rules,omitempty" toml:"rules"`
}

// LayoutConfig holds force simulation parameters
type LayoutConfig struct {
	Width          float64 `yaml:"width" toml:"width"`
	Height         float64 `yaml:"height" toml:"height"`
	LinkDistance   float64 `yaml:"link_distance" toml:"link_distance"`
	ChargeStrength float64 `yaml:"charge_strength" toml:"charge_strength"`
	Seed           int64   `yaml:"seed" toml:"seed"`
}

// DevicesConfig holds device catalogue settings
type DevicesConfig struct {
	// Database is a SQLite catalogue; empty uses the built-in table
	Database      string   `yaml:"database,omitempty" toml:"database"`
	LookupTimeout Duration `yaml:"lookup_timeout" toml:"lookup_timeout"`
}

// FetchConfig holds topology fetch settings
type FetchConfig struct {
	Timeout Duration  `yaml:"timeout" toml:"timeout"`
	SSH     SSHConfig `yaml:"ssh" toml:"ssh"`
}

// SSHConfig holds references to ssh credentials (paths, not values).
// Passwords and passphrases come from the environment only.
type SSHConfig struct {
	User           string `yaml:"user,omitempty" toml:"user"`
	KeyPath        string `yaml:"key_path,omitempty" toml:"key_path"`
	KnownHostsPath string `yaml:"known_hosts_path,omitempty" toml:"known_hosts_path"`

	Password   string `yaml:"-" toml:"-"`
	Passphrase string `yaml:"-" toml:"-"`
}

// Enabled reports whether any ssh credential is configured
func (s SSHConfig) Enabled() bool {
	return s.KeyPath != "" || s.Password != ""
}

// WatchConfig controls reloading datasets when their files change
type WatchConfig struct {
	Enabled  bool     `yaml:"enabled" toml:"enabled"`
	Debounce Duration `yaml:"debounce" toml:"debounce"`

	// PollInterval re-fetches remote datasets; zero disables polling
	PollInterval Duration `yaml:"poll_interval,omitempty" toml:"poll_interval"`
}

// Duration wraps time.Duration for YAML and TOML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
