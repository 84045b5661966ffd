package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/notewire/notewire/pkg/notes"
)

// Duration is a time.Duration that unmarshals from YAML strings like "2h".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the standard library representation.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the full server configuration.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen"`

	// Store selects and configures the note backend.
	Store notes.Config `yaml:"store"`

	// SessionTTL is how long a login stays valid.
	SessionTTL Duration `yaml:"session_ttl"`

	Log LogConfig `yaml:"log"`
}

// LogConfig controls log output.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// JSON switches from console output to structured JSON.
	JSON bool `yaml:"json"`
}

// Default returns the configuration used when no file is given: an
// in-memory store on the classic development port.
func Default() *Config {
	return &Config{
		Listen:     ":3000",
		Store:      notes.Config{Backend: notes.BackendMemory},
		SessionTTL: Duration(24 * time.Hour),
		Log:        LogConfig{Level: "info"},
	}
}

// Load reads a YAML config file, filling unset fields from Default.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the server could not start with.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address is required")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session_ttl must be positive")
	}

	switch c.Store.Backend {
	case notes.BackendMemory:
	case notes.BackendFilesystem:
		if c.Store.Root == "" {
			return fmt.Errorf("store.root is required for the filesystem backend")
		}
	case notes.BackendSQLite:
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required for the sqlite backend")
		}
	case notes.BackendBolt:
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for the bolt backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	return nil
}
