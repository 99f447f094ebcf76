// Package config loads the livepipe configuration file.
package config

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/pkg/errors"

	"github.com/askiada/go-livepipe/internal/coordinator"
)

const (
	DefaultListen = "127.0.0.1:8080"
	DefaultFeed   = "stdin"
)

// Persist kinds.
const (
	PersistNone   = "none"
	PersistMemory = "memory"
	PersistHTTP   = "http"
	PersistBadger = "badger"
)

var ErrInvalid = errors.New("invalid configuration")

// Config is the content of the configuration file.
type Config struct {
	Listen   string  `yaml:"listen,omitempty"`
	Debounce string  `yaml:"debounce,omitempty"`
	Feed     string  `yaml:"feed,omitempty"`
	Program  string  `yaml:"program,omitempty"`
	LogLevel string  `yaml:"log_level,omitempty"`
	Report   bool    `yaml:"report,omitempty"`
	Persist  Persist `yaml:"persist,omitempty"`
}

// Persist selects where program edits are saved.
type Persist struct {
	Kind    string `yaml:"kind,omitempty"`
	URL     string `yaml:"url,omitempty"`
	Dir     string `yaml:"dir,omitempty"`
	Session string `yaml:"session,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Listen:   DefaultListen,
		Debounce: coordinator.DefaultDebounce.String(),
		Feed:     DefaultFeed,
		LogLevel: "info",
		Persist:  Persist{Kind: PersistMemory},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read config")
	}

	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "unable to parse config")
	}

	return cfg, nil
}

// Save writes the configuration to path.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "unable to marshal config")
	}

	err = os.WriteFile(path, data, 0o600)
	if err != nil {
		return errors.Wrap(err, "unable to write config")
	}

	return nil
}

// DebounceDuration parses Debounce. An empty value is coordinator.DefaultDebounce.
func (c *Config) DebounceDuration() (time.Duration, error) {
	if c.Debounce == "" {
		return coordinator.DefaultDebounce, nil
	}

	d, err := time.ParseDuration(c.Debounce)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalid, "debounce %q: %v", c.Debounce, err)
	}

	if d < 0 {
		return 0, errors.Wrapf(ErrInvalid, "debounce %q is negative", c.Debounce)
	}

	return d, nil
}

// Level parses LogLevel. An empty value is info.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level

	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}

	err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel)))
	if err != nil {
		return 0, errors.Wrapf(ErrInvalid, "log level %q", c.LogLevel)
	}

	return level, nil
}

// Validate checks every field.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return errors.Wrap(ErrInvalid, "listen address is required")
	}

	_, err := c.DebounceDuration()
	if err != nil {
		return err
	}

	_, err = c.Level()
	if err != nil {
		return err
	}

	switch c.Persist.Kind {
	case "", PersistNone, PersistMemory:
	case PersistHTTP:
		if c.Persist.URL == "" {
			return errors.Wrap(ErrInvalid, "persist url is required for http")
		}
	case PersistBadger:
		if c.Persist.Dir == "" {
			return errors.Wrap(ErrInvalid, "persist dir is required for badger")
		}
	default:
		return errors.Wrapf(ErrInvalid, "unknown persist kind %q", c.Persist.Kind)
	}

	return nil
}
