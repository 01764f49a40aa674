package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/wesleywu/winroute/internal/routing/batch"
	"github.com/wesleywu/winroute/internal/routing/entities"
)

// Config represents the configuration for the winroute CLI
type Config struct {
	LogLevel    string `toml:"log_level" validate:"required,log_level"`
	Family      string `toml:"family" validate:"omitempty,oneof=all any 4 6 ipv4 ipv6 inet inet6"`
	JSONOutput  bool   `toml:"json"`
	Concurrency int    `toml:"concurrency" validate:"min=1,max=256"`

	// Monitor prints a stats line every StatsEvery poll cycles; 0 disables it.
	StatsEvery int `toml:"stats_every" validate:"min=0"`

	path string
}

// NewConfig creates a new config with default values
func NewConfig() *Config {
	return &Config{
		LogLevel:    "info",
		Family:      "all",
		Concurrency: batch.DefaultConcurrency,
	}
}

// LoadConfig overlays the TOML file at path onto the defaults. An empty or
// missing path yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := NewConfig()
	if path == "" {
		return cfg, nil
	}

	file := filepath.Clean(path)
	content, err := os.ReadFile(file)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := toml.Unmarshal(content, cfg); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("failed to parse config file %s at line %d, column %d: %w", file, row, col, err)
		}
		return nil, fmt.Errorf("failed to parse config file %s: %w", file, err)
	}
	cfg.path = file

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Path returns the file the config was read from, or "" for defaults
func (c *Config) Path() string {
	return c.path
}

// AddressFamily returns the parsed Family setting
func (c *Config) AddressFamily() entities.Family {
	f, err := entities.ParseFamily(c.Family)
	if err != nil {
		return entities.FamilyAll
	}
	return f
}

// Validate checks every field and returns all problems as ValidationErrors
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return convertValidatorErrors(err, "")
	}
	return nil
}
