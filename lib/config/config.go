// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"slices"

	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the config file when --config is absent.
const EnvironmentVariable = "CRF_CONFIG"

// Config is the configuration for the crf command.
type Config struct {
	// Compression configures how new entries are stored.
	Compression CompressionConfig `yaml:"compression"`

	// Paths configures scratch locations.
	Paths PathsConfig `yaml:"paths"`

	// Log configures the command's structured logger.
	Log LogConfig `yaml:"log"`

	// Seed names default key material. Command-line flags take
	// precedence.
	Seed SeedConfig `yaml:"seed"`

	// Mount configures `crf mount`.
	Mount MountConfig `yaml:"mount"`
}

// CompressionConfig configures payload compression.
type CompressionConfig struct {
	// Level is the gzip level, -2 (Huffman only) to 9 (best). 0
	// selects the library default.
	// Default: 0
	Level int `yaml:"level"`
}

// PathsConfig configures directory locations.
type PathsConfig struct {
	// TempDir holds per-entry scratch files during writes. Empty
	// means the system temp directory.
	TempDir string `yaml:"temp_dir"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	// Default: info
	Level string `yaml:"level"`

	// Format is one of auto, text, json. auto picks text when stderr
	// is a terminal and json otherwise.
	// Default: auto
	Format string `yaml:"format"`
}

// SeedConfig names default key material for enciphered archives.
type SeedConfig struct {
	// File holds the raw seed bytes.
	File string `yaml:"file"`

	// AgeFile holds the seed encrypted with age. Requires
	// IdentityFile.
	AgeFile string `yaml:"age_file"`

	// IdentityFile holds the age identity that decrypts AgeFile.
	IdentityFile string `yaml:"identity_file"`
}

// MountConfig configures the FUSE view.
type MountConfig struct {
	// AllowOther lets users other than the mounter read the mount.
	// Requires user_allow_other in /etc/fuse.conf.
	// Default: false
	AllowOther bool `yaml:"allow_other"`
}

// Default returns the default configuration. These values apply when
// no config file is given and fill fields a config file omits.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// Load loads configuration from the file named by CRF_CONFIG. If the
// variable is unset, Load returns [Default] values: the command is
// usable without any configuration.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		return Default(), nil
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path. The file is
// required to exist.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.expandVariables()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in path
// fields.
func (c *Config) expandVariables() {
	c.Paths.TempDir = expandVars(c.Paths.TempDir)
	c.Seed.File = expandVars(c.Seed.File)
	c.Seed.AgeFile = expandVars(c.Seed.AgeFile)
	c.Seed.IdentityFile = expandVars(c.Seed.IdentityFile)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		if len(parts) >= 3 {
			return parts[2]
		}
		return ""
	})
}

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"auto", "text", "json"}
)

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Compression.Level < -2 || c.Compression.Level > 9 {
		errs = append(errs, fmt.Errorf("compression.level must be between -2 and 9, got %d", c.Compression.Level))
	}
	if !slices.Contains(logLevels, c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level must be one of: %v", logLevels))
	}
	if !slices.Contains(logFormats, c.Log.Format) {
		errs = append(errs, fmt.Errorf("log.format must be one of: %v", logFormats))
	}
	if c.Seed.AgeFile != "" && c.Seed.IdentityFile == "" {
		errs = append(errs, fmt.Errorf("seed.age_file requires seed.identity_file"))
	}
	if c.Seed.File != "" && c.Seed.AgeFile != "" {
		errs = append(errs, fmt.Errorf("seed.file and seed.age_file are mutually exclusive"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// SlogLevel returns Log.Level as a slog.Level. Unknown values map to
// Info; Validate rejects them earlier.
func (c *Config) SlogLevel() slog.Level {
	switch c.Log.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
