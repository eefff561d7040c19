// Package config handles hd.toml interpreter configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap/zapcore"
)

// FileName is the configuration file FindAndLoad looks for.
const FileName = "hd.toml"

var ErrInvalid = errors.New("invalid configuration")

// Config represents an hd.toml file.
type Config struct {
	Log    Log    `toml:"log"`
	VM     VM     `toml:"vm"`
	Disasm Disasm `toml:"disasm"`

	// Path is the file the configuration was read from (set at load time).
	Path string `toml:"-"`
}

// Log configures the zap logger.
type Log struct {
	Level       string `toml:"level"`
	Development bool   `toml:"development"`
}

// VM configures execution limits and tracing.
type VM struct {
	MaxStack int  `toml:"max_stack"`
	Trace    bool `toml:"trace"`
}

// Disasm controls bytecode listings.
type Disasm struct {
	Enabled bool `toml:"enabled"`
}

// Default returns the settings used when no config file is found.
func Default() *Config {
	return &Config{
		Log: Log{Level: "info"},
		VM:  VM{MaxStack: 1024},
	}
}

// Load parses the file at path on top of Default. Keys the file sets
// override defaults; unknown keys are an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	cfg := Default()
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%w: unknown keys in %s: %s", ErrInvalid, path, strings.Join(keys, ", "))
	}
	cfg.Path, err = filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// FindAndLoad walks up from startDir to find an hd.toml file,
// then loads and returns it. Returns Default() if none is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}
	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(), nil
		}
		dir = parent
	}
}

// Validate checks the log level and stack limit.
func (c *Config) Validate() error {
	if _, err := c.Log.ZapLevel(); err != nil {
		return fmt.Errorf("%w: log.level: %v", ErrInvalid, err)
	}
	if c.VM.MaxStack <= 0 {
		return fmt.Errorf("%w: vm.max_stack must be positive, got %d", ErrInvalid, c.VM.MaxStack)
	}
	return nil
}

// ZapLevel parses Level; an empty level means info.
func (l Log) ZapLevel() (zapcore.Level, error) {
	if l.Level == "" {
		return zapcore.InfoLevel, nil
	}
	return zapcore.ParseLevel(l.Level)
}
