// Package config loads the server's TOML configuration and resolves the
// muxd directory.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/asheshgoplani/muxd/internal/logging"
)

// ConfigFileName is the TOML config file inside the muxd directory.
const ConfigFileName = "config.toml"

// Config represents user-facing configuration in TOML format.
type Config struct {
	// Session is the name of the session created at startup.
	Session string `toml:"session"`

	// StartupFile is a command file sourced clientless at startup.
	StartupFile string `toml:"startup_file"`

	// HooksFile is a TOML hook definition file, reloaded on change.
	HooksFile string `toml:"hooks_file"`

	// HistoryDB is the path of the command history database. Empty
	// disables recording.
	HistoryDB string `toml:"history_db"`

	// Log configures the rotating structured log.
	Log LogSettings `toml:"log"`
}

// LogSettings mirrors logging.Config in TOML form.
type LogSettings struct {
	Level      string `toml:"level"`
	Format     string `toml:"format"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Session: "main",
		Log:     LogSettings{Level: "info", Format: "json"},
	}
}

// Dir returns the muxd directory (~/.muxd), creating it if needed.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: home dir: %w", err)
	}
	dir := filepath.Join(home, ".muxd")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("config: mkdir: %w", err)
	}
	return dir, nil
}

// DefaultPath returns the config file path inside the muxd directory.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

// Load reads the config at path. A missing file yields the defaults; a
// malformed file is an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if cfg.Session == "" {
		cfg.Session = "main"
	}
	return cfg, nil
}

// Logging converts the log settings into a logging.Config rooted at dir.
func (c *Config) Logging(dir string, stderr bool) logging.Config {
	return logging.Config{
		LogDir:     dir,
		Level:      c.Log.Level,
		Format:     c.Log.Format,
		MaxSizeMB:  c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
		MaxAgeDays: c.Log.MaxAgeDays,
		Compress:   true,
		Stderr:     stderr,
	}
}
