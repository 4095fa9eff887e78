// Package config loads the membank server configuration.
//
// Configuration lives in a single YAML file under the data directory.
// A missing file is not an error: defaults apply, and environment
// variables overlay whatever the file provided. Invalid YAML is an
// error so silent misconfiguration cannot slip through.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment overrides, checked after the file is loaded.
const (
	EnvDataDir    = "MEMBANK_DATA_DIR"
	EnvLogLevel   = "MEMBANK_LOG_LEVEL"
	EnvAutoSelect = "MEMBANK_AUTO_SELECT"
)

// Config holds the server configuration.
type Config struct {
	// DataDir is where the database, the disk mirror, and this config
	// file itself live. Defaults to ~/.membank.
	DataDir string `yaml:"data_dir"`

	// SessionTTL bounds the in-process context cache; DurableTTL
	// bounds persisted context records.
	SessionTTL time.Duration `yaml:"session_ttl"`
	DurableTTL time.Duration `yaml:"durable_ttl"`

	// AutoSelectOnLowConfidence lets a weak identity detection adopt
	// the single registered project instead of generating a default
	// name. Off by default: auto-selecting risks merging unrelated
	// work under one name.
	AutoSelectOnLowConfidence bool `yaml:"auto_select_on_low_confidence"`

	LogLevel string `yaml:"log_level"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DataDir:    filepath.Join(home, ".membank"),
		SessionTTL: 24 * time.Hour,
		DurableTTL: 7 * 24 * time.Hour,
		LogLevel:   "info",
	}
}

// Load reads the configuration from path. An empty path means the
// default location (<default data dir>/config.yaml). A missing file
// yields defaults; a file that exists but does not parse is an error.
// Environment overrides apply last.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = filepath.Join(cfg.DataDir, "config.yaml")
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		slog.Debug("no config file, using defaults", "path", path)
	case err != nil:
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overlays environment variables onto the loaded config.
func applyEnv(cfg *Config) {
	if dir := os.Getenv(EnvDataDir); dir != "" {
		cfg.DataDir = dir
	}
	if level := os.Getenv(EnvLogLevel); level != "" {
		cfg.LogLevel = level
	}
	if v := os.Getenv(EnvAutoSelect); v != "" {
		cfg.AutoSelectOnLowConfidence = v == "1" || strings.EqualFold(v, "true")
	}
}

// applyDefaults fills fields the file left zero. Explicit zero TTLs in
// YAML are indistinguishable from omissions; both take the default.
func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.DataDir == "" {
		cfg.DataDir = def.DataDir
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = def.SessionTTL
	}
	if cfg.DurableTTL <= 0 {
		cfg.DurableTTL = def.DurableTTL
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = def.LogLevel
	}
}

func (c Config) validate() error {
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	if c.DurableTTL < c.SessionTTL {
		return fmt.Errorf("durable_ttl (%s) must not be shorter than session_ttl (%s)", c.DurableTTL, c.SessionTTL)
	}
	return nil
}

// ParseLogLevel maps a config string to a slog level.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log_level %q (want debug, info, warn, or error)", s)
	}
}
