// Package config loads the agentwire runtime's YAML configuration file.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// RuntimeConfig is the on-disk shape of an agentwire deployment: the
// defaults cmd/agentwire falls back to when a flag is not given.
type RuntimeConfig struct {
	Model           string        `yaml:"model"`
	CredentialsPath string        `yaml:"credentials_path"`
	CacheRetention  string        `yaml:"cache_retention"`
	ReasoningEffort string        `yaml:"reasoning_effort"`
	MaxTurns        int           `yaml:"max_turns"`
	SessionDir      string        `yaml:"session_dir"`
	LogDir          string        `yaml:"log_dir"`
	RetryMax        int           `yaml:"retry_max"`
	RetryDelay      time.Duration `yaml:"retry_delay"`
}

// DefaultConfig returns the built-in defaults applied before a config file
// or environment overrides are layered on.
func DefaultConfig() RuntimeConfig {
	return RuntimeConfig{
		Model:           "claude-sonnet-4-5",
		CredentialsPath: "",
		CacheRetention:  "",
		ReasoningEffort: "",
		MaxTurns:        50,
		SessionDir:      "",
		LogDir:          "",
		RetryMax:        2,
		RetryDelay:      300 * time.Millisecond,
	}
}

// DefaultPath returns the config file location: $AGENTWIRE_CONFIG if set,
// else ~/.config/agentwire/config.yaml.
func DefaultPath() string {
	if v := strings.TrimSpace(os.Getenv("AGENTWIRE_CONFIG")); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "agentwire", "config.yaml")
}

// Load reads the config file at DefaultPath, falling back to defaults.
func Load() RuntimeConfig {
	return LoadFrom(DefaultPath())
}

// LoadFrom reads and parses the YAML file at path, applying it over
// DefaultConfig and then layering environment overrides on top. A missing or empty
// path is not an error; it yields defaults plus environment overrides.
func LoadFrom(path string) RuntimeConfig {
	cfg := DefaultConfig()
	if strings.TrimSpace(path) != "" {
		if buf, err := os.ReadFile(path); err == nil {
			_ = yaml.Unmarshal([]byte(resolveEnvVars(string(buf))), &cfg)
		}
	}
	ApplyEnv(&cfg)
	return cfg
}

// resolveEnvVars expands ${VAR} references against the process environment
// before the YAML is parsed, mirroring the backend client's own expansion
// of auth header templates.
func resolveEnvVars(s string) string {
	return os.Expand(s, os.Getenv)
}

// ApplyEnv layers AGENTWIRE_* environment variables over cfg, taking
// precedence over both built-in defaults and the config file.
func ApplyEnv(cfg *RuntimeConfig) {
	if v := strings.TrimSpace(os.Getenv("AGENTWIRE_MODEL")); v != "" {
		cfg.Model = v
	}
	if v := strings.TrimSpace(os.Getenv("AGENTWIRE_CREDENTIALS_PATH")); v != "" {
		cfg.CredentialsPath = v
	}
	if v := strings.TrimSpace(os.Getenv("AGENTWIRE_CACHE_RETENTION")); v != "" {
		cfg.CacheRetention = v
	}
	if v := strings.TrimSpace(os.Getenv("AGENTWIRE_REASONING_EFFORT")); v != "" {
		cfg.ReasoningEffort = v
	}
	if v := strings.TrimSpace(os.Getenv("AGENTWIRE_MAX_TURNS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxTurns = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("AGENTWIRE_SESSION_DIR")); v != "" {
		cfg.SessionDir = v
	}
	if v := strings.TrimSpace(os.Getenv("AGENTWIRE_LOG_DIR")); v != "" {
		cfg.LogDir = v
	}
	if v := strings.TrimSpace(os.Getenv("AGENTWIRE_RETRY_MAX")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RetryMax = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("AGENTWIRE_RETRY_DELAY")); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RetryDelay = d
		}
	}
}
