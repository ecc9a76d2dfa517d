// Package config loads canopy configuration.
//
// Configuration lives in a TOML file (default: ~/.config/canopy/config.toml,
// honoring XDG_CONFIG_HOME) with environment variable overrides for
// secrets. A missing config file is not an error; defaults apply.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/jholzmann/canopy/pkg/errors"
)

// appName is the application name used for config and data directories.
const appName = "canopy"

// =============================================================================
// Config
// =============================================================================

// Config is the full canopy configuration.
type Config struct {
	Provider ProviderConfig `toml:"provider"`
	Gen      GenConfig      `toml:"gen"`
	Storage  StorageConfig  `toml:"storage"`
	Cache    CacheConfig    `toml:"cache"`
	Server   ServerConfig   `toml:"server"`
}

// ProviderConfig configures the generative content provider.
type ProviderConfig struct {
	// APIKey authenticates against the Gemini API.
	// Overridable via CANOPY_API_KEY or GEMINI_API_KEY.
	APIKey string `toml:"api_key"`

	// Model names the generation model (default: gemini-2.0-flash).
	Model string `toml:"model"`
}

// GenConfig configures the generation orchestrator.
type GenConfig struct {
	// StepDelayMS paces sequential expansion batches, in milliseconds.
	StepDelayMS int `toml:"step_delay_ms"`

	// UserContext is an optional audience hint passed to every provider
	// call (e.g., "undergraduate self-study").
	UserContext string `toml:"user_context"`
}

// StorageConfig configures snapshot persistence.
type StorageConfig struct {
	// Backend selects the snapshot store: "file" (default) or "mongo".
	Backend string `toml:"backend"`

	// Dir is the file backend's data directory (default XDG data dir).
	Dir string `toml:"dir"`

	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
}

// CacheConfig configures provider response caching.
type CacheConfig struct {
	// Backend selects the cache: "file" (default), "redis", or "none".
	Backend string `toml:"backend"`

	// Dir is the file backend's cache directory (default XDG cache dir).
	Dir string `toml:"dir"`

	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	// Addr is the listen address for `canopy serve` (default ":8723").
	Addr string `toml:"addr"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Provider: ProviderConfig{Model: "gemini-2.0-flash"},
		Gen:      GenConfig{StepDelayMS: 400},
		Storage:  StorageConfig{Backend: "file"},
		Cache:    CacheConfig{Backend: "file"},
		Server:   ServerConfig{Addr: ":8723"},
	}
}

// =============================================================================
// Loading
// =============================================================================

// Load reads the config file at path, or the default path when path is
// empty. A missing file yields defaults. Environment variables override
// the API key after the file is read.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return cfg, nil
		}
	}

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
		}
	}

	if key := os.Getenv("CANOPY_API_KEY"); key != "" {
		cfg.Provider.APIKey = key
	} else if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		cfg.Provider.APIKey = key
	}

	return cfg, nil
}

// =============================================================================
// Paths
// =============================================================================

// DefaultPath returns the default config file path using the XDG standard.
func DefaultPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// CacheDir returns the cache directory using the XDG standard.
func CacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
