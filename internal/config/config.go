package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds all extraction service configuration
type Config struct {
	Version     int               `toml:"version"`
	Log         LogConfig         `toml:"log"`
	Browser     BrowserConfig     `toml:"browser"`
	Acquisition AcquisitionConfig `toml:"acquisition"`
	Inference   InferenceConfig   `toml:"inference"`
	Cache       CacheConfig       `toml:"cache"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

type BrowserConfig struct {
	Headless  bool   `toml:"headless"`
	UserAgent string `toml:"user_agent"`
}

type AcquisitionConfig struct {
	NavigationTimeoutSecs int    `toml:"navigation_timeout_secs"`
	SelectorTimeoutSecs   int    `toml:"selector_timeout_secs"`
	MinIntervalMillis     int    `toml:"min_interval_millis"`
	CookieStorePath       string `toml:"cookie_store_path"`
	SyntheticFallback     bool   `toml:"synthetic_fallback"`
}

type InferenceConfig struct {
	APIKey      string `toml:"api_key"`
	Model       string `toml:"model"`
	MaxAttempts int    `toml:"max_attempts"`
}

type CacheConfig struct {
	Path          string `toml:"path"`
	TTLHours      int    `toml:"ttl_hours"`
	SweepSchedule string `toml:"sweep_schedule"`
	Timezone      string `toml:"timezone"`
}

// Default returns a Config with sensible defaults
func Default() *Config {
	return &Config{
		Version: 1,
		Log: LogConfig{
			Level: "info",
		},
		Browser: BrowserConfig{
			Headless: true,
		},
		Acquisition: AcquisitionConfig{
			NavigationTimeoutSecs: 30,
			SelectorTimeoutSecs:   5,
			MinIntervalMillis:     2000,
			SyntheticFallback:     true,
		},
		Inference: InferenceConfig{
			Model:       "claude-sonnet-4-20250514",
			MaxAttempts: 3,
		},
		Cache: CacheConfig{
			TTLHours:      24,
			SweepSchedule: "0 * * * *",
			Timezone:      "Europe/Madrid",
		},
	}
}

// ConfigDir returns the platform-appropriate config directory
func ConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "eventsync"), nil
}

// ConfigPath returns the full path to the config file
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads config from the given path, falling back to the default config
// path when path is empty. A missing file yields Default() with env overlays
// applied, not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := Default()
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, err
		}
	}

	// .env files must land in the process environment before the overlay
	// reads it, or their values never reach the config.
	LoadEnv(nil)
	cfg.applyEnv()
	return cfg, nil
}

// Save writes config to disk
func (c *Config) Save() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	path, err := ConfigPath()
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(c)
}

// applyEnv overlays environment variables onto file-based config. Secrets
// come from the environment in deployments, never from the TOML file.
func (c *Config) applyEnv() {
	c.Log.Level = GetEnv("LOG_LEVEL", c.Log.Level)
	c.Inference.APIKey = GetEnv("ANTHROPIC_API_KEY", c.Inference.APIKey)
	c.Inference.Model = GetEnv("EVENTSYNC_MODEL", c.Inference.Model)
	c.Acquisition.CookieStorePath = GetEnv("EVENTSYNC_COOKIE_STORE", c.Acquisition.CookieStorePath)
	c.Cache.Path = GetEnv("EVENTSYNC_CACHE_PATH", c.Cache.Path)
	c.Browser.Headless = GetEnvBool("EVENTSYNC_HEADLESS", c.Browser.Headless)
}
