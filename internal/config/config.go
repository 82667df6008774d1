package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Auth      AuthConfig      `yaml:"auth"`
	User      UserConfig      `yaml:"user"`
	Search    SearchConfig    `yaml:"search"`
	Cache     CacheConfig     `yaml:"cache"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
}

type ServerConfig struct {
	BaseURL string `yaml:"base_url"`
}

type AuthConfig struct {
	BearerToken string `yaml:"bearer_token"`
}

type UserConfig struct {
	ID string `yaml:"id"`
}

type SearchConfig struct {
	DebounceMS int `yaml:"debounce_ms"`
}

type CacheConfig struct {
	Dir string `yaml:"dir"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// Debounce returns the partner search debounce window, defaulting to 300ms.
func (s SearchConfig) Debounce() time.Duration {
	if s.DebounceMS <= 0 {
		return 300 * time.Millisecond
	}
	return time.Duration(s.DebounceMS) * time.Millisecond
}

// Load reads config from a YAML file, then applies environment variable
// overrides. Env vars use the prefix TRAINLOG_ and underscore-separated paths:
//
//	TRAINLOG_SERVER_BASE_URL, TRAINLOG_AUTH_BEARER_TOKEN,
//	TRAINLOG_USER_ID, TRAINLOG_SEARCH_DEBOUNCE_MS, TRAINLOG_CACHE_DIR,
//	TRAINLOG_TS_HOSTNAME, TRAINLOG_TS_STATE_DIR
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TRAINLOG_SERVER_BASE_URL"); v != "" {
		cfg.Server.BaseURL = v
	}
	if v := os.Getenv("TRAINLOG_AUTH_BEARER_TOKEN"); v != "" {
		cfg.Auth.BearerToken = v
	}
	if v := os.Getenv("TRAINLOG_USER_ID"); v != "" {
		cfg.User.ID = v
	}
	if v := os.Getenv("TRAINLOG_SEARCH_DEBOUNCE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			cfg.Search.DebounceMS = ms
		}
	}
	if v := os.Getenv("TRAINLOG_CACHE_DIR"); v != "" {
		cfg.Cache.Dir = v
	}
	if v := os.Getenv("TRAINLOG_TS_HOSTNAME"); v != "" {
		cfg.Tailscale.Hostname = v
		cfg.Tailscale.Enabled = true
	}
	if v := os.Getenv("TRAINLOG_TS_STATE_DIR"); v != "" {
		cfg.Tailscale.StateDir = v
	}
}

func (c *Config) validate() error {
	if c.Server.BaseURL == "" {
		return fmt.Errorf("server.base_url is required")
	}
	if c.Auth.BearerToken == "" {
		return fmt.Errorf("auth.bearer_token is required")
	}
	if c.User.ID == "" {
		return fmt.Errorf("user.id is required")
	}
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}
	return nil
}
