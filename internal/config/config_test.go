package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const validYAML = `
server:
  base_url: "https://api.example.com"
auth:
  bearer_token: "tok-123"
user:
  id: "me"
search:
  debounce_ms: 250
cache:
  dir: "/tmp/trainlog-cache"
`

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestLoadValid verifies that a well-formed YAML config loads with all fields populated.
func TestLoadValid(t *testing.T) {
	cfg, err := Load(writeTemp(t, validYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.BaseURL != "https://api.example.com" {
		t.Errorf("server.base_url = %q, want %q", cfg.Server.BaseURL, "https://api.example.com")
	}
	if cfg.Auth.BearerToken != "tok-123" {
		t.Errorf("auth.bearer_token = %q, want %q", cfg.Auth.BearerToken, "tok-123")
	}
	if cfg.User.ID != "me" {
		t.Errorf("user.id = %q, want %q", cfg.User.ID, "me")
	}
	if got := cfg.Search.Debounce(); got != 250*time.Millisecond {
		t.Errorf("search debounce = %v, want 250ms", got)
	}
	if cfg.Cache.Dir != "/tmp/trainlog-cache" {
		t.Errorf("cache.dir = %q, want /tmp/trainlog-cache", cfg.Cache.Dir)
	}
}

// TestEnvOverride verifies that TRAINLOG_ env vars take precedence over YAML values.
func TestEnvOverride(t *testing.T) {
	t.Setenv("TRAINLOG_SERVER_BASE_URL", "https://override.example.com")
	t.Setenv("TRAINLOG_AUTH_BEARER_TOKEN", "env-tok")
	t.Setenv("TRAINLOG_SEARCH_DEBOUNCE_MS", "100")

	cfg, err := Load(writeTemp(t, validYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.BaseURL != "https://override.example.com" {
		t.Errorf("server.base_url = %q, want override", cfg.Server.BaseURL)
	}
	if cfg.Auth.BearerToken != "env-tok" {
		t.Errorf("auth.bearer_token = %q, want env-tok", cfg.Auth.BearerToken)
	}
	if got := cfg.Search.Debounce(); got != 100*time.Millisecond {
		t.Errorf("search debounce = %v, want 100ms", got)
	}
	// Unchanged fields keep YAML values.
	if cfg.User.ID != "me" {
		t.Errorf("user.id = %q, want me", cfg.User.ID)
	}
}

// TestDebounceDefault verifies the 300ms default when debounce_ms is unset.
func TestDebounceDefault(t *testing.T) {
	var s SearchConfig
	if got := s.Debounce(); got != 300*time.Millisecond {
		t.Errorf("debounce default = %v, want 300ms", got)
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing base_url", "auth:\n  bearer_token: t\nuser:\n  id: me\n"},
		{"missing token", "server:\n  base_url: http://x\nuser:\n  id: me\n"},
		{"missing user", "server:\n  base_url: http://x\nauth:\n  bearer_token: t\n"},
		{"tailscale without hostname", validYAML + "tailscale:\n  enabled: true\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeTemp(t, tt.yaml)); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}
