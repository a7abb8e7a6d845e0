package config

import (
	"context"
	"testing"
	"time"
)

func TestUsernameFromKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"alice_123", "alice"},
		{"bob_x_y", "bob"},
		{"nounderscore", "guest"},
		{"", "guest"},
		{"_leading", ""},
	}

	for _, tt := range tests {
		if got := UsernameFromKey(tt.key); got != tt.want {
			t.Errorf("UsernameFromKey(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "CORS_ALLOWED_ORIGIN", "AI_PROVIDER", "OPENROUTER_API_KEY", "MODEL",
		"OPENROUTER_BASE_URL", "OPENROUTER_REFERER", "UPSTREAM_TIMEOUT_SECONDS",
		"ARK_API_KEY", "ARK_BASE_URL", "ARK_REGION",
		"SUPABASE_URL", "SUPABASE_KEY", "EVENT_LOG_DATABASE_URL", "EVENT_LOG_STRICT",
		"TWITTER_CLONE_API_KEY", "TWITTER_CLONE_POST_ENDPOINT", "TWITTER_CLONE_URL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Addr != ":8000" {
		t.Errorf("expected :8000, got %q", cfg.Server.Addr)
	}
	if cfg.Server.AllowedOrigin != defaultAllowedOrigin {
		t.Errorf("unexpected origin %q", cfg.Server.AllowedOrigin)
	}
	if cfg.AI.Provider != ProviderOpenRouter || cfg.AI.Model != defaultModel {
		t.Errorf("unexpected AI config %+v", cfg.AI)
	}
	if cfg.AI.Timeout != 30*time.Second {
		t.Errorf("expected 30s timeout, got %s", cfg.AI.Timeout)
	}
	if cfg.AI.Enabled() {
		t.Error("AI should not be enabled without a key")
	}
	if cfg.EventLog.RESTEnabled() || cfg.EventLog.Strict {
		t.Errorf("event log should be off by default: %+v", cfg.EventLog)
	}
	if cfg.Posting.Configured() || cfg.Posting.Username != guestUsername {
		t.Errorf("unexpected posting config %+v", cfg.Posting)
	}
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("OPENROUTER_API_KEY", " sk-test ")
	t.Setenv("UPSTREAM_TIMEOUT_SECONDS", "5")
	t.Setenv("SUPABASE_URL", "https://db.example/")
	t.Setenv("SUPABASE_KEY", "anon")
	t.Setenv("EVENT_LOG_STRICT", "true")
	t.Setenv("TWITTER_CLONE_API_KEY", "carol_abc")
	t.Setenv("TWITTER_CLONE_POST_ENDPOINT", "https://clone.example/api/tweets")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Addr != ":9090" {
		t.Errorf("unexpected addr %q", cfg.Server.Addr)
	}
	if cfg.AI.APIKey != "sk-test" || !cfg.AI.Enabled() {
		t.Errorf("unexpected AI config %+v", cfg.AI)
	}
	if cfg.AI.Timeout != 5*time.Second {
		t.Errorf("expected 5s timeout, got %s", cfg.AI.Timeout)
	}
	if cfg.EventLog.URL != "https://db.example" || !cfg.EventLog.RESTEnabled() || !cfg.EventLog.Strict {
		t.Errorf("unexpected event log config %+v", cfg.EventLog)
	}
	if !cfg.Posting.Configured() || cfg.Posting.Username != "carol" {
		t.Errorf("unexpected posting config %+v", cfg.Posting)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"port with space", "PORT", "80 80"},
		{"timeout not a number", "UPSTREAM_TIMEOUT_SECONDS", "soon"},
		{"timeout not positive", "UPSTREAM_TIMEOUT_SECONDS", "0"},
		{"unknown provider", "AI_PROVIDER", "mystery"},
		{"strict not bool", "EVENT_LOG_STRICT", "maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}

func TestNewChatModelOpenRouterWithoutKey(t *testing.T) {
	cfg := AIConfig{Provider: ProviderOpenRouter, Model: defaultModel, Timeout: time.Second}
	chatModel, err := cfg.NewChatModel(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if chatModel == nil {
		t.Fatal("expected a chat model")
	}
}

func TestNewChatModelArkRequiresKey(t *testing.T) {
	cfg := AIConfig{Provider: ProviderArk, Model: "doubao", Timeout: time.Second}
	if _, err := cfg.NewChatModel(context.Background()); err == nil {
		t.Fatal("expected error when ARK_API_KEY is missing")
	}
}
