package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRedact(t *testing.T) {
	settings := map[string]any{
		"auth": map[string]any{"jwt_secret": "s3cret", "token_ttl": "24h"},
		"plugins": map[string]any{
			"alerts": map[string]any{
				"channels": map[string]any{
					"pagerduty": map[string]any{"routing_key": "abc", "api_url": "https://api.pagerduty.com/incidents"},
					"email":     map[string]any{"smtp": map[string]any{"password": ""}},
				},
			},
		},
	}
	redact(settings)

	authSection := settings["auth"].(map[string]any)
	if authSection["jwt_secret"] != "********" {
		t.Errorf("jwt_secret = %v, want redacted", authSection["jwt_secret"])
	}
	if authSection["token_ttl"] != "24h" {
		t.Errorf("token_ttl = %v, want untouched", authSection["token_ttl"])
	}
	channels := settings["plugins"].(map[string]any)["alerts"].(map[string]any)["channels"].(map[string]any)
	pd := channels["pagerduty"].(map[string]any)
	if pd["routing_key"] != "********" || pd["api_url"] == "********" {
		t.Errorf("pagerduty = %v", pd)
	}
	smtp := channels["email"].(map[string]any)["smtp"].(map[string]any)
	if smtp["password"] != "" {
		t.Errorf("empty password should stay empty, got %v", smtp["password"])
	}
}

func TestEnsureDir(t *testing.T) {
	dir := t.TempDir()
	dsn := filepath.Join(dir, "nested", "data", "qualitywatch.db")
	if err := ensureDir(dsn); err != nil {
		t.Fatalf("ensureDir: %v", err)
	}
	if info, err := os.Stat(filepath.Dir(dsn)); err != nil || !info.IsDir() {
		t.Errorf("parent directory not created: %v", err)
	}
	for _, dsn := range []string{"", ":memory:", "file:test.db?mode=memory"} {
		if err := ensureDir(dsn); err != nil {
			t.Errorf("ensureDir(%q) = %v", dsn, err)
		}
	}
}
