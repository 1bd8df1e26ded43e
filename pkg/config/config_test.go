package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("SUPABASE_URL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServerPort != 8080 || cfg.DBPort != 5432 {
		t.Fatalf("unexpected ports: %d %d", cfg.ServerPort, cfg.DBPort)
	}
	if cfg.Limits.ProfileImageBytes != 5<<20 || cfg.Limits.PhotoFiles != 10 {
		t.Fatalf("unexpected limits: %+v", cfg.Limits)
	}
	if cfg.ScoreCacheTTL != 10*time.Minute {
		t.Fatalf("unexpected score ttl: %v", cfg.ScoreCacheTTL)
	}
	if !cfg.LocalAuth() {
		t.Fatalf("expected local auth without a supabase url")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://rentmatch.app, https://admin.rentmatch.app ,")
	t.Setenv("SUPABASE_URL", "https://xyz.supabase.co")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServerPort != 9090 {
		t.Fatalf("expected 9090, got %d", cfg.ServerPort)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://admin.rentmatch.app" {
		t.Fatalf("unexpected origins: %v", cfg.CORSAllowedOrigins)
	}
	if cfg.LocalAuth() {
		t.Fatalf("expected supabase auth")
	}
}

func TestLoadInvalidPort(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("SERVER_PORT", "eighty")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid port")
	}
}

func TestTokenSecret(t *testing.T) {
	cfg := &Config{LocalJWTSecret: "local", SupabaseJWTSecret: "remote"}
	if got := cfg.TokenSecret(); got != "local" {
		t.Fatalf("expected local secret, got %q", got)
	}
	cfg.SupabaseURL = "https://xyz.supabase.co"
	if got := cfg.TokenSecret(); got != "remote" {
		t.Fatalf("expected supabase secret, got %q", got)
	}
}

func TestLoadInvalidCleanupInterval(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("CLEANUP_INTERVAL", "often")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid cleanup interval")
	}
}
