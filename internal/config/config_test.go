package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

var keys = []string{"PORT", "DB_PATH", "JWT_SECRET", "TOKEN_TTL", "STORE_WRITE_TIMEOUT", "LOG_LEVEL", "CORS_ALLOWED_ORIGINS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST"}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}
	if cfg.Port != 8080 || cfg.Addr() != ":8080" {
		t.Errorf("port = %d, want 8080", cfg.Port)
	}
	if cfg.DBPath != "./data/coven.db" {
		t.Errorf("db path = %q", cfg.DBPath)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Errorf("token ttl = %v, want 24h", cfg.TokenTTL)
	}
	if cfg.StoreWriteTimeout != 5*time.Second {
		t.Errorf("write timeout = %v, want 5s", cfg.StoreWriteTimeout)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("log level = %q, want info", cfg.LogLevel)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Errorf("cors origins = %v, want [*]", cfg.CORSAllowedOrigins)
	}
	if cfg.RateLimitRPS != 10 || cfg.RateLimitBurst != 20 {
		t.Errorf("rate limit = %v/%d, want 10/20", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	if !errors.Is(cfg.RequireSecret(), ErrMissingSecret) {
		t.Error("expected missing secret error")
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("DB_PATH", "/tmp/c.db")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("TOKEN_TTL", "90m")
	t.Setenv("STORE_WRITE_TIMEOUT", "250ms")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("RATE_LIMIT_RPS", "0")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}
	if cfg.Addr() != ":9090" || cfg.DBPath != "/tmp/c.db" {
		t.Errorf("got addr %q db %q", cfg.Addr(), cfg.DBPath)
	}
	if cfg.TokenTTL != 90*time.Minute || cfg.StoreWriteTimeout != 250*time.Millisecond {
		t.Errorf("got ttl %v timeout %v", cfg.TokenTTL, cfg.StoreWriteTimeout)
	}
	if err := cfg.RequireSecret(); err != nil {
		t.Errorf("RequireSecret: %v", err)
	}
	if cfg.RateLimitRPS != 0 {
		t.Errorf("rate limit rps = %v, want 0 (disabled)", cfg.RateLimitRPS)
	}
	want := []string{"https://a.example", "https://b.example"}
	if len(cfg.CORSAllowedOrigins) != len(want) {
		t.Fatalf("cors origins = %v, want %v", cfg.CORSAllowedOrigins, want)
	}
	for i := range want {
		if cfg.CORSAllowedOrigins[i] != want[i] {
			t.Errorf("cors[%d] = %q, want %q", i, cfg.CORSAllowedOrigins[i], want[i])
		}
	}
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"PORT", "eighty"},
		{"PORT", "70000"},
		{"TOKEN_TTL", "a day"},
		{"TOKEN_TTL", "-1h"},
		{"STORE_WRITE_TIMEOUT", "5"},
		{"RATE_LIMIT_RPS", "fast"},
		{"RATE_LIMIT_RPS", "-1"},
		{"RATE_LIMIT_BURST", "1.5"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			if _, err := FromEnv(); err == nil {
				t.Errorf("expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	os.Unsetenv("JWT_SECRET")
	os.Unsetenv("LOG_LEVEL")
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("JWT_SECRET=from-file\nLOG_LEVEL=debug\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)
	t.Cleanup(func() {
		os.Unsetenv("JWT_SECRET")
		os.Unsetenv("LOG_LEVEL")
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.JWTSecret != "from-file" || cfg.LogLevel != "debug" {
		t.Errorf("got secret %q level %q from .env", cfg.JWTSecret, cfg.LogLevel)
	}
}
