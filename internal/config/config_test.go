package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ALLOWED_ORIGIN", "")
	t.Setenv("AVAILABILITY_TTL_SECONDS", "")
	t.Setenv("ACCESS_TOKEN_TTL_MINUTES", "")
	t.Setenv("REDIS_DB", "")

	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.AllowedOrigin != "http://127.0.0.1:3000" {
		t.Fatalf("unexpected default origin %s", cfg.AllowedOrigin)
	}
	if cfg.AvailabilityTTLSeconds != 30 {
		t.Fatalf("expected default availability TTL 30, got %d", cfg.AvailabilityTTLSeconds)
	}
	if cfg.AccessTokenTTLMinutes != 480 {
		t.Fatalf("expected default token TTL 480, got %d", cfg.AccessTokenTTLMinutes)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ALLOWED_ORIGIN", "https://pos.example.com")
	t.Setenv("AVAILABILITY_TTL_SECONDS", "120")
	t.Setenv("ACCESS_TOKEN_TTL_MINUTES", "60")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("AUTH_SECRET", "  padded-secret  ")

	cfg := Load()
	if cfg.Port != "9090" || cfg.AllowedOrigin != "https://pos.example.com" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.AvailabilityTTLSeconds != 120 || cfg.AccessTokenTTLMinutes != 60 || cfg.RedisDB != 3 {
		t.Fatalf("numeric overrides not applied: %+v", cfg)
	}
	if cfg.AuthSecret != "padded-secret" {
		t.Fatalf("expected trimmed secret, got %q", cfg.AuthSecret)
	}
}

func TestLoadRejectsBadNumbers(t *testing.T) {
	t.Setenv("AVAILABILITY_TTL_SECONDS", "not-a-number")
	t.Setenv("ACCESS_TOKEN_TTL_MINUTES", "-5")

	cfg := Load()
	if cfg.AvailabilityTTLSeconds != 30 {
		t.Fatalf("expected fallback TTL 30, got %d", cfg.AvailabilityTTLSeconds)
	}
	if cfg.AccessTokenTTLMinutes != 480 {
		t.Fatalf("expected fallback token TTL 480, got %d", cfg.AccessTokenTTLMinutes)
	}
}

func TestAddress(t *testing.T) {
	cfg := Config{Port: "8080"}
	if cfg.Address() != ":8080" {
		t.Fatalf("unexpected address %s", cfg.Address())
	}
}
