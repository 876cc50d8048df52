package main

import (
	"strings"
	"testing"

	"tillpoint/backend/internal/config"
)

func TestValidateSecurityConfig(t *testing.T) {
	if err := validateSecurityConfig(config.Config{}); err == nil {
		t.Fatal("expected rejection for missing AUTH_SECRET")
	}
	if err := validateSecurityConfig(config.Config{AuthSecret: "short"}); err == nil {
		t.Fatal("expected rejection for short AUTH_SECRET")
	}
	if err := validateSecurityConfig(config.Config{AuthSecret: strings.Repeat("a", 32)}); err != nil {
		t.Fatalf("expected 32-char secret to pass, got %v", err)
	}
}
