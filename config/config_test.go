package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.SessionTTL != 30*time.Minute {
		t.Fatalf("expected default session ttl 30m, got %v", cfg.SessionTTL)
	}
	if cfg.SMTPEnabled {
		t.Fatal("expected SMTP disabled by default")
	}
	if cfg.SMTPPort != 587 {
		t.Fatalf("expected default SMTP port 587, got %d", cfg.SMTPPort)
	}
	if cfg.FrontendURL != "http://localhost:3000" {
		t.Fatalf("unexpected default frontend URL: %q", cfg.FrontendURL)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SESSION_TTL_MINUTES", "60")
	t.Setenv("SMTP_ENABLED", "true")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := Load()

	if cfg.SessionTTL != time.Hour {
		t.Fatalf("expected session ttl 1h, got %v", cfg.SessionTTL)
	}
	if !cfg.SMTPEnabled {
		t.Fatal("expected SMTP enabled")
	}
	if cfg.SMTPPort != 2525 {
		t.Fatalf("expected SMTP port 2525, got %d", cfg.SMTPPort)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected log level debug, got %q", cfg.LogLevel)
	}
}

func TestLoad_BadValuesFallBack(t *testing.T) {
	t.Setenv("SESSION_TTL_MINUTES", "not-a-number")
	t.Setenv("SMTP_ENABLED", "not-a-bool")

	cfg := Load()

	if cfg.SessionTTL != 30*time.Minute {
		t.Fatalf("expected fallback session ttl, got %v", cfg.SessionTTL)
	}
	if cfg.SMTPEnabled {
		t.Fatal("expected fallback SMTP disabled")
	}
}
