package notify

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMailer_LogOnlyMode(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	m := NewMailer(Config{
		Enabled:     false,
		FrontendURL: "http://localhost:3000",
	}, zap.New(core))

	m.VerificationRequested(context.Background(), "ann@example.com", "Ann", "tok-123")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 diagnostic record, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["to"] != "ann@example.com" {
		t.Fatalf("expected recipient in record, got %v", fields["to"])
	}
	if fields["subject"] != "Verify your Translation Platform account" {
		t.Fatalf("unexpected subject: %v", fields["subject"])
	}
	body, _ := fields["body"].(string)
	if !strings.Contains(body, "http://localhost:3000/verify-email?token=tok-123") {
		t.Fatalf("expected verification URL in body, got %q", body)
	}
	if !strings.Contains(body, "Hello Ann") {
		t.Fatalf("expected personalized greeting in body, got %q", body)
	}
}

func TestMailer_WelcomeLogOnlyMode(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	m := NewMailer(Config{
		Enabled:     false,
		FrontendURL: "http://localhost:3000",
	}, zap.New(core))

	m.WelcomeRequested(context.Background(), "ann@example.com", "Ann")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 diagnostic record, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["subject"] != "Welcome to Translation Platform!" {
		t.Fatalf("unexpected subject: %v", fields["subject"])
	}
	body, _ := fields["body"].(string)
	if !strings.Contains(body, "http://localhost:3000/login") {
		t.Fatalf("expected login URL in body, got %q", body)
	}
}

func TestMailer_TransportFailureIsSwallowed(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	m := NewMailer(Config{
		Enabled:     true,
		Host:        "127.0.0.1",
		Port:        1, // nothing listens here
		From:        "noreply@translationplatform.com",
		FrontendURL: "http://localhost:3000",
	}, zap.New(core))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Must not panic or propagate; the failure surfaces only as a log entry.
	m.VerificationRequested(ctx, "ann@example.com", "Ann", "tok-123")

	if logs.FilterLevelExact(zap.WarnLevel).Len() != 1 {
		t.Fatalf("expected 1 warning about failed delivery, got %d entries", logs.Len())
	}
}

func TestMessages_Content(t *testing.T) {
	v := verificationMessage("Ann", "http://app/verify-email?token=t1")
	if !strings.Contains(v.Text, "http://app/verify-email?token=t1") {
		t.Fatal("verification text missing URL")
	}
	if !strings.Contains(v.HTML, "http://app/verify-email?token=t1") {
		t.Fatal("verification HTML missing URL")
	}
	if !strings.Contains(v.Text, "expire in 24 hours") {
		t.Fatal("verification text missing expiry notice")
	}

	w := welcomeMessage("Ann", "http://app/login")
	if !strings.Contains(w.Text, "Hello Ann") || !strings.Contains(w.HTML, "Hello Ann") {
		t.Fatal("welcome message missing greeting")
	}
	if !strings.Contains(w.Text, "http://app/login") {
		t.Fatal("welcome text missing login URL")
	}
}
