package identity

import (
	"strings"
	"testing"
	"time"
)

func TestNewVerificationToken(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token := NewVerificationToken()
		if len(token) != 43 { // 32 bytes base64url, unpadded
			t.Fatalf("unexpected token length %d: %q", len(token), token)
		}
		if strings.ContainsAny(token, "+/=") {
			t.Fatalf("token is not URL-safe: %q", token)
		}
		if seen[token] {
			t.Fatalf("duplicate token generated: %q", token)
		}
		seen[token] = true
	}
}

func TestSessionIssuer_RoundTrip(t *testing.T) {
	issuer := NewSessionIssuer("test-secret", 30*time.Minute)

	token, err := issuer.Issue("ident-1", RoleTranslator)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	subject, role, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if subject != "ident-1" {
		t.Fatalf("expected subject ident-1, got %q", subject)
	}
	if role != RoleTranslator {
		t.Fatalf("expected role %s, got %s", RoleTranslator, role)
	}
}

func TestSessionIssuer_TamperedToken(t *testing.T) {
	issuer := NewSessionIssuer("test-secret", 30*time.Minute)

	token, err := issuer.Issue("ident-1", RoleClient)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	// Flip a character in the payload segment.
	parts := strings.Split(token, ".")
	payload := []byte(parts[1])
	if payload[0] == 'A' {
		payload[0] = 'B'
	} else {
		payload[0] = 'A'
	}
	tampered := parts[0] + "." + string(payload) + "." + parts[2]

	if _, _, err := issuer.Verify(tampered); err == nil {
		t.Fatal("expected tampered token to fail verification")
	}
}

func TestSessionIssuer_WrongSecret(t *testing.T) {
	token, err := NewSessionIssuer("secret-a", 30*time.Minute).Issue("ident-1", RoleClient)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, _, err := NewSessionIssuer("secret-b", 30*time.Minute).Verify(token); err == nil {
		t.Fatal("expected verification to fail under a different secret")
	}
}

func TestSessionIssuer_Expiry(t *testing.T) {
	issuedAt := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := issuedAt
	issuer := NewSessionIssuer("test-secret", 30*time.Minute).
		WithClock(func() time.Time { return clock })

	token, err := issuer.Issue("ident-1", RoleClient)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	clock = issuedAt.Add(29 * time.Minute)
	if _, _, err := issuer.Verify(token); err != nil {
		t.Fatalf("expected token valid before expiry, got %v", err)
	}

	clock = issuedAt.Add(31 * time.Minute)
	if _, _, err := issuer.Verify(token); err == nil {
		t.Fatal("expected expired token to fail verification")
	}
}

func TestSessionIssuer_DefaultTTL(t *testing.T) {
	issuer := NewSessionIssuer("test-secret", 0)
	if issuer.ttl != DefaultSessionTTL {
		t.Fatalf("expected default ttl %v, got %v", DefaultSessionTTL, issuer.ttl)
	}
}
