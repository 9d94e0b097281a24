// Package actors hosts the concurrent drivers for the identity stress test.
// Each actor loops one identity operation against a shared pool of email
// addresses; expected domain errors (duplicate email, token not found, token
// expired, already verified) are part of normal contention and are ignored.
// The SQL oracles are the assertions.
package actors

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"lingoflow/identity"
)

// TokenBox collects verification tokens as the notifier side effect of
// register and resend, making them available to the Verifier actor. It
// implements the identity notifier contract.
type TokenBox struct {
	mu     sync.Mutex
	tokens []string
}

func NewTokenBox() *TokenBox {
	return &TokenBox{}
}

func (b *TokenBox) VerificationRequested(_ context.Context, _, _, token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens = append(b.tokens, token)
}

func (b *TokenBox) WelcomeRequested(_ context.Context, _, _ string) {}

// TakeRandom removes and returns a random collected token, or "" when none
// are available.
func (b *TokenBox) TakeRandom() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.tokens) == 0 {
		return ""
	}
	i := rand.Intn(len(b.tokens))
	token := b.tokens[i]
	b.tokens = append(b.tokens[:i], b.tokens[i+1:]...)
	return token
}

// Emails is the shared address pool the actors contend over.
func Emails(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("actor%d@example.com", i)
	}
	return out
}

// Registrar keeps registering identities for the shared email pool.
// Duplicate-email failures are the expected steady state once the pool fills.
func Registrar(ctx context.Context, svc *identity.Service, emails []string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}

		email := emails[rand.Intn(len(emails))]
		_, err := svc.Register(ctx, identity.RegisterRequest{
			Email:       email,
			Password:    "stress-password",
			DisplayName: "Stress Actor",
			Role:        identity.RoleClient,
		})
		if err != nil && !errors.Is(err, identity.ErrDuplicateEmail) && ctx.Err() == nil {
			return fmt.Errorf("registrar: %w", err)
		}
		time.Sleep(time.Duration(10+rand.Intn(20)) * time.Millisecond)
	}
}

// Verifier consumes collected tokens. Misses are expected: a concurrent
// resend may have overwritten the token, or a concurrent verifier already
// spent it.
func Verifier(ctx context.Context, svc *identity.Service, box *TokenBox, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}

		if token := box.TakeRandom(); token != "" {
			_, err := svc.Verify(ctx, token)
			switch {
			case err == nil:
			case errors.Is(err, identity.ErrTokenNotFound):
			case errors.Is(err, identity.ErrTokenExpired):
			case ctx.Err() != nil:
			default:
				return fmt.Errorf("verifier: %w", err)
			}
		}
		time.Sleep(time.Duration(5+rand.Intn(15)) * time.Millisecond)
	}
}

// Resender keeps requesting fresh tokens for the shared email pool, racing
// the verifiers on the same rows.
func Resender(ctx context.Context, svc *identity.Service, emails []string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}

		email := emails[rand.Intn(len(emails))]
		_, err := svc.Resend(ctx, email)
		if err != nil && !errors.Is(err, identity.ErrIdentityNotFound) && ctx.Err() == nil {
			return fmt.Errorf("resender: %w", err)
		}
		time.Sleep(time.Duration(10+rand.Intn(30)) * time.Millisecond)
	}
}
