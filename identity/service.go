package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

var (
	// ErrInvalidCredentials signals wrong email or password. Both cases map
	// to the same error so callers cannot learn which half failed.
	ErrInvalidCredentials = errors.New("identity: invalid credentials")
	// ErrEmailNotVerified signals correct credentials on an unverified identity.
	ErrEmailNotVerified = errors.New("identity: email not verified")
	// ErrTokenExpired signals that the verification token's expiry has passed.
	ErrTokenExpired = errors.New("identity: verification token expired")
	// ErrWeakPassword signals password doesn't meet requirements.
	ErrWeakPassword = errors.New("identity: password must be at least 8 characters")
)

// TxBeginner abstracts pgxpool.Pool for testability.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Notifier requests outbound email delivery. Implementations are best-effort:
// delivery failures are reported on their own observability channel and must
// never surface to the caller or roll back the transition that fired them.
type Notifier interface {
	VerificationRequested(ctx context.Context, email, displayName, token string)
	WelcomeRequested(ctx context.Context, email, displayName string)
}

// Service handles identity business logic: registration, login, and the
// email-verification lifecycle.
type Service struct {
	pool     TxBeginner
	repo     Repository
	sessions *SessionIssuer
	notifier Notifier
	hasher   Hasher
	now      func() time.Time
	newToken func() string
}

// NewService creates a new identity service.
func NewService(pool TxBeginner, repo Repository, sessions *SessionIssuer, notifier Notifier) *Service {
	return &Service{
		pool:     pool,
		repo:     repo,
		sessions: sessions,
		notifier: notifier,
		hasher:   NewHasher(),
		now:      time.Now,
		newToken: NewVerificationToken,
	}
}

// WithClock overrides the service's notion of now.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// WithTokenGenerator overrides the verification-token source.
func (s *Service) WithTokenGenerator(gen func() string) *Service {
	s.newToken = gen
	return s
}

// Register creates a new unverified identity with an outstanding verification
// token and requests a verification email.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (View, error) {
	if len(req.Password) < 8 {
		return View{}, ErrWeakPassword
	}
	if req.Email == "" || req.DisplayName == "" {
		return View{}, fmt.Errorf("identity: email and display_name are required")
	}

	role := Role(strings.TrimSpace(string(req.Role)))
	if role == "" {
		role = RoleClient
	}
	if !isValidRole(role) {
		return View{}, fmt.Errorf("identity: invalid role %q", role)
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return View{}, err
	}

	token := s.newToken()
	expiresAt := s.now().Add(verificationTokenTTL)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return View{}, fmt.Errorf("identity: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	ident, err := s.repo.Insert(ctx, tx, InsertParams{
		Email:             req.Email,
		DisplayName:       req.DisplayName,
		PasswordHash:      passwordHash,
		Role:              role,
		VerificationToken: token,
		TokenExpiresAt:    expiresAt,
	})
	if err != nil {
		return View{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return View{}, fmt.Errorf("identity: commit tx: %w", err)
	}

	s.notifier.VerificationRequested(ctx, ident.Email, ident.DisplayName, token)

	return ident.Sanitized(), nil
}

// Login authenticates an identity and returns a session token. The verified
// check runs strictly after credential verification so verification state is
// never revealed to a caller without the password.
func (s *Service) Login(ctx context.Context, req LoginRequest) (LoginResult, error) {
	ident, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	if !s.hasher.Verify(req.Password, ident.PasswordHash) {
		return LoginResult{}, ErrInvalidCredentials
	}

	if !ident.EmailVerified {
		return LoginResult{}, ErrEmailNotVerified
	}

	token, err := s.sessions.Issue(ident.ID, ident.Role)
	if err != nil {
		return LoginResult{}, err
	}

	return LoginResult{
		Token:    token,
		Identity: ident.Sanitized(),
	}, nil
}

// Verify consumes a verification token. On success the token pair is cleared
// and the verified flag set, so a repeat call with the same token reports
// ErrTokenNotFound. An expired token leaves the identity untouched; resend is
// the recovery path.
func (s *Service) Verify(ctx context.Context, token string) (VerifyResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return VerifyResult{}, fmt.Errorf("identity: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	ident, err := s.repo.LockByToken(ctx, tx, token)
	if err != nil {
		return VerifyResult{}, err
	}

	if ident.EmailVerified {
		return VerifyResult{Identity: ident.Sanitized(), AlreadyVerified: true}, nil
	}

	if ident.VerificationTokenExpiresAt != nil && ident.VerificationTokenExpiresAt.Before(s.now()) {
		return VerifyResult{}, ErrTokenExpired
	}

	ident, err = s.repo.MarkVerified(ctx, tx, ident.ID)
	if err != nil {
		return VerifyResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return VerifyResult{}, fmt.Errorf("identity: commit tx: %w", err)
	}

	s.notifier.WelcomeRequested(ctx, ident.Email, ident.DisplayName)

	return VerifyResult{Identity: ident.Sanitized()}, nil
}

// Resend issues a fresh verification token for an unverified identity,
// invalidating any outstanding one, and requests a new verification email.
// Already-verified identities get an idempotent result and no new token.
func (s *Service) Resend(ctx context.Context, email string) (ResendResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return ResendResult{}, fmt.Errorf("identity: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	ident, err := s.repo.LockByEmail(ctx, tx, email)
	if err != nil {
		return ResendResult{}, err
	}

	if ident.EmailVerified {
		return ResendResult{AlreadyVerified: true}, nil
	}

	token := s.newToken()
	expiresAt := s.now().Add(verificationTokenTTL)

	ident, err = s.repo.ReplaceToken(ctx, tx, ident.ID, token, expiresAt)
	if err != nil {
		return ResendResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return ResendResult{}, fmt.Errorf("identity: commit tx: %w", err)
	}

	s.notifier.VerificationRequested(ctx, ident.Email, ident.DisplayName, token)

	return ResendResult{}, nil
}

// GetByID retrieves a sanitized identity by ID.
func (s *Service) GetByID(ctx context.Context, id string) (View, error) {
	ident, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return View{}, err
	}
	return ident.Sanitized(), nil
}

// VerifySessionToken validates a session token and returns the subject
// identity ID and role.
func (s *Service) VerifySessionToken(tokenString string) (string, Role, error) {
	return s.sessions.Verify(tokenString)
}

func isValidRole(role Role) bool {
	switch role {
	case RoleClient, RoleTranslator, RoleCompanyAdmin:
		return true
	default:
		return false
	}
}
