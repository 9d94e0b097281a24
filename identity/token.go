package identity

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultSessionTTL is the session-token lifetime used when none is configured.
const DefaultSessionTTL = 30 * time.Minute

// verificationTokenTTL is how long a freshly issued verification token stays
// valid.
const verificationTokenTTL = 24 * time.Hour

// NewVerificationToken returns a URL-safe random token with 256 bits of
// entropy. The token carries no claims: its validity lives entirely in the
// stored expiry column.
func NewVerificationToken() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the process has no usable entropy source.
		panic(fmt.Sprintf("identity: read random: %v", err))
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}

// SessionIssuer mints and verifies signed session tokens binding a subject
// identity and role to a bounded lifetime.
type SessionIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSessionIssuer creates a SessionIssuer signing with the given secret.
// A non-positive ttl falls back to DefaultSessionTTL.
func NewSessionIssuer(secret string, ttl time.Duration) *SessionIssuer {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// WithClock overrides the issuer's notion of now.
func (s *SessionIssuer) WithClock(now func() time.Time) *SessionIssuer {
	s.now = now
	return s
}

// Issue creates a signed session token for the subject.
func (s *SessionIssuer) Issue(subjectID string, role Role) (string, error) {
	issuedAt := s.now()
	claims := jwt.MapClaims{
		"sub":  subjectID,
		"role": string(role),
		"exp":  issuedAt.Add(s.ttl).Unix(),
		"iat":  issuedAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("identity: sign session token: %w", err)
	}

	return signed, nil
}

// Verify validates a session token's signature and expiry and returns the
// subject identity ID and role it asserts.
func (s *SessionIssuer) Verify(tokenString string) (string, Role, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))

	if err != nil {
		return "", "", fmt.Errorf("identity: parse session token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", "", fmt.Errorf("identity: invalid session token")
	}

	subject, ok := claims["sub"].(string)
	if !ok || subject == "" {
		return "", "", fmt.Errorf("identity: invalid subject in session token")
	}
	roleStr, ok := claims["role"].(string)
	if !ok {
		return "", "", fmt.Errorf("identity: invalid role in session token")
	}
	role := Role(roleStr)
	if !isValidRole(role) {
		return "", "", fmt.Errorf("identity: invalid role %q in session token", roleStr)
	}

	return subject, role, nil
}
