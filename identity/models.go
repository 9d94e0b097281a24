package identity

import "time"

type Role string

const (
	RoleClient       Role = "client"
	RoleTranslator   Role = "translator"
	RoleCompanyAdmin Role = "company_admin"
)

// Identity is the domain representation of a platform credential record.
// It mirrors the identities table and should not include JSON annotations so
// it can be reused by different presentation layers.
type Identity struct {
	ID                         string
	Email                      string
	DisplayName                string
	PasswordHash               string
	Role                       Role
	EmailVerified              bool
	VerificationToken          *string
	VerificationTokenExpiresAt *time.Time
	CreatedAt                  time.Time
	UpdatedAt                  time.Time
}

// View is the sanitized projection of an Identity that is safe to hand to
// callers: everything except the password hash and the verification token.
type View struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	DisplayName   string    `json:"display_name"`
	Role          Role      `json:"role"`
	EmailVerified bool      `json:"is_email_verified"`
	CreatedAt     time.Time `json:"created_at"`
}

// Sanitized strips credential material from an Identity.
func (i Identity) Sanitized() View {
	return View{
		ID:            i.ID,
		Email:         i.Email,
		DisplayName:   i.DisplayName,
		Role:          i.Role,
		EmailVerified: i.EmailVerified,
		CreatedAt:     i.CreatedAt,
	}
}

// RegisterRequest contains registration data supplied by callers.
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Role        Role   `json:"role"`
}

// LoginRequest contains login credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult bundles the session token and sanitized identity returned after
// a successful login.
type LoginResult struct {
	Token    string
	Identity View
}

// VerifyResult reports the outcome of an email verification attempt.
// AlreadyVerified distinguishes the idempotent repeat from a fresh transition.
type VerifyResult struct {
	Identity        View
	AlreadyVerified bool
}

// ResendResult reports the outcome of a resend-verification request.
type ResendResult struct {
	AlreadyVerified bool
}
