package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"lingoflow/identity"
)

// AuthService is the slice of the identity service the HTTP layer needs.
type AuthService interface {
	Register(ctx context.Context, req identity.RegisterRequest) (identity.View, error)
	Login(ctx context.Context, req identity.LoginRequest) (identity.LoginResult, error)
	Verify(ctx context.Context, token string) (identity.VerifyResult, error)
	Resend(ctx context.Context, email string) (identity.ResendResult, error)
	GetByID(ctx context.Context, id string) (identity.View, error)
	VerifySessionToken(tokenString string) (string, identity.Role, error)
}

type ctxKey int

const (
	ctxKeyIdentityID ctxKey = iota
	ctxKeyRole
)

// Server routes HTTP requests to the identity service.
type Server struct {
	authService AuthService
	logger      *zap.Logger
}

// NewServer creates an HTTP server around the identity service.
func NewServer(authService AuthService, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{authService: authService, logger: logger}
}

// Handler returns the routed http.Handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", s.handleLogin)
	mux.HandleFunc("/api/auth/register", s.handleRegister)
	mux.HandleFunc("/api/auth/verify-email", s.handleVerifyEmail)
	mux.HandleFunc("/api/auth/resend-verification", s.handleResendVerification)
	mux.HandleFunc("/api/auth/me", s.withSession(s.handleMe))
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

type loginResponse struct {
	AccessToken string        `json:"access_token"`
	TokenType   string        `json:"token_type"`
	User        identity.View `json:"user"`
}

type messageResponse struct {
	Message  string `json:"message"`
	Verified bool   `json:"verified,omitempty"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req identity.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.authService.Login(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: result.Token,
		TokenType:   "bearer",
		User:        result.Identity,
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req identity.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := s.authService.Register(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, view)
}

func (s *Server) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	token := r.URL.Query().Get("token")
	if token == "" {
		var body struct {
			Token string `json:"token"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
			token = body.Token
		}
	}
	if token == "" {
		writeError(w, http.StatusBadRequest, "token is required")
		return
	}

	result, err := s.authService.Verify(r.Context(), token)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	msg := "Email verified successfully! You can now log in."
	if result.AlreadyVerified {
		msg = "Email already verified"
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: msg, Verified: true})
}

func (s *Server) handleResendVerification(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	email := r.URL.Query().Get("email")
	if email == "" {
		var body struct {
			Email string `json:"email"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
			email = body.Email
		}
	}
	if email == "" {
		writeError(w, http.StatusBadRequest, "email is required")
		return
	}

	result, err := s.authService.Resend(r.Context(), email)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	msg := "Verification email sent successfully. Please check your inbox."
	if result.AlreadyVerified {
		msg = "Email already verified"
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: msg})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	identityID, _ := r.Context().Value(ctxKeyIdentityID).(string)
	view, err := s.authService.GetByID(r.Context(), identityID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// withSession authenticates the bearer session token and stores the subject
// in the request context.
func (s *Server) withSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		identityID, role, err := s.authService.VerifySessionToken(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyIdentityID, identityID)
		ctx = context.WithValue(ctx, ctxKeyRole, role)
		next(w, r.WithContext(ctx))
	}
}

func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, identity.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Incorrect email or password")
	case errors.Is(err, identity.ErrEmailNotVerified):
		writeError(w, http.StatusForbidden, "Please verify your email address before logging in. Check your inbox for the verification link.")
	case errors.Is(err, identity.ErrDuplicateEmail):
		writeError(w, http.StatusBadRequest, "Email already registered")
	case errors.Is(err, identity.ErrTokenNotFound):
		writeError(w, http.StatusBadRequest, "Invalid verification token")
	case errors.Is(err, identity.ErrTokenExpired):
		writeError(w, http.StatusBadRequest, "Verification token has expired. Please request a new one.")
	case errors.Is(err, identity.ErrIdentityNotFound):
		writeError(w, http.StatusNotFound, "User not found")
	case errors.Is(err, identity.ErrWeakPassword):
		writeError(w, http.StatusBadRequest, "Password must be at least 8 characters")
	default:
		s.logger.Error("unexpected service error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}
