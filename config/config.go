// Package config loads runtime settings from the environment, with a
// best-effort .env file for local development.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the api binary needs to run.
type Config struct {
	DatabaseURL string
	HTTPAddr    string
	JWTSecret   string
	SessionTTL  time.Duration

	SMTPEnabled  bool
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string
	SMTPStartTLS bool

	FrontendURL string
	LogLevel    string
	LogDev      bool
}

// Load reads configuration from the environment. A .env file in the working
// directory is folded in first when present.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		HTTPAddr:    getenv("HTTP_ADDR", "0.0.0.0:8000"),
		JWTSecret:   getenv("JWT_SECRET", "your-secret-key-change-this"),
		SessionTTL:  time.Duration(getint("SESSION_TTL_MINUTES", 30)) * time.Minute,

		SMTPEnabled:  getbool("SMTP_ENABLED", false),
		SMTPHost:     getenv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:     getint("SMTP_PORT", 587),
		SMTPUser:     os.Getenv("SMTP_USER"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     getenv("SMTP_FROM_EMAIL", "noreply@translationplatform.com"),
		SMTPStartTLS: getbool("SMTP_TLS", true),

		FrontendURL: getenv("FRONTEND_URL", "http://localhost:3000"),
		LogLevel:    getenv("LOG_LEVEL", "info"),
		LogDev:      getbool("LOG_DEV", false),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getbool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
