// Package notify delivers outbound platform email. Delivery is best-effort:
// transport failures are logged and never propagate to the state transition
// that requested the message. Without SMTP configured the mailer runs in
// log-only mode and records what it would have sent.
package notify

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// Config holds SMTP transport settings. Enabled false puts the mailer in
// log-only mode.
type Config struct {
	Enabled     bool
	Host        string
	Port        int
	Username    string
	Password    string
	From        string
	StartTLS    bool
	FrontendURL string
}

// Mailer sends verification and welcome email on behalf of the identity core.
type Mailer struct {
	cfg Config
	log *zap.Logger
}

// NewMailer creates a Mailer with the given transport settings.
func NewMailer(cfg Config, logger *zap.Logger) *Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mailer{cfg: cfg, log: logger}
}

// VerificationRequested sends the email-ownership verification message.
// Failures are logged, never returned.
func (m *Mailer) VerificationRequested(ctx context.Context, email, displayName, token string) {
	url := m.cfg.FrontendURL + "/verify-email?token=" + token
	msg := verificationMessage(displayName, url)
	if err := m.send(ctx, email, msg); err != nil {
		m.log.Warn("verification email delivery failed",
			zap.String("email", email),
			zap.Error(err))
	}
}

// WelcomeRequested sends the post-verification welcome message.
// Failures are logged, never returned.
func (m *Mailer) WelcomeRequested(ctx context.Context, email, displayName string) {
	msg := welcomeMessage(displayName, m.cfg.FrontendURL+"/login")
	if err := m.send(ctx, email, msg); err != nil {
		m.log.Warn("welcome email delivery failed",
			zap.String("email", email),
			zap.Error(err))
	}
}

func (m *Mailer) send(ctx context.Context, recipient string, msg message) error {
	if !m.cfg.Enabled {
		m.log.Info("smtp disabled, logging outbound email instead",
			zap.String("to", recipient),
			zap.String("subject", msg.Subject),
			zap.String("body", msg.Text))
		return nil
	}

	out := mail.NewMsg()
	if err := out.From(m.cfg.From); err != nil {
		return fmt.Errorf("notify: set from: %w", err)
	}
	if err := out.To(recipient); err != nil {
		return fmt.Errorf("notify: set recipient: %w", err)
	}
	out.SetMessageIDWithValue(uuid.NewString() + "@" + m.cfg.Host)
	out.Subject(msg.Subject)
	out.SetBodyString(mail.TypeTextPlain, msg.Text)
	out.AddAlternativeString(mail.TypeTextHTML, msg.HTML)

	opts := []mail.Option{mail.WithPort(m.cfg.Port)}
	if m.cfg.StartTLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password))
	}

	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("notify: smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, out); err != nil {
		return fmt.Errorf("notify: send: %w", err)
	}

	return nil
}
