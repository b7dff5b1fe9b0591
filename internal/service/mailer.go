package service

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/edwardnovrizal/api-panel/config"
	"github.com/edwardnovrizal/api-panel/internal/mail"
	"github.com/edwardnovrizal/api-panel/pkg/logger"
)

// Mailer sends transactional email. Sends are best-effort; callers
// treat failures as non-fatal and surface delivery status separately.
type Mailer interface {
	SendOTPEmail(to, fullName, code string) error
	SendWelcomeEmail(to, fullName string) error
	SendPasswordResetEmail(to, token string) error
	SendPasswordResetConfirmation(to, fullName string) error
}

type smtpMailer struct {
	dialer *gomail.Dialer
	cfg    config.SMTPConfig
	otpCfg config.OTPConfig
	reset  config.ResetConfig
}

func NewSMTPMailer(cfg *config.Config) Mailer {
	if !cfg.SMTP.Enabled {
		logger.GetLogger().Info("SMTP disabled, email delivery is a no-op")
		return &noopMailer{}
	}

	dialer := gomail.NewDialer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password)
	return &smtpMailer{
		dialer: dialer,
		cfg:    cfg.SMTP,
		otpCfg: cfg.OTP,
		reset:  cfg.Reset,
	}
}

func (m *smtpMailer) send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.cfg.From, m.cfg.FromName)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (m *smtpMailer) SendOTPEmail(to, fullName, code string) error {
	expiry := int(m.otpCfg.Expiry.Minutes())
	return m.send(to, "Verify your email address", mail.OTPBody(fullName, code, expiry))
}

func (m *smtpMailer) SendWelcomeEmail(to, fullName string) error {
	return m.send(to, "Welcome to API Panel", mail.WelcomeBody(fullName))
}

func (m *smtpMailer) SendPasswordResetEmail(to, token string) error {
	expiry := int(m.reset.Expiry.Minutes())
	return m.send(to, "Password reset request", mail.PasswordResetBody(token, expiry))
}

func (m *smtpMailer) SendPasswordResetConfirmation(to, fullName string) error {
	return m.send(to, "Your password was changed", mail.PasswordResetConfirmationBody(fullName))
}

// noopMailer drops all email; used when SMTP is disabled
type noopMailer struct{}

func (n *noopMailer) SendOTPEmail(to, fullName, code string) error         { return nil }
func (n *noopMailer) SendWelcomeEmail(to, fullName string) error           { return nil }
func (n *noopMailer) SendPasswordResetEmail(to, token string) error        { return nil }
func (n *noopMailer) SendPasswordResetConfirmation(to, fullName string) error {
	return nil
}
