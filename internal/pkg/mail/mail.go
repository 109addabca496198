package mail

import (
	"errors"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/PixelProof/internal/pkg/env"
)

// ErrNotConfigured is returned when SMTP_HOST is unset.
var ErrNotConfigured = errors.New("smtp is not configured")

// Config is the SMTP account notifications go out through.
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	Sender   string
}

// ConfigFromEnv reads the SMTP_* variables.
func ConfigFromEnv() Config {
	return Config{
		Host:     env.GetEnv("SMTP_HOST", ""),
		Port:     env.GetEnv("SMTP_PORT", "587"),
		Username: env.GetEnv("SMTP_USERNAME", ""),
		Password: env.GetEnv("SMTP_PASSWORD", ""),
		Sender:   env.GetEnv("SMTP_SENDER", ""),
	}
}

// Message builds a plain text mail with CRLF line endings. Header values
// are stripped of line breaks.
func Message(from, to, subject, body string, date time.Time) []byte {
	clean := strings.NewReplacer("\r", "", "\n", " ")
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", clean.Replace(from))
	fmt.Fprintf(&b, "To: %s\r\n", clean.Replace(to))
	fmt.Fprintf(&b, "Subject: %s\r\n", clean.Replace(subject))
	fmt.Fprintf(&b, "Date: %s\r\n", date.Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(strings.ReplaceAll(strings.ReplaceAll(body, "\r\n", "\n"), "\n", "\r\n"))
	return []byte(b.String())
}

// Send delivers one plain text mail through cfg.
func Send(cfg Config, to, subject, body string) error {
	if cfg.Host == "" {
		return ErrNotConfigured
	}
	sender := cfg.Sender
	if sender == "" {
		sender = "no-reply@" + cfg.Host
	}

	var auth smtp.Auth
	if cfg.Username != "" && cfg.Password != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	addr := cfg.Host + ":" + cfg.Port
	if err := smtp.SendMail(addr, auth, sender, []string{to}, Message(sender, to, subject, body, time.Now())); err != nil {
		return fmt.Errorf("send mail via %s: %w", addr, err)
	}
	log.Infof("[Mail] Sent %q to %s", subject, to)
	return nil
}

// SendMail sends through the account configured in the environment.
func SendMail(to, subject, body string) error {
	return Send(ConfigFromEnv(), to, subject, body)
}
