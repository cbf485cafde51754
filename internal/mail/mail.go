package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/contactkeeper/contacts_api/internal/config"
)

// Sender dispatches account mail. Handlers call it from a background
// goroutine; a failed send is logged there and never fails the request.
type Sender interface {
	SendVerification(ctx context.Context, to, username, host, token string) error
	SendReset(ctx context.Context, to, username, host, token string) error
}

type SMTPSender struct {
	Addr     string
	Username string
	Password string
	From     string
	FromName string
	Host     string
}

func NewSMTPSender(cfg *config.Config) *SMTPSender {
	return &SMTPSender{
		Addr:     cfg.MAIL_HOST + ":" + cfg.MAIL_PORT,
		Username: cfg.MAIL_USERNAME,
		Password: cfg.MAIL_PASSWORD,
		From:     cfg.MAIL_FROM,
		FromName: cfg.MAIL_FROM_NAME,
		Host:     cfg.MAIL_HOST,
	}
}

func (s *SMTPSender) SendVerification(ctx context.Context, to, username, host, token string) error {
	link := fmt.Sprintf("%s/api/auth/confirmed_email/%s", strings.TrimRight(host, "/"), token)
	body := fmt.Sprintf(
		"Hello %s,\r\n\r\nPlease confirm your email address by opening the link below:\r\n%s\r\n\r\nThe link is valid for 7 days.\r\n",
		username, link,
	)
	return s.send(ctx, to, "Confirm your email", body)
}

func (s *SMTPSender) SendReset(ctx context.Context, to, username, host, token string) error {
	link := fmt.Sprintf("%s/reset_password?token=%s", strings.TrimRight(host, "/"), token)
	body := fmt.Sprintf(
		"Hello %s,\r\n\r\nA password reset was requested for your account. Open the link below to choose a new password:\r\n%s\r\n\r\nIf you did not request this, ignore this message.\r\n",
		username, link,
	)
	return s.send(ctx, to, "Reset your password", body)
}

func (s *SMTPSender) send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s <%s>\r\n", s.FromName, s.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(body)

	auth := smtp.PlainAuth("", s.Username, s.Password, s.Host)
	if err := smtp.SendMail(s.Addr, auth, s.From, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}
