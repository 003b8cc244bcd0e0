package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"time"

	"github.com/dajohi/goemail"

	"github.com/swarnim921/Smart-Resume/internal/config"
)

// SMTP sends over SMTPS with goemail.
type SMTP struct {
	client  *goemail.SMTP
	name    string
	address string
	ttl     time.Duration
}

func NewSMTP(cfg config.MailConfig, codeTTL time.Duration) (*SMTP, error) {
	if cfg.SMTPHost == "" || cfg.SMTPUser == "" || cfg.SMTPPassword == "" {
		return nil, fmt.Errorf("%w: SMTP_HOST, SMTP_USER and SMTP_PASSWORD are required", ErrInvalidConfig)
	}
	from, err := mail.ParseAddress(cfg.SenderEmail)
	if err != nil {
		return nil, fmt.Errorf("%w: MAIL_SENDER: %v", ErrInvalidConfig, err)
	}
	u := &url.URL{
		Scheme: "smtps",
		User:   url.UserPassword(cfg.SMTPUser, cfg.SMTPPassword),
		Host:   cfg.SMTPHost,
	}
	tlsConfig := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: cfg.SMTPSkipVerify,
	}
	client, err := goemail.NewSMTP(u.String(), tlsConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return &SMTP{client: client, name: from.Name, address: from.Address, ttl: codeTTL}, nil
}

// SendVerificationCode ignores ctx; goemail has no cancellation.
func (s *SMTP) SendVerificationCode(_ context.Context, address, code string) error {
	subject, body := VerificationMessage(code, s.ttl)
	msg := goemail.NewMessage(s.address, subject, body)
	if s.name != "" {
		msg.SetName(s.name)
	}
	msg.AddBCC(address)
	if err := s.client.Send(msg); err != nil {
		return errors.Join(ErrSend, err)
	}
	return nil
}
