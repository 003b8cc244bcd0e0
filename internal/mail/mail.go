// Package mail delivers verification codes. The auth service only sees the
// Sender interface; the transport is picked from MAIL_DRIVER.
package mail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/swarnim921/Smart-Resume/internal/config"
)

const (
	DriverPostmark = "postmark"
	DriverSMTP     = "smtp"
	DriverLog      = "log"

	verificationSubject = "Your TalentSync Verification Code"
)

var (
	ErrInvalidConfig = errors.New("mail: invalid configuration")
	ErrSend          = errors.New("mail: failed to send")
)

// Sender delivers a verification code to an address.
type Sender interface {
	SendVerificationCode(ctx context.Context, address, code string) error
}

// VerificationMessage renders the subject and plain text body of a code
// email.
func VerificationMessage(code string, ttl time.Duration) (string, string) {
	var b strings.Builder
	b.WriteString("Welcome to TalentSync!\n\n")
	fmt.Fprintf(&b, "Your verification code is: %s\n\n", code)
	fmt.Fprintf(&b, "This code will expire in %d minutes.\n\n", int(ttl.Minutes()))
	b.WriteString("If you didn't request this code, please ignore this email.")
	return verificationSubject, b.String()
}

func validAddress(addr string) bool {
	_, err := mail.ParseAddress(addr)
	return err == nil
}

// New builds the sender selected by cfg.Driver.
func New(cfg config.MailConfig, codeTTL time.Duration, log *slog.Logger) (Sender, error) {
	switch strings.ToLower(cfg.Driver) {
	case DriverPostmark:
		return NewPostmark(cfg, codeTTL)
	case DriverSMTP:
		return NewSMTP(cfg, codeTTL)
	case DriverLog, "":
		return NewLogSender(log), nil
	default:
		return nil, fmt.Errorf("%w: unknown driver %q", ErrInvalidConfig, cfg.Driver)
	}
}
