package mail

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mrz1836/postmark"

	"github.com/swarnim921/Smart-Resume/internal/config"
)

// Postmark sends through the Postmark transactional API.
type Postmark struct {
	client  *postmark.Client
	from    string
	replyTo string
	ttl     time.Duration
}

func NewPostmark(cfg config.MailConfig, codeTTL time.Duration) (*Postmark, error) {
	if cfg.PostmarkServerToken == "" {
		return nil, fmt.Errorf("%w: POSTMARK_SERVER_TOKEN is required", ErrInvalidConfig)
	}
	if !validAddress(cfg.SenderEmail) {
		return nil, fmt.Errorf("%w: MAIL_SENDER must be a valid email address", ErrInvalidConfig)
	}
	return &Postmark{
		client:  postmark.NewClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken),
		from:    cfg.SenderEmail,
		replyTo: cfg.SupportEmail,
		ttl:     codeTTL,
	}, nil
}

func (p *Postmark) SendVerificationCode(ctx context.Context, address, code string) error {
	subject, body := VerificationMessage(code, p.ttl)
	resp, err := p.client.SendEmail(ctx, postmark.Email{
		From:     p.from,
		ReplyTo:  p.replyTo,
		To:       address,
		Subject:  subject,
		Tag:      "verification-code",
		TextBody: body,
	})
	if err != nil {
		return errors.Join(ErrSend, err)
	}
	if resp.ErrorCode > 0 {
		return errors.Join(ErrSend, fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message))
	}
	return nil
}
