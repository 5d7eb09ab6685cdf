package mail

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrz1836/postmark"
)

var _ Sender = (*PostmarkSender)(nil)

// PostmarkConfig configures the Postmark transactional sender.
type PostmarkConfig struct {
	ServerToken  string
	AccountToken string
	From         string
}

// PostmarkSender delivers mail through the Postmark API.
type PostmarkSender struct {
	client *postmark.Client
	from   string
}

// NewPostmarkSender fails fast on missing credentials so a misconfigured
// deployment is caught at startup, not on the first registration.
func NewPostmarkSender(cfg PostmarkConfig) (*PostmarkSender, error) {
	if cfg.ServerToken == "" {
		return nil, errors.New("mail: postmark server token is required")
	}
	if cfg.From == "" {
		return nil, errors.New("mail: sender address is required")
	}
	return &PostmarkSender{
		client: postmark.NewClient(cfg.ServerToken, cfg.AccountToken),
		from:   cfg.From,
	}, nil
}

// Send implements Sender.
func (p *PostmarkSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	resp, err := p.client.SendEmail(ctx, postmark.Email{
		From:     p.from,
		To:       to,
		Subject:  subject,
		HTMLBody: htmlBody,
	})
	if err != nil {
		return fmt.Errorf("mail: send: %w", err)
	}
	if resp.ErrorCode > 0 {
		return fmt.Errorf("mail: postmark error %d: %s", resp.ErrorCode, resp.Message)
	}
	return nil
}
