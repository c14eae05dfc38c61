package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gomail "gopkg.in/gomail.v2"

	"github.com/ridegearhq/ridegear-backend/pkg/config"
	pkgerrors "github.com/ridegearhq/ridegear-backend/pkg/errors"
	"github.com/ridegearhq/ridegear-backend/pkg/logger"
)

var errFromRequired = errors.New("smtp from address is required")

// Sender is the notification surface services depend on.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Client delivers transactional mail over an SMTP relay.
type Client struct {
	dialer *gomail.Dialer
	from   string
	logger *logger.Logger
}

// NewClient builds an SMTP mailer from config.
func NewClient(cfg config.SMTPConfig, logg *logger.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.From) == "" {
		return nil, errFromRequired
	}
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	return &Client{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   cfg.From,
		logger: logg,
	}, nil
}

// Send delivers a single plain-text message.
func (c *Client) Send(ctx context.Context, to, subject, body string) error {
	if strings.TrimSpace(to) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient is required")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", c.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := c.dialer.DialAndSend(msg); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send email").
			WithDetails(map[string]any{"step": "smtp_send"})
	}

	if c.logger != nil {
		c.logger.Info(c.logger.WithField(ctx, "recipient", to), "email sent")
	}
	return nil
}
