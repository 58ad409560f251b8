package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/Goofygiraffe06/authgate/internal/logging"
	"github.com/Goofygiraffe06/authgate/internal/utils"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
)

// Transport delivers a rendered message.
type Transport interface {
	Send(ctx context.Context, from string, to []string, msg []byte) error
}

// SMTPTransport submits mail to a relay, one connection per message.
type SMTPTransport struct {
	Addr     string
	Username string
	Password string
	StartTLS bool
	// TLSConfig is used for STARTTLS; nil uses the defaults.
	TLSConfig *tls.Config
	// Timeout bounds each SMTP command; zero keeps the go-smtp default.
	Timeout time.Duration
}

func (t *SMTPTransport) dial() (*smtp.Client, error) {
	if t.StartTLS {
		return smtp.DialStartTLS(t.Addr, t.TLSConfig)
	}
	return smtp.Dial(t.Addr)
}

func (t *SMTPTransport) Send(ctx context.Context, from string, to []string, msg []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c, err := t.dial()
	if err != nil {
		return fmt.Errorf("smtp dial %s: %w", t.Addr, err)
	}
	defer c.Close()
	if t.Timeout > 0 {
		c.CommandTimeout = t.Timeout
		c.SubmissionTimeout = t.Timeout
	}

	if t.Username != "" {
		if err := c.Auth(sasl.NewPlainClient("", t.Username, t.Password)); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := c.SendMail(from, to, bytes.NewReader(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return c.Quit()
}

// LogTransport stands in when no relay is configured: it drops the message
// and records that it would have been sent.
type LogTransport struct{}

func (LogTransport) Send(_ context.Context, _ string, to []string, msg []byte) error {
	for _, rcpt := range to {
		logging.InfoLog("Mail delivery disabled; dropped %d byte message [%s]", len(msg), utils.HashEmail(rcpt))
	}
	return nil
}
