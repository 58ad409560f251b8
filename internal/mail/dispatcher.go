package mail

import (
	"context"
	"errors"
	"fmt"
	netmail "net/mail"
	"time"

	"github.com/Goofygiraffe06/authgate/internal/logging"
	"github.com/Goofygiraffe06/authgate/internal/utils"
	"github.com/Goofygiraffe06/authgate/internal/verification"
	"github.com/Goofygiraffe06/authgate/internal/workerpool"
)

// Notifier sends the mail that carries a verification code to its owner.
type Notifier interface {
	SendVerification(ctx context.Context, typ verification.Type, to, code string) error
}

// Options configures a Dispatcher.
type Options struct {
	From   string
	AppURL string
	// Signer is optional; nil sends unsigned mail.
	Signer *Signer
}

// Dispatcher renders verification mail on the caller's goroutine and hands
// delivery to a worker pool.
type Dispatcher struct {
	pool      *workerpool.Pool
	transport Transport
	opts      Options
	envelope  string
}

var _ Notifier = (*Dispatcher)(nil)

func NewDispatcher(pool *workerpool.Pool, transport Transport, opts Options) (*Dispatcher, error) {
	if pool == nil || transport == nil {
		return nil, errors.New("mail: pool and transport are required")
	}
	from, err := netmail.ParseAddress(opts.From)
	if err != nil {
		return nil, fmt.Errorf("mail: invalid sender %q: %w", opts.From, err)
	}
	if opts.AppURL == "" {
		return nil, errors.New("mail: app URL is required")
	}
	return &Dispatcher{pool: pool, transport: transport, opts: opts, envelope: from.Address}, nil
}

// SendVerification queues the mail. A nil error means the mail was accepted
// for delivery, not that it was delivered.
func (d *Dispatcher) SendVerification(_ context.Context, typ verification.Type, to, code string) error {
	msg, err := verificationMessage(d.opts.From, to, d.opts.AppURL, typ, code)
	if err != nil {
		return err
	}
	raw, err := msg.Bytes(time.Now())
	if err != nil {
		return err
	}
	if d.opts.Signer != nil {
		if raw, err = d.opts.Signer.Sign(raw); err != nil {
			return err
		}
	}

	rcpt := utils.HashEmail(to)
	return d.pool.Submit(func(ctx context.Context) {
		if err := d.transport.Send(ctx, d.envelope, []string{to}, raw); err != nil {
			logging.ErrorLog("Mail delivery failed type=%s [%s]: %v", typ, rcpt, err)
			return
		}
		logging.InfoLog("Mail delivered type=%s [%s]", typ, rcpt)
	})
}
