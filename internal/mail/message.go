// Package mail composes, signs and delivers verification mail.
package mail

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"mime/quotedprintable"
	netmail "net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/Goofygiraffe06/authgate/internal/verification"
	"github.com/google/uuid"
)

// Message is a single-part plain text mail.
type Message struct {
	From    string
	To      string
	Subject string
	Body    string
}

// Bytes renders m as an RFC 5322 message with CRLF line endings.
func (m Message) Bytes(now time.Time) ([]byte, error) {
	from, err := netmail.ParseAddress(m.From)
	if err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}
	to, err := netmail.ParseAddress(m.To)
	if err != nil {
		return nil, fmt.Errorf("invalid to address: %w", err)
	}

	var b bytes.Buffer
	header := func(k, v string) { fmt.Fprintf(&b, "%s: %s\r\n", k, v) }
	header("From", from.String())
	header("To", to.String())
	header("Subject", mime.QEncoding.Encode("utf-8", m.Subject))
	header("Date", now.Format(time.RFC1123Z))
	header("Message-ID", fmt.Sprintf("<%s@%s>", uuid.NewString(), domainOf(from.Address)))
	header("MIME-Version", "1.0")
	header("Content-Type", `text/plain; charset="utf-8"`)
	header("Content-Transfer-Encoding", "quoted-printable")
	b.WriteString("\r\n")

	qp := quotedprintable.NewWriter(&b)
	if _, err := qp.Write([]byte(m.Body)); err != nil {
		return nil, err
	}
	if err := qp.Close(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// Link returns the web application URL that redeems code.
func Link(appURL string, typ verification.Type, code string) string {
	return strings.TrimRight(appURL, "/") + "/" + string(typ) + "/" + url.PathEscape(code)
}

var errUnknownType = errors.New("unknown verification type")

// verificationMessage builds the mail carrying a verification link.
func verificationMessage(from, to, appURL string, typ verification.Type, code string) (Message, error) {
	link := Link(appURL, typ, code)
	m := Message{From: from, To: to}
	switch typ {
	case verification.TypeRegister:
		m.Subject = "Verify your email address"
		m.Body = "Thanks for signing up. Open the link below to verify your email address:\n\n" +
			link + "\n\nIf you did not sign up, you can ignore this message.\n"
	case verification.TypeReset:
		m.Subject = "Reset your password"
		m.Body = "Someone asked to reset the password of your account. Open the link below to choose a new one:\n\n" +
			link + "\n\nIf this was not you, you can ignore this message.\n"
	default:
		return Message{}, fmt.Errorf("%w: %q", errUnknownType, typ)
	}
	return m, nil
}

func domainOf(addr string) string {
	if i := strings.LastIndex(addr, "@"); i >= 0 {
		return strings.ToLower(addr[i+1:])
	}
	return "localhost"
}
