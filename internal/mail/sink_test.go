package mail_test

import (
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/stretchr/testify/require"
)

// delivery is one message accepted by the sink.
type delivery struct {
	From string
	To   []string
	Data []byte
}

// sink is an in-process SMTP server that records what it receives.
type sink struct {
	addr      string
	username  string
	password  string
	mu        sync.Mutex
	delivered chan delivery
}

func newSink(t *testing.T, username, password string) *sink {
	t.Helper()
	k := &sink{username: username, password: password, delivered: make(chan delivery, 8)}

	s := smtp.NewServer(k)
	s.Domain = "localhost"
	s.ReadTimeout = 5 * time.Second
	s.WriteTimeout = 5 * time.Second
	s.AllowInsecureAuth = true

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	k.addr = ln.Addr().String()
	go func() { _ = s.Serve(ln) }()
	t.Cleanup(func() { _ = s.Close() })
	return k
}

func (k *sink) next(t *testing.T) delivery {
	t.Helper()
	select {
	case d := <-k.delivered:
		return d
	case <-time.After(5 * time.Second):
		t.Fatal("no message delivered")
		return delivery{}
	}
}

func (k *sink) NewSession(*smtp.Conn) (smtp.Session, error) {
	return &sinkSession{sink: k}, nil
}

type sinkSession struct {
	sink   *sink
	authed bool
	from   string
	to     []string
}

func (s *sinkSession) AuthMechanisms() []string { return []string{sasl.Plain} }

func (s *sinkSession) Auth(string) (sasl.Server, error) {
	return sasl.NewPlainServer(func(_, username, password string) error {
		if username != s.sink.username || password != s.sink.password {
			return errors.New("invalid credentials")
		}
		s.authed = true
		return nil
	}), nil
}

func (s *sinkSession) Mail(from string, _ *smtp.MailOptions) error {
	if s.sink.username != "" && !s.authed {
		return smtp.ErrAuthRequired
	}
	s.from = from
	return nil
}

func (s *sinkSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.to = append(s.to, to)
	return nil
}

func (s *sinkSession) Data(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.sink.delivered <- delivery{From: s.from, To: s.to, Data: data}
	return nil
}

func (s *sinkSession) Reset() {
	s.from = ""
	s.to = nil
}

func (s *sinkSession) Logout() error { return nil }
