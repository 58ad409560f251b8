package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Goofygiraffe06/authgate/api"
	"github.com/Goofygiraffe06/authgate/internal/identity"
	"github.com/Goofygiraffe06/authgate/internal/verification"
	"github.com/Goofygiraffe06/authgate/store/ephemeral"
	"github.com/stretchr/testify/require"
)

const testOrigin = "https://id.example.com"

// fakeProvider answers with fixed values or errors and counts calls.
type fakeProvider struct {
	mu    sync.Mutex
	calls map[string]int

	registration identity.Registration
	session      identity.Session
	user         identity.User
	password     string
	verified     string

	registerErr error
	authErr     error
	refreshErr  error
	findErr     error
	verifyErr   error
	changeErr   error
}

func (f *fakeProvider) count(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[op]++
}

func (f *fakeProvider) called(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeProvider) Register(context.Context, string, string) (identity.Registration, error) {
	f.count("Register")
	return f.registration, f.registerErr
}

func (f *fakeProvider) Authenticate(context.Context, string, string) (identity.Session, error) {
	f.count("Authenticate")
	return f.session, f.authErr
}

func (f *fakeProvider) Refresh(context.Context, string) (identity.Session, error) {
	f.count("Refresh")
	return f.session, f.refreshErr
}

func (f *fakeProvider) FindUser(context.Context, string) (identity.User, error) {
	f.count("FindUser")
	return f.user, f.findErr
}

func (f *fakeProvider) VerifyUser(_ context.Context, subject string) error {
	f.count("VerifyUser")
	f.verified = subject
	return f.verifyErr
}

func (f *fakeProvider) ChangePassword(_ context.Context, _ string, password string) error {
	f.count("ChangePassword")
	f.password = password
	return f.changeErr
}

func (f *fakeProvider) DeleteUser(context.Context, string) error {
	f.count("DeleteUser")
	return nil
}

// sentMail is one verification mail handed to the notifier.
type sentMail struct {
	Type verification.Type
	To   string
	Code string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (n *fakeNotifier) SendVerification(_ context.Context, typ verification.Type, to, code string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMail{Type: typ, To: to, Code: code})
	return n.err
}

func (n *fakeNotifier) last(t *testing.T) sentMail {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	require.NotEmpty(t, n.sent, "no mail sent")
	return n.sent[len(n.sent)-1]
}

type env struct {
	provider *fakeProvider
	codes    *ephemeral.CodeStore
	notifier *fakeNotifier
	router   http.Handler
}

func newEnv(t *testing.T, p *fakeProvider) *env {
	t.Helper()
	codes := ephemeral.NewCodeStore()
	t.Cleanup(func() { codes.Close() })
	n := &fakeNotifier{}
	return &env{
		provider: p,
		codes:    codes,
		notifier: n,
		router: api.NewRouter(api.Deps{
			Auth:          p,
			Users:         p,
			Codes:         codes,
			Notifier:      n,
			AllowedOrigin: testOrigin,
			CodeTTL:       time.Hour,
			MaxBodyBytes:  1 << 10,
			RefreshMaxAge: 24 * time.Hour,
		}),
	}
}

func (e *env) post(t *testing.T, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(http.MethodPost, path, r)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

// issue stores a code directly, bypassing the handlers.
func (e *env) issue(t *testing.T, typ verification.Type, subject string) string {
	t.Helper()
	code, err := verification.Issue(context.Background(), e.codes, typ, subject, time.Hour)
	require.NoError(t, err)
	return code.ID
}
