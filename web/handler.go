package web

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/Goofygiraffe06/authgate/internal/logging"
	"github.com/Goofygiraffe06/authgate/internal/models"
	"github.com/go-chi/chi/v5"
)

//go:embed templates/*.html
var templateFS embed.FS

const maxFormBytes = 64 << 10

// page is the data every template receives. Submission is nil until the
// form is posted.
type page struct {
	Title      string
	Base       string
	Success    string
	Submission *Submission
	Form       map[string]string
}

// API is the subset of Client the pages call.
type API interface {
	Register(ctx context.Context, email, password string) error
	VerifyRegistration(ctx context.Context, code string) error
	Reset(ctx context.Context, username string) error
	VerifyReset(ctx context.Context, code, password string) error
	Authenticate(ctx context.Context, username, password string, remember bool) (Session, error)
}

// SessionCookie carries the access token of a signed-in browser.
const SessionCookie = "authgate_session"

var _ API = (*Client)(nil)

var invalidForm = models.ErrorResponse{Type: "TypeError", Message: "Invalid request body"}

type handler struct {
	api   API
	base  string
	pages map[string]*template.Template
}

// NewHandler returns the application router. base is the path it is mounted
// under and prefixes navigation links.
func NewHandler(api API, base string) (http.Handler, error) {
	h := &handler{api: api, base: strings.TrimRight(base, "/"), pages: map[string]*template.Template{}}
	for _, name := range []string{"register", "register_verify", "reset", "reset_verify", "authenticate"} {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		h.pages[name] = t
	}

	r := chi.NewRouter()
	r.Get("/register", h.show("register", "Create account"))
	r.Post("/register", h.register)
	r.Get("/register/{code}", h.registerVerifyPending)
	r.Post("/register/{code}", h.registerVerify)
	r.Get("/reset", h.show("reset", "Reset password"))
	r.Post("/reset", h.reset)
	r.Get("/reset/{code}", h.show("reset_verify", "Choose a new password"))
	r.Post("/reset/{code}", h.resetVerify)
	r.Get("/authenticate", h.show("authenticate", "Sign in"))
	r.Post("/authenticate", h.authenticate)
	return r, nil
}

func (h *handler) render(w http.ResponseWriter, name string, p page) {
	p.Base = h.base
	status := http.StatusOK
	if p.Submission != nil && p.Submission.IsError() {
		status = p.Submission.Err().Status
	}

	var buf bytes.Buffer
	if err := h.pages[name].ExecuteTemplate(&buf, "layout", p); err != nil {
		logging.ErrorLog("Web render %s failed: %v", name, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (h *handler) show(name, title string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.render(w, name, page{Title: title})
	}
}

// parseForm reads the posted form. Oversized or unreadable forms settle the
// submission as an invalid body.
func parseForm(w http.ResponseWriter, r *http.Request, s *Submission) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		s.Reject(&APIError{Status: http.StatusBadRequest, ErrorResponse: invalidForm})
		return false
	}
	return true
}

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	p := page{Title: "Create account", Success: "Check your inbox to verify your email address.", Submission: &Submission{}}
	if parseForm(w, r, p.Submission) {
		email := strings.TrimSpace(r.PostFormValue("email"))
		p.Form = map[string]string{"email": email}
		p.Submission.Settle(nil, h.api.Register(r.Context(), email, r.PostFormValue("password")))
	}
	h.render(w, "register", p)
}

// registerVerifyPending renders the pending view, which submits itself.
func (h *handler) registerVerifyPending(w http.ResponseWriter, r *http.Request) {
	h.render(w, "register_verify", page{Title: "Verify email address", Submission: &Submission{}})
}

func (h *handler) registerVerify(w http.ResponseWriter, r *http.Request) {
	p := page{Title: "Verify email address", Success: "Your email address is verified. You can now sign in.", Submission: &Submission{}}
	p.Submission.Settle(nil, h.api.VerifyRegistration(r.Context(), chi.URLParam(r, "code")))
	h.render(w, "register_verify", p)
}

func (h *handler) reset(w http.ResponseWriter, r *http.Request) {
	p := page{Title: "Reset password", Success: "Check your inbox for a link to reset your password.", Submission: &Submission{}}
	if parseForm(w, r, p.Submission) {
		username := strings.TrimSpace(r.PostFormValue("username"))
		p.Form = map[string]string{"username": username}
		p.Submission.Settle(nil, h.api.Reset(r.Context(), username))
	}
	h.render(w, "reset", p)
}

func (h *handler) resetVerify(w http.ResponseWriter, r *http.Request) {
	p := page{Title: "Choose a new password", Success: "Your password has been changed. You can now sign in.", Submission: &Submission{}}
	if parseForm(w, r, p.Submission) {
		err := h.api.VerifyReset(r.Context(), chi.URLParam(r, "code"), r.PostFormValue("password"))
		p.Submission.Settle(nil, err)
	}
	h.render(w, "reset_verify", p)
}

func (h *handler) authenticate(w http.ResponseWriter, r *http.Request) {
	p := page{Title: "Sign in", Success: "You are signed in.", Submission: &Submission{}}
	if parseForm(w, r, p.Submission) {
		username := strings.TrimSpace(r.PostFormValue("username"))
		p.Form = map[string]string{"username": username}
		session, err := h.api.Authenticate(r.Context(), username, r.PostFormValue("password"), r.PostFormValue("remember") == "true")
		if err == nil {
			h.startSession(w, r, session)
		}
		p.Submission.Settle(session.SessionResponse, err)
	}
	h.render(w, "authenticate", p)
}

// startSession stores the access token in an HTTP-only cookie scoped to the
// app and passes on the cookies the API set, so a remembered session keeps
// its refresh token.
func (h *handler) startSession(w http.ResponseWriter, r *http.Request, s Session) {
	path := h.base
	if path == "" {
		path = "/"
	}
	c := &http.Cookie{
		Name:     SessionCookie,
		Value:    s.AccessToken,
		Path:     path,
		HttpOnly: true,
		Secure:   r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https",
		SameSite: http.SameSiteLaxMode,
	}
	if s.Expires > 0 {
		c.Expires = time.Unix(s.Expires, 0)
		c.MaxAge = int(time.Until(c.Expires).Seconds())
		if c.MaxAge <= 0 {
			c.MaxAge = -1
		}
	}
	http.SetCookie(w, c)
	for _, fwd := range s.Cookies {
		http.SetCookie(w, fwd)
	}
}
