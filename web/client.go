package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Goofygiraffe06/authgate/internal/logging"
	"github.com/Goofygiraffe06/authgate/internal/models"
)

// APIError is a failed API call as the pages render it.
type APIError struct {
	Status int
	models.ErrorResponse
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Type, e.Message)
}

// errUnreachable is rendered when the API cannot be reached at all.
var errUnreachable = &APIError{
	Status:        http.StatusBadGateway,
	ErrorResponse: models.ErrorResponse{Type: "Error", Message: "Service unavailable"},
}

func asAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return errUnreachable
}

// Client calls the authgate API at its invoke URL.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client for baseURL. A nil httpClient uses one with a
// 15s timeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// Session is a successful sign-in. Cookies are the ones the API set on its
// response, such as the refresh token of a remembered session.
type Session struct {
	models.SessionResponse
	Cookies []*http.Cookie
}

func (c *Client) Register(ctx context.Context, email, password string) error {
	_, err := c.post(ctx, "/register", models.RegisterRequest{Email: email, Password: password}, nil)
	return err
}

func (c *Client) VerifyRegistration(ctx context.Context, code string) error {
	_, err := c.post(ctx, "/register/verify", models.RegisterVerificationRequest{Code: code}, nil)
	return err
}

func (c *Client) Reset(ctx context.Context, username string) error {
	_, err := c.post(ctx, "/reset", models.ResetRequest{Username: username}, nil)
	return err
}

func (c *Client) VerifyReset(ctx context.Context, code, password string) error {
	_, err := c.post(ctx, "/reset/verify", models.ResetVerificationRequest{Code: code, Password: password}, nil)
	return err
}

func (c *Client) Authenticate(ctx context.Context, username, password string, remember bool) (Session, error) {
	var session Session
	cookies, err := c.post(ctx, "/authenticate", models.AuthenticateRequest{
		Username: username,
		Password: password,
		Remember: remember,
	}, &session.SessionResponse)
	if err != nil {
		return Session{}, err
	}
	session.Cookies = cookies
	return session, nil
}

// post sends body as JSON and returns the cookies of a 2xx answer. Non-2xx
// answers become *APIError; out, when set, receives a 2xx JSON body.
func (c *Client) post(ctx context.Context, path string, body, out any) ([]*http.Cookie, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		logging.ErrorLog("Web client: POST %s failed: %v", path, err)
		return nil, fmt.Errorf("post %s: %w", path, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", path, err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		apiErr := &APIError{Status: res.StatusCode}
		if json.Unmarshal(data, &apiErr.ErrorResponse) != nil || apiErr.Message == "" {
			apiErr.Type = "Error"
			apiErr.Message = http.StatusText(res.StatusCode)
		}
		return nil, apiErr
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return nil, fmt.Errorf("decode %s response: %w", path, err)
		}
	}
	return res.Cookies(), nil
}
