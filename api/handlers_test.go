package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Goofygiraffe06/authgate/api"
	"github.com/Goofygiraffe06/authgate/internal/identity"
	"github.com/Goofygiraffe06/authgate/internal/models"
	"github.com/Goofygiraffe06/authgate/internal/verification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var body models.ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	return body
}

var invalidBody = models.ErrorResponse{Type: "TypeError", Message: "Invalid request body"}

func TestMalformedBodiesNeverReachCollaborators(t *testing.T) {
	routes := []string{"/register", "/register/verify", "/reset", "/reset/verify", "/authenticate"}
	bodies := map[string]any{
		"empty":      nil,
		"not json":   "email=alice",
		"array":      "[]",
		"string":     `"hello"`,
		"empty obj":  "{}",
		"null":       "null",
		"wrong type": `{"email": 42, "password": true, "username": [], "code": {}}`,
		"too large":  `{"email":"` + strings.Repeat("a", 2048) + `"}`,
		"trailing":   `{"email":"alice@example.com","password":"Secret123!","username":"alice@example.com","code":"c0ffee"} /not-json`,
		"two values": `{"username":"alice@example.com"}{"username":"bob@example.com"}`,
	}

	for _, route := range routes {
		for name, body := range bodies {
			t.Run(route+"/"+name, func(t *testing.T) {
				e := newEnv(t, &fakeProvider{})
				rr := e.post(t, route, body)

				assert.Equal(t, http.StatusBadRequest, rr.Code)
				assert.Equal(t, invalidBody, decodeError(t, rr))
				assert.Equal(t, testOrigin, rr.Header().Get("Access-Control-Allow-Origin"))
				assert.Empty(t, e.provider.calls)
				assert.Zero(t, e.codes.Len())
			})
		}
	}
}

func TestTrailingDataAfterValidBody(t *testing.T) {
	e := newEnv(t, &fakeProvider{user: identity.User{Subject: "sub-1", Email: "alice@example.com", Confirmed: true}})

	rr := e.post(t, "/reset", `{"username":"alice@example.com"} /not-json`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, invalidBody, decodeError(t, rr))
	assert.Zero(t, e.provider.called("FindUser"))
	assert.Empty(t, e.notifier.sent)

	rr = e.post(t, "/reset", "{\"username\":\"alice@example.com\"}\n  ")
	assert.Equal(t, http.StatusOK, rr.Code, "trailing whitespace is fine")
	assert.Equal(t, 1, e.provider.called("FindUser"))
}

func TestRegister(t *testing.T) {
	t.Run("issues code and mails it", func(t *testing.T) {
		e := newEnv(t, &fakeProvider{registration: identity.Registration{Subject: "sub-1"}})
		rr := e.post(t, "/register", map[string]string{"email": " Alice@Example.com ", "password": "Secret123!"})

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Empty(t, rr.Body.String())
		assert.Equal(t, testOrigin, rr.Header().Get("Access-Control-Allow-Origin"))

		m := e.notifier.last(t)
		assert.Equal(t, verification.TypeRegister, m.Type)
		assert.Equal(t, "alice@example.com", m.To)
		code, ok := e.codes.Peek(m.Code)
		require.True(t, ok)
		assert.Equal(t, "sub-1", code.Subject)
	})

	t.Run("auto-confirmed users get no code", func(t *testing.T) {
		e := newEnv(t, &fakeProvider{registration: identity.Registration{Subject: "sub-1", Confirmed: true}})
		rr := e.post(t, "/register", map[string]string{"email": "alice@example.com", "password": "Secret123!"})

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Empty(t, e.notifier.sent)
		assert.Zero(t, e.codes.Len())
	})

	t.Run("mail failure does not change outcome", func(t *testing.T) {
		e := newEnv(t, &fakeProvider{registration: identity.Registration{Subject: "sub-1"}})
		e.notifier.err = errors.New("queue full")
		rr := e.post(t, "/register", map[string]string{"email": "alice@example.com", "password": "Secret123!"})
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("existing user", func(t *testing.T) {
		e := newEnv(t, &fakeProvider{registerErr: identity.NewError(identity.CodeUsernameExists, "exists")})
		rr := e.post(t, "/register", map[string]string{"email": "alice@example.com", "password": "Secret123!"})

		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.Equal(t, models.ErrorResponse{Type: "UsernameExistsException", Message: "User already exists"}, decodeError(t, rr))
		assert.Equal(t, testOrigin, rr.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("weak password", func(t *testing.T) {
		e := newEnv(t, &fakeProvider{registerErr: identity.ErrInvalidPassword})
		rr := e.post(t, "/register", map[string]string{"email": "alice@example.com", "password": "short"})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "InvalidPasswordException", decodeError(t, rr).Type)
	})

	t.Run("invalid email", func(t *testing.T) {
		e := newEnv(t, &fakeProvider{})
		rr := e.post(t, "/register", map[string]string{"email": "alice", "password": "Secret123!"})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Zero(t, e.provider.called("Register"))
	})

	t.Run("unexpected failure", func(t *testing.T) {
		e := newEnv(t, &fakeProvider{registerErr: errors.New("connection refused")})
		rr := e.post(t, "/register", map[string]string{"email": "alice@example.com", "password": "Secret123!"})
		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Equal(t, models.ErrorResponse{Type: "Error", Message: "Internal server error"}, decodeError(t, rr))
	})
}

func TestRegisterVerify(t *testing.T) {
	e := newEnv(t, &fakeProvider{})
	id := e.issue(t, verification.TypeRegister, "sub-1")

	rr := e.post(t, "/register/verify", map[string]string{"code": strings.ToUpper(id)})
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Body.String())
	assert.Equal(t, "sub-1", e.provider.verified)

	// single use
	rr = e.post(t, "/register/verify", map[string]string{"code": id})
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, models.ErrorResponse{Type: "NotFoundError", Message: "Invalid verification code"}, decodeError(t, rr))
	assert.Equal(t, 1, e.provider.called("VerifyUser"))
}

func TestRegisterVerifyRejectsResetCode(t *testing.T) {
	e := newEnv(t, &fakeProvider{})
	id := e.issue(t, verification.TypeReset, "sub-1")

	rr := e.post(t, "/register/verify", map[string]string{"code": id})
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Zero(t, e.provider.called("VerifyUser"))
}

func TestRegisterVerifyUserGone(t *testing.T) {
	e := newEnv(t, &fakeProvider{verifyErr: identity.ErrUserNotFound})
	id := e.issue(t, verification.TypeRegister, "sub-1")

	rr := e.post(t, "/register/verify", map[string]string{"code": id})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, models.ErrorResponse{Type: "UserNotFoundException", Message: "User does not exist"}, decodeError(t, rr))
}

func TestReset(t *testing.T) {
	t.Run("confirmed user", func(t *testing.T) {
		e := newEnv(t, &fakeProvider{user: identity.User{Subject: "sub-1", Email: "alice@example.com", Confirmed: true}})
		rr := e.post(t, "/reset", map[string]string{"username": "alice@example.com"})

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Empty(t, rr.Body.String())
		assert.Equal(t, testOrigin, rr.Header().Get("Access-Control-Allow-Origin"))

		m := e.notifier.last(t)
		assert.Equal(t, verification.TypeReset, m.Type)
		assert.Equal(t, "alice@example.com", m.To)
		code, ok := e.codes.Peek(m.Code)
		require.True(t, ok)
		assert.Equal(t, verification.TypeReset, code.Type)
		assert.Equal(t, "sub-1", code.Subject)
	})

	for name, p := range map[string]*fakeProvider{
		"unknown user":     {findErr: identity.NewError(identity.CodeUserNotFound, "User does not exist.")},
		"unconfirmed user": {user: identity.User{Subject: "sub-1", Email: "alice@example.com"}},
	} {
		t.Run(name, func(t *testing.T) {
			e := newEnv(t, p)
			rr := e.post(t, "/reset", map[string]string{"username": "alice@example.com"})

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, models.ErrorResponse{Type: "UserNotFoundException", Message: "User does not exist"}, decodeError(t, rr))
			assert.Empty(t, e.notifier.sent)
			assert.Zero(t, e.codes.Len())
		})
	}

	t.Run("throttled", func(t *testing.T) {
		e := newEnv(t, &fakeProvider{findErr: identity.NewError(identity.CodeTooManyRequests, "slow down")})
		rr := e.post(t, "/reset", map[string]string{"username": "alice@example.com"})
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	})
}

func TestResetVerify(t *testing.T) {
	e := newEnv(t, &fakeProvider{})
	id := e.issue(t, verification.TypeReset, "sub-1")

	rr := e.post(t, "/reset/verify", map[string]string{"code": id, "password": "Changed456!"})
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Changed456!", e.provider.password)

	rr = e.post(t, "/reset/verify", map[string]string{"code": id, "password": "Changed456!"})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestResetVerifyRejectedPasswordKeepsCode(t *testing.T) {
	e := newEnv(t, &fakeProvider{changeErr: identity.NewError(identity.CodeInvalidPassword, "too short")})
	id := e.issue(t, verification.TypeReset, "sub-1")

	rr := e.post(t, "/reset/verify", map[string]string{"code": id, "password": "short"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "InvalidPasswordException", decodeError(t, rr).Type)

	_, ok := e.codes.Peek(id)
	assert.True(t, ok, "code should survive a rejected password")
}

func TestResetVerifyFailureBurnsCode(t *testing.T) {
	e := newEnv(t, &fakeProvider{changeErr: errors.New("boom")})
	id := e.issue(t, verification.TypeReset, "sub-1")

	rr := e.post(t, "/reset/verify", map[string]string{"code": id, "password": "Changed456!"})
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	_, ok := e.codes.Peek(id)
	assert.False(t, ok)
}

func TestAuthenticate(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	session := identity.Session{AccessToken: "access", IDToken: "id", RefreshToken: "refresh", ExpiresAt: exp}

	t.Run("without remember", func(t *testing.T) {
		e := newEnv(t, &fakeProvider{session: session})
		rr := e.post(t, "/authenticate", map[string]any{"username": "alice@example.com", "password": "Secret123!"})

		require.Equal(t, http.StatusOK, rr.Code)
		var body models.SessionResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
		assert.Equal(t, models.SessionResponse{IDToken: "id", AccessToken: "access", Expires: exp.Unix()}, body)
		assert.Empty(t, rr.Result().Cookies())
	})

	t.Run("with remember", func(t *testing.T) {
		e := newEnv(t, &fakeProvider{session: session})
		rr := e.post(t, "/authenticate", map[string]any{"username": "alice@example.com", "password": "Secret123!", "remember": true})

		require.Equal(t, http.StatusOK, rr.Code)
		cookies := rr.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, api.RefreshCookie, cookies[0].Name)
		assert.Equal(t, "refresh", cookies[0].Value)
		assert.True(t, cookies[0].HttpOnly)
		assert.True(t, cookies[0].Secure)
	})

	t.Run("wrong password", func(t *testing.T) {
		e := newEnv(t, &fakeProvider{authErr: identity.ErrNotAuthorized})
		rr := e.post(t, "/authenticate", map[string]any{"username": "alice@example.com", "password": "nope"})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, models.ErrorResponse{Type: "NotAuthorizedException", Message: "Incorrect username or password"}, decodeError(t, rr))
	})

	t.Run("unconfirmed", func(t *testing.T) {
		e := newEnv(t, &fakeProvider{authErr: identity.ErrUserNotConfirmed})
		rr := e.post(t, "/authenticate", map[string]any{"username": "alice@example.com", "password": "Secret123!"})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "UserNotConfirmedException", decodeError(t, rr).Type)
	})
}

func TestRefresh(t *testing.T) {
	session := identity.Session{AccessToken: "access2", IDToken: "id2", ExpiresAt: time.Now().Add(time.Hour)}

	t.Run("missing cookie", func(t *testing.T) {
		e := newEnv(t, &fakeProvider{session: session})
		rr := e.post(t, "/authenticate/refresh", nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "NotAuthorizedException", decodeError(t, rr).Type)
		assert.Zero(t, e.provider.called("Refresh"))
	})

	t.Run("valid cookie", func(t *testing.T) {
		e := newEnv(t, &fakeProvider{session: session})
		req := httptest.NewRequest(http.MethodPost, "/authenticate/refresh", nil)
		req.AddCookie(&http.Cookie{Name: api.RefreshCookie, Value: "refresh"})
		rr := httptest.NewRecorder()
		e.router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var body models.SessionResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
		assert.Equal(t, "access2", body.AccessToken)
	})

	t.Run("revoked token clears cookie", func(t *testing.T) {
		e := newEnv(t, &fakeProvider{refreshErr: identity.ErrNotAuthorized})
		req := httptest.NewRequest(http.MethodPost, "/authenticate/refresh", nil)
		req.AddCookie(&http.Cookie{Name: api.RefreshCookie, Value: "stale"})
		rr := httptest.NewRecorder()
		e.router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		cookies := rr.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, -1, cookies[0].MaxAge)
	})
}

func TestHealthAndPreflight(t *testing.T) {
	e := newEnv(t, &fakeProvider{})

	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	assert.Equal(t, testOrigin, rr.Header().Get("Access-Control-Allow-Origin"))

	req := httptest.NewRequest(http.MethodOptions, "/register", nil)
	req.Header.Set("Origin", testOrigin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	rr = httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	assert.Less(t, rr.Code, 300)
	assert.Equal(t, testOrigin, rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
}

func TestHealthReportsReadiness(t *testing.T) {
	var down error
	router := api.NewRouter(api.Deps{
		AllowedOrigin: testOrigin,
		Ready:         func(context.Context) error { return down },
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())

	down = errors.New("database is locked")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.JSONEq(t, `{"status":"unavailable"}`, rr.Body.String())
	assert.Equal(t, testOrigin, rr.Header().Get("Access-Control-Allow-Origin"))
}
