package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/Goofygiraffe06/authgate/internal/identity"
	"github.com/Goofygiraffe06/authgate/internal/logging"
	"github.com/Goofygiraffe06/authgate/internal/models"
	"github.com/Goofygiraffe06/authgate/internal/utils"
)

// RefreshCookie holds the refresh token of a remembered session.
const RefreshCookie = "authgate_refresh"

// CookieOptions controls the refresh token cookie.
type CookieOptions struct {
	Secure bool
	MaxAge time.Duration
}

func (o CookieOptions) set(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookie,
		Value:    token,
		Path:     "/authenticate",
		MaxAge:   int(o.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   o.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (o CookieOptions) clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookie,
		Path:     "/authenticate",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   o.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func sessionResponse(s identity.Session) models.SessionResponse {
	return models.SessionResponse{
		IDToken:     s.IDToken,
		AccessToken: s.AccessToken,
		Expires:     s.ExpiresAt.Unix(),
	}
}

// AuthenticateHandler signs the user in. With remember set, the refresh
// token is stored in an HTTP-only cookie.
func AuthenticateHandler(auth identity.Authenticator, cookies CookieOptions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		var req models.AuthenticateRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, "Authentication", err)
			return
		}
		req.Username = normalizeUsername(req.Username)
		userHash := utils.HashEmail(req.Username)

		session, err := auth.Authenticate(r.Context(), req.Username, req.Password)
		if err != nil {
			logging.DebugLog("Authentication failed [%s]: %v", userHash, err)
			respondError(w, "Authentication", err)
			return
		}

		if req.Remember && session.RefreshToken != "" {
			cookies.set(w, session.RefreshToken)
		}

		logging.InfoLog("Authentication success [%s] in %v", userHash, time.Since(start))
		respondJSON(w, http.StatusOK, sessionResponse(session))
	}
}

// RefreshHandler exchanges the refresh token cookie for new tokens.
func RefreshHandler(auth identity.Authenticator, cookies CookieOptions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(RefreshCookie)
		if err != nil || c.Value == "" {
			respondError(w, "Refresh", identity.NewError(identity.CodeNotAuthorized, "missing refresh token"))
			return
		}

		session, err := auth.Refresh(r.Context(), c.Value)
		if err != nil {
			if errors.Is(err, identity.ErrNotAuthorized) {
				cookies.clear(w)
			}
			respondError(w, "Refresh", err)
			return
		}

		if session.RefreshToken != "" {
			cookies.set(w, session.RefreshToken)
		}
		respondJSON(w, http.StatusOK, sessionResponse(session))
	}
}
