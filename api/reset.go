package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/Goofygiraffe06/authgate/internal/identity"
	"github.com/Goofygiraffe06/authgate/internal/logging"
	"github.com/Goofygiraffe06/authgate/internal/mail"
	"github.com/Goofygiraffe06/authgate/internal/models"
	"github.com/Goofygiraffe06/authgate/internal/utils"
	"github.com/Goofygiraffe06/authgate/internal/verification"
)

// ResetHandler mails a password reset code to a confirmed user. Unknown and
// unconfirmed users get the same 400 UserNotFoundException.
func ResetHandler(users identity.Manager, codes verification.Store, notifier mail.Notifier, ttl time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.ResetRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, "Reset", err)
			return
		}
		req.Username = normalizeUsername(req.Username)
		userHash := utils.HashEmail(req.Username)

		user, err := users.FindUser(r.Context(), req.Username)
		if err != nil {
			respondError(w, "Reset", err)
			return
		}
		if !user.Confirmed {
			logging.DebugLog("Reset refused for unconfirmed user [%s]", userHash)
			respondError(w, "Reset", identity.ErrUserNotFound)
			return
		}

		code, err := verification.Issue(r.Context(), codes, verification.TypeReset, user.Subject, ttl)
		if err != nil {
			respondError(w, "Reset", err)
			return
		}

		to := user.Email
		if to == "" {
			to = req.Username
		}
		if err := notifier.SendVerification(r.Context(), verification.TypeReset, to, code.ID); err != nil {
			logging.ErrorLog("Reset mail not queued [%s]: %v", userHash, err)
		}

		logging.InfoLog("Reset initiated [%s]", userHash)
		respondOK(w)
	}
}

// normalizeUsername trims the username and lowercases email addresses.
func normalizeUsername(s string) string {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "@") {
		s = strings.ToLower(s)
	}
	return s
}
