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

// RegisterHandler signs the user up and mails a registration code.
func RegisterHandler(auth identity.Authenticator, codes verification.Store, notifier mail.Notifier, ttl time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		var req models.RegisterRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, "Registration", err)
			return
		}
		req.Email = strings.ToLower(strings.TrimSpace(req.Email))
		emailHash := utils.HashEmail(req.Email)

		reg, err := auth.Register(r.Context(), req.Email, req.Password)
		if err != nil {
			logging.DebugLog("Registration failed [%s]: %v", emailHash, err)
			respondError(w, "Registration", err)
			return
		}

		// Pools with auto-confirmation need no code
		if !reg.Confirmed {
			code, err := verification.Issue(r.Context(), codes, verification.TypeRegister, reg.Subject, ttl)
			if err != nil {
				respondError(w, "Registration", err)
				return
			}
			if err := notifier.SendVerification(r.Context(), verification.TypeRegister, req.Email, code.ID); err != nil {
				logging.ErrorLog("Registration mail not queued [%s]: %v", emailHash, err)
			}
		}

		logging.InfoLog("Registration success [%s] in %v", emailHash, time.Since(start))
		respondOK(w)
	}
}
