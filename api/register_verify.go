package api

import (
	"net/http"
	"strings"

	"github.com/Goofygiraffe06/authgate/internal/identity"
	"github.com/Goofygiraffe06/authgate/internal/logging"
	"github.com/Goofygiraffe06/authgate/internal/models"
	"github.com/Goofygiraffe06/authgate/internal/utils"
	"github.com/Goofygiraffe06/authgate/internal/verification"
)

// RegisterVerifyHandler redeems a registration code and confirms its user.
func RegisterVerifyHandler(users identity.Manager, codes verification.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.RegisterVerificationRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, "Registration verify", err)
			return
		}
		req.Code = strings.ToLower(strings.TrimSpace(req.Code))

		code, err := verification.Redeem(r.Context(), codes, req.Code, verification.TypeRegister)
		if err != nil {
			respondError(w, "Registration verify", err)
			return
		}

		if err := users.VerifyUser(r.Context(), code.Subject); err != nil {
			respondError(w, "Registration verify", err)
			return
		}

		logging.InfoLog("Registration verified [%s]", utils.HashCode(code.Subject))
		respondOK(w)
	}
}
