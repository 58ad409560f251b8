package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Goofygiraffe06/authgate/internal/identity"
	"github.com/Goofygiraffe06/authgate/internal/logging"
	"github.com/Goofygiraffe06/authgate/internal/models"
	"github.com/Goofygiraffe06/authgate/internal/utils"
	"github.com/Goofygiraffe06/authgate/internal/verification"
)

// ResetVerifyHandler redeems a reset code and sets the new password.
func ResetVerifyHandler(users identity.Manager, codes verification.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.ResetVerificationRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, "Reset verify", err)
			return
		}
		req.Code = strings.ToLower(strings.TrimSpace(req.Code))

		code, err := verification.Redeem(r.Context(), codes, req.Code, verification.TypeReset)
		if err != nil {
			respondError(w, "Reset verify", err)
			return
		}
		subjectHash := utils.HashCode(code.Subject)

		if err := users.ChangePassword(r.Context(), code.Subject, req.Password); err != nil {
			// A rejected password leaves the code usable for another attempt
			if errors.Is(err, identity.ErrInvalidPassword) || errors.Is(err, identity.ErrInvalidParameter) {
				if perr := codes.Put(r.Context(), code); perr != nil {
					logging.ErrorLog("Reset verify could not restore code [%s]: %v", subjectHash, perr)
				}
			}
			respondError(w, "Reset verify", err)
			return
		}

		logging.InfoLog("Password reset [%s]", subjectHash)
		respondOK(w)
	}
}
