package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/Goofygiraffe06/authgate/internal/apperr"
	"github.com/Goofygiraffe06/authgate/internal/logging"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func respondJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.ErrorLog("JSON encoding failed: %v", err)
	}
}

// respondOK writes a 200 with an empty body.
func respondOK(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
}

// respondError maps err through the error table. op names the flow in logs.
func respondError(w http.ResponseWriter, op string, err error) {
	status, body := apperr.Translate(err)
	if status >= http.StatusInternalServerError {
		logging.ErrorLog("%s failed: %s: %v", op, body.Type, err)
	} else {
		logging.WarnLog("%s rejected: %s", op, body.Type)
	}
	respondJSON(w, status, body)
}

// decodeJSON reads a JSON object into dst and validates it. The body must
// hold exactly one JSON value. Any failure is reported as an invalid body.
func decodeJSON(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return apperr.ErrInvalidBody
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrInvalidBody, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data after JSON value", apperr.ErrInvalidBody)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrInvalidBody, err)
	}
	return nil
}
