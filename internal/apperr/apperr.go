// Package apperr maps failures to HTTP statuses and error bodies.
package apperr

import (
	"errors"
	"net/http"

	"github.com/Goofygiraffe06/authgate/internal/identity"
	"github.com/Goofygiraffe06/authgate/internal/models"
	"github.com/Goofygiraffe06/authgate/internal/verification"
	"github.com/go-playground/validator/v10"
)

// Failure types that do not come from the identity provider.
const (
	TypeInvalidBody = "TypeError"
	TypeNotFound    = "NotFoundError"
	TypeUnknown     = "Error"
)

// ErrInvalidBody marks a request body that could not be decoded.
var ErrInvalidBody = errors.New("invalid request body")

type entry struct {
	status  int
	message string
}

var unknown = entry{http.StatusInternalServerError, "Internal server error"}

var table = map[string]entry{
	TypeInvalidBody:               {http.StatusBadRequest, "Invalid request body"},
	identity.CodeUserNotFound:     {http.StatusBadRequest, "User does not exist"},
	identity.CodeUserNotConfirmed: {http.StatusBadRequest, "User is not confirmed"},
	identity.CodeNotAuthorized:    {http.StatusBadRequest, "Incorrect username or password"},
	identity.CodeInvalidPassword:  {http.StatusBadRequest, "Password does not conform to policy"},
	identity.CodeInvalidParameter: {http.StatusBadRequest, "Invalid parameter"},
	TypeNotFound:                  {http.StatusNotFound, "Invalid verification code"},
	identity.CodeUsernameExists:   {http.StatusConflict, "User already exists"},
	identity.CodeTooManyRequests:  {http.StatusServiceUnavailable, "Too many requests"},
	TypeUnknown:                   unknown,
}

// Translate returns the status and body for err. Unrecognized errors map to
// a 500 with a generic message so internals never leak to clients.
func Translate(err error) (int, models.ErrorResponse) {
	typ := Type(err)
	e, ok := table[typ]
	if !ok {
		typ, e = TypeUnknown, unknown
	}
	return e.status, models.ErrorResponse{Type: typ, Message: e.message}
}

// Type classifies err by failure identifier.
func Type(err error) string {
	var (
		ie *identity.Error
		ve validator.ValidationErrors
	)
	switch {
	case err == nil:
		return TypeUnknown
	case errors.Is(err, ErrInvalidBody), errors.As(err, &ve):
		return TypeInvalidBody
	case errors.Is(err, verification.ErrCodeNotFound):
		return TypeNotFound
	case errors.As(err, &ie):
		return ie.Code
	}
	return TypeUnknown
}
