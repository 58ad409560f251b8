package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/Goofygiraffe06/authgate/internal/apperr"
	"github.com/Goofygiraffe06/authgate/internal/identity"
	"github.com/Goofygiraffe06/authgate/internal/models"
	"github.com/Goofygiraffe06/authgate/internal/verification"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

func TestTranslate(t *testing.T) {
	type payload struct {
		Email string `validate:"required,email"`
	}
	validationErr := validator.New().Struct(payload{})

	cases := []struct {
		name   string
		err    error
		status int
		typ    string
		msg    string
	}{
		{"invalid body", fmt.Errorf("decode: %w", apperr.ErrInvalidBody), http.StatusBadRequest, "TypeError", "Invalid request body"},
		{"validation", validationErr, http.StatusBadRequest, "TypeError", "Invalid request body"},
		{"user not found", identity.NewError(identity.CodeUserNotFound, "User does not exist."), http.StatusBadRequest, "UserNotFoundException", "User does not exist"},
		{"not confirmed", identity.ErrUserNotConfirmed, http.StatusBadRequest, "UserNotConfirmedException", "User is not confirmed"},
		{"not authorized", identity.ErrNotAuthorized, http.StatusBadRequest, "NotAuthorizedException", "Incorrect username or password"},
		{"invalid password", identity.ErrInvalidPassword, http.StatusBadRequest, "InvalidPasswordException", "Password does not conform to policy"},
		{"invalid parameter", identity.ErrInvalidParameter, http.StatusBadRequest, "InvalidParameterException", "Invalid parameter"},
		{"code not found", fmt.Errorf("redeem: %w", verification.ErrCodeNotFound), http.StatusNotFound, "NotFoundError", "Invalid verification code"},
		{"exists", identity.ErrUsernameExists, http.StatusConflict, "UsernameExistsException", "User already exists"},
		{"throttled", identity.NewError(identity.CodeTooManyRequests, ""), http.StatusServiceUnavailable, "TooManyRequestsException", "Too many requests"},
		{"unknown", errors.New("connection reset by peer"), http.StatusInternalServerError, "Error", "Internal server error"},
		{"unmapped provider code", identity.NewError("CodeDeliveryFailureException", "x"), http.StatusInternalServerError, "Error", "Internal server error"},
		{"nil", nil, http.StatusInternalServerError, "Error", "Internal server error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := apperr.Translate(tc.err)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, models.ErrorResponse{Type: tc.typ, Message: tc.msg}, body)
		})
	}
}

func TestTranslateDoesNotLeakProviderMessages(t *testing.T) {
	_, body := apperr.Translate(identity.NewError(identity.CodeNotAuthorized, "Password attempts exceeded"))
	assert.Equal(t, "Incorrect username or password", body.Message)
}
