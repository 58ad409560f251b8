package cognito

import (
	"errors"

	"github.com/Goofygiraffe06/authgate/internal/identity"
	"github.com/aws/smithy-go"
)

// known maps Cognito exception names onto the identity taxonomy. Several
// throttling exceptions collapse into one.
var known = map[string]string{
	"UserNotFoundException":     identity.CodeUserNotFound,
	"UsernameExistsException":   identity.CodeUsernameExists,
	"AliasExistsException":      identity.CodeUsernameExists,
	"NotAuthorizedException":    identity.CodeNotAuthorized,
	"UserNotConfirmedException": identity.CodeUserNotConfirmed,
	"InvalidPasswordException":  identity.CodeInvalidPassword,
	"InvalidParameterException": identity.CodeInvalidParameter,
	"TooManyRequestsException":  identity.CodeTooManyRequests,
	"LimitExceededException":    identity.CodeTooManyRequests,
}

// translate converts SDK errors carrying a known exception name into
// *identity.Error. Anything else is returned as is.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	code, ok := known[apiErr.ErrorCode()]
	if !ok {
		return err
	}
	return &identity.Error{Code: code, Message: apiErr.ErrorMessage(), Err: err}
}
