// Package identity describes the managed identity provider authgate fronts.
//
// Two clients are exposed. Authenticator covers the end-user operations a
// user pool app client may call (sign-up, sign-in, token refresh). Manager
// covers administrative operations that require pool credentials (lookup,
// out-of-band verification, password change, deletion). Failures raised by
// the provider are reported as *Error values carrying the provider's
// exception name, which the API maps to HTTP responses.
package identity

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Exception names understood by the error mapper.
const (
	CodeUserNotFound     = "UserNotFoundException"
	CodeUsernameExists   = "UsernameExistsException"
	CodeNotAuthorized    = "NotAuthorizedException"
	CodeUserNotConfirmed = "UserNotConfirmedException"
	CodeInvalidPassword  = "InvalidPasswordException"
	CodeInvalidParameter = "InvalidParameterException"
	CodeTooManyRequests  = "TooManyRequestsException"
)

// Error is a named failure reported by the identity provider.
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on the exception name so errors.Is(err, ErrUserNotFound) works
// for any *Error with that code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewError builds an *Error for the given exception name.
func NewError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Sentinels for errors.Is comparisons.
var (
	ErrUserNotFound     = NewError(CodeUserNotFound, "")
	ErrUsernameExists   = NewError(CodeUsernameExists, "")
	ErrNotAuthorized    = NewError(CodeNotAuthorized, "")
	ErrUserNotConfirmed = NewError(CodeUserNotConfirmed, "")
	ErrInvalidPassword  = NewError(CodeInvalidPassword, "")
	ErrInvalidParameter = NewError(CodeInvalidParameter, "")
)

// Registration is the result of signing a user up.
type Registration struct {
	Subject   string
	Confirmed bool
}

// Session holds the tokens issued on sign-in. RefreshToken is empty when the
// provider does not rotate it (refresh flow).
type Session struct {
	AccessToken  string
	IDToken      string
	RefreshToken string
	ExpiresAt    time.Time
}

// User is the management view of a pool user.
type User struct {
	Subject   string `json:"subject"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Confirmed bool   `json:"confirmed"`
}

// Authenticator performs end-user operations.
type Authenticator interface {
	Register(ctx context.Context, email, password string) (Registration, error)
	Authenticate(ctx context.Context, username, password string) (Session, error)
	Refresh(ctx context.Context, refreshToken string) (Session, error)
}

// Manager performs administrative operations.
type Manager interface {
	FindUser(ctx context.Context, username string) (User, error)
	VerifyUser(ctx context.Context, subject string) error
	ChangePassword(ctx context.Context, subject, password string) error
	DeleteUser(ctx context.Context, idOrEmail string) error
}

// Provider is a backend implementing both clients.
type Provider interface {
	Authenticator
	Manager
}
