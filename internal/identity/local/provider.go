// Package local is an in-process stand-in for the managed identity provider.
//
// It keeps users in SQLite, hashes passwords with bcrypt and signs HS256
// tokens, and reports failures with the same exception names as the managed
// user pool. It exists so the service and its acceptance tests run without
// cloud credentials.
package local

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/Goofygiraffe06/authgate/internal/identity"
	"github.com/Goofygiraffe06/authgate/internal/logging"
	"github.com/Goofygiraffe06/authgate/internal/models"
	"github.com/Goofygiraffe06/authgate/internal/utils"
	"github.com/Goofygiraffe06/authgate/store"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// Options configures the emulator.
type Options struct {
	Secret     []byte
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

type Provider struct {
	users  *store.SQLiteStore
	tokens *tokenIssuer
	cost   int
}

var _ identity.Provider = (*Provider)(nil)

func New(users *store.SQLiteStore, opts Options) (*Provider, error) {
	if users == nil {
		return nil, errors.New("local identity: user store is required")
	}
	if len(opts.Secret) == 0 {
		return nil, errors.New("local identity: signing secret is required")
	}
	if opts.Issuer == "" {
		opts.Issuer = "authgate"
	}
	if opts.AccessTTL <= 0 {
		opts.AccessTTL = time.Hour
	}
	if opts.RefreshTTL <= 0 {
		opts.RefreshTTL = 30 * 24 * time.Hour
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}

	return &Provider{
		users: users,
		tokens: &tokenIssuer{
			secret:     opts.Secret,
			issuer:     opts.Issuer,
			accessTTL:  opts.AccessTTL,
			refreshTTL: opts.RefreshTTL,
		},
		cost: opts.BcryptCost,
	}, nil
}

// checkPasswordPolicy mirrors the managed pool's default policy.
func checkPasswordPolicy(password string) error {
	if len(password) < minPasswordLength {
		return identity.NewError(identity.CodeInvalidPassword, "Password not long enough")
	}
	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper || !lower || !digit {
		return identity.NewError(identity.CodeInvalidPassword,
			"Password must have uppercase, lowercase and numeric characters")
	}
	return nil
}

func (p *Provider) hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		// bcrypt rejects passwords over 72 bytes
		return "", &identity.Error{Code: identity.CodeInvalidPassword, Message: "Password too long", Err: err}
	}
	return string(h), nil
}

func (p *Provider) lookup(ctx context.Context, idOrEmail string) (models.User, error) {
	user, err := p.users.GetUser(ctx, strings.TrimSpace(idOrEmail))
	if errors.Is(err, store.ErrUserNotFound) {
		return models.User{}, identity.NewError(identity.CodeUserNotFound, "User does not exist.")
	}
	return user, err
}

func (p *Provider) Register(ctx context.Context, email, password string) (identity.Registration, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	emailHash := utils.HashEmail(email)

	if err := checkPasswordPolicy(password); err != nil {
		logging.DebugLog("Local register rejected [%s]: password policy", emailHash)
		return identity.Registration{}, err
	}

	hash, err := p.hash(password)
	if err != nil {
		return identity.Registration{}, err
	}

	user := models.User{Subject: uuid.NewString(), Email: email, PasswordHash: hash}
	if err := p.users.AddUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrUserExists) {
			return identity.Registration{}, identity.NewError(identity.CodeUsernameExists,
				"An account with the given email already exists.")
		}
		return identity.Registration{}, err
	}

	logging.InfoLog("Local register success [%s]", emailHash)
	return identity.Registration{Subject: user.Subject, Confirmed: false}, nil
}

func (p *Provider) Authenticate(ctx context.Context, username, password string) (identity.Session, error) {
	user, err := p.lookup(ctx, username)
	if err != nil {
		return identity.Session{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		logging.DebugLog("Local authenticate failed [%s]: password mismatch", utils.HashEmail(user.Email))
		return identity.Session{}, identity.NewError(identity.CodeNotAuthorized, "Incorrect username or password.")
	}
	if !user.Confirmed {
		return identity.Session{}, identity.NewError(identity.CodeUserNotConfirmed, "User is not confirmed.")
	}

	access, id, refresh, exp, err := p.tokens.issue(user, true)
	if err != nil {
		return identity.Session{}, err
	}
	return identity.Session{AccessToken: access, IDToken: id, RefreshToken: refresh, ExpiresAt: exp}, nil
}

func (p *Provider) Refresh(ctx context.Context, refreshToken string) (identity.Session, error) {
	subject, err := p.tokens.verify(refreshToken, useRefresh)
	if err != nil {
		return identity.Session{}, &identity.Error{Code: identity.CodeNotAuthorized, Message: "Invalid Refresh Token", Err: err}
	}

	user, err := p.users.GetUserBySubject(ctx, subject)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return identity.Session{}, identity.NewError(identity.CodeNotAuthorized, "Invalid Refresh Token")
		}
		return identity.Session{}, err
	}

	access, id, _, exp, err := p.tokens.issue(user, false)
	if err != nil {
		return identity.Session{}, err
	}
	return identity.Session{AccessToken: access, IDToken: id, ExpiresAt: exp}, nil
}

func (p *Provider) FindUser(ctx context.Context, username string) (identity.User, error) {
	user, err := p.lookup(ctx, username)
	if err != nil {
		return identity.User{}, err
	}
	return identity.User{
		Subject:   user.Subject,
		Username:  user.Subject,
		Email:     user.Email,
		Confirmed: user.Confirmed,
	}, nil
}

func (p *Provider) VerifyUser(ctx context.Context, subject string) error {
	err := p.users.ConfirmUser(ctx, subject)
	if errors.Is(err, store.ErrUserNotFound) {
		return identity.NewError(identity.CodeUserNotFound, "User does not exist.")
	}
	if err == nil {
		logging.InfoLog("Local verify success [%s]", utils.HashCode(subject))
	}
	return err
}

func (p *Provider) ChangePassword(ctx context.Context, subject, password string) error {
	if err := checkPasswordPolicy(password); err != nil {
		return err
	}
	hash, err := p.hash(password)
	if err != nil {
		return err
	}
	err = p.users.SetPasswordHash(ctx, subject, hash)
	if errors.Is(err, store.ErrUserNotFound) {
		return identity.NewError(identity.CodeUserNotFound, "User does not exist.")
	}
	return err
}

func (p *Provider) DeleteUser(ctx context.Context, idOrEmail string) error {
	user, err := p.lookup(ctx, idOrEmail)
	if err != nil {
		return err
	}
	err = p.users.DeleteUser(ctx, user.Subject)
	if errors.Is(err, store.ErrUserNotFound) {
		return identity.NewError(identity.CodeUserNotFound, "User does not exist.")
	}
	return err
}
