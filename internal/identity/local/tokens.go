package local

import (
	"errors"
	"time"

	"github.com/Goofygiraffe06/authgate/internal/logging"
	"github.com/Goofygiraffe06/authgate/internal/models"
	"github.com/Goofygiraffe06/authgate/internal/utils"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	useAccess  = "access"
	useID      = "id"
	useRefresh = "refresh"
)

var errTokenUse = errors.New("unexpected token_use")

type tokenIssuer struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func (ti *tokenIssuer) sign(claims jwt.MapClaims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.secret)
}

func (ti *tokenIssuer) base(sub, use string, now time.Time, ttl time.Duration) jwt.MapClaims {
	return jwt.MapClaims{
		"sub":       sub,
		"iss":       ti.issuer,
		"iat":       now.Unix(),
		"exp":       now.Add(ttl).Unix(),
		"jti":       uuid.NewString(),
		"token_use": use,
	}
}

// issue mints access and id tokens, plus a refresh token when withRefresh.
func (ti *tokenIssuer) issue(user models.User, withRefresh bool) (accessToken, idToken, refreshToken string, expiresAt time.Time, err error) {
	now := time.Now()
	expiresAt = now.Add(ti.accessTTL).Truncate(time.Second)

	if accessToken, err = ti.sign(ti.base(user.Subject, useAccess, now, ti.accessTTL)); err != nil {
		logging.ErrorLog("Access token signing failed [%s]: %v", utils.HashCode(user.Subject), err)
		return
	}

	idClaims := ti.base(user.Subject, useID, now, ti.accessTTL)
	idClaims["email"] = user.Email
	idClaims["email_verified"] = user.Confirmed
	if idToken, err = ti.sign(idClaims); err != nil {
		logging.ErrorLog("ID token signing failed [%s]: %v", utils.HashCode(user.Subject), err)
		return
	}

	if withRefresh {
		if refreshToken, err = ti.sign(ti.base(user.Subject, useRefresh, now, ti.refreshTTL)); err != nil {
			logging.ErrorLog("Refresh token signing failed [%s]: %v", utils.HashCode(user.Subject), err)
			return
		}
	}

	logging.DebugLog("Tokens issued [%s] refresh=%v", utils.HashCode(user.Subject), withRefresh)
	return
}

// verify parses tokenStr and returns its subject when it is a valid token
// of the given use.
func (ti *tokenIssuer) verify(tokenStr, use string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		return ti.secret, nil
	}, jwt.WithIssuer(ti.issuer), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		// Only log token parsing errors at debug level to reduce noise
		logging.DebugLog("Token verification failed: %v", err)
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", jwt.ErrTokenInvalidClaims
	}
	if claims["token_use"] != use {
		return "", errTokenUse
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", jwt.ErrTokenInvalidSubject
	}
	return sub, nil
}
