package cognito

import (
	"context"
	"time"

	"github.com/Goofygiraffe06/authgate/internal/identity"
	"github.com/Goofygiraffe06/authgate/internal/logging"
	"github.com/Goofygiraffe06/authgate/internal/utils"
	"github.com/aws/aws-sdk-go-v2/aws"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/golang-jwt/jwt/v5"
)

func (c *Client) Register(ctx context.Context, email, password string) (identity.Registration, error) {
	out, err := c.api.SignUp(ctx, &cip.SignUpInput{
		ClientId: c.client(),
		Username: aws.String(email),
		Password: aws.String(password),
		UserAttributes: []types.AttributeType{
			{Name: aws.String("email"), Value: aws.String(email)},
		},
	})
	if err != nil {
		logging.DebugLog("Cognito sign-up failed [%s]: %v", utils.HashEmail(email), err)
		return identity.Registration{}, translate(err)
	}
	return identity.Registration{
		Subject:   aws.ToString(out.UserSub),
		Confirmed: out.UserConfirmed,
	}, nil
}

func (c *Client) Authenticate(ctx context.Context, username, password string) (identity.Session, error) {
	return c.initiate(ctx, types.AuthFlowTypeUserPasswordAuth, map[string]string{
		"USERNAME": username,
		"PASSWORD": password,
	})
}

func (c *Client) Refresh(ctx context.Context, refreshToken string) (identity.Session, error) {
	return c.initiate(ctx, types.AuthFlowTypeRefreshTokenAuth, map[string]string{
		"REFRESH_TOKEN": refreshToken,
	})
}

func (c *Client) initiate(ctx context.Context, flow types.AuthFlowType, params map[string]string) (identity.Session, error) {
	out, err := c.api.InitiateAuth(ctx, &cip.InitiateAuthInput{
		AuthFlow:       flow,
		ClientId:       c.client(),
		AuthParameters: params,
	})
	if err != nil {
		return identity.Session{}, translate(err)
	}

	// Challenges (MFA, forced password change) are not supported
	result := out.AuthenticationResult
	if result == nil {
		logging.WarnLog("Cognito %s returned challenge %q", flow, out.ChallengeName)
		return identity.Session{}, identity.NewError(identity.CodeNotAuthorized, "Authentication challenge not supported")
	}

	session := identity.Session{
		AccessToken:  aws.ToString(result.AccessToken),
		IDToken:      aws.ToString(result.IdToken),
		RefreshToken: aws.ToString(result.RefreshToken),
	}
	session.ExpiresAt = tokenExpiry(session.AccessToken)
	return session, nil
}

// tokenExpiry reads exp from a provider-signed token without verifying it;
// the token came straight from the provider over TLS.
func tokenExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		logging.DebugLog("Cognito token expiry unreadable: %v", err)
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
