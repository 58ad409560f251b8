package cognito

import (
	"context"
	"errors"
	"strings"

	"github.com/Goofygiraffe06/authgate/internal/identity"
	"github.com/Goofygiraffe06/authgate/internal/logging"
	"github.com/Goofygiraffe06/authgate/internal/utils"
	"github.com/aws/aws-sdk-go-v2/aws"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
)

var errIdentifierRequired = errors.New("cognito: identifier is required")

func attribute(attrs []types.AttributeType, name string) string {
	for _, a := range attrs {
		if aws.ToString(a.Name) == name {
			return aws.ToString(a.Value)
		}
	}
	return ""
}

func (c *Client) FindUser(ctx context.Context, username string) (identity.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return identity.User{}, errIdentifierRequired
	}

	out, err := c.api.AdminGetUser(ctx, &cip.AdminGetUserInput{
		UserPoolId: c.pool(),
		Username:   aws.String(username),
	})
	if err != nil {
		return identity.User{}, translate(err)
	}

	return identity.User{
		Subject:   attribute(out.UserAttributes, "sub"),
		Username:  aws.ToString(out.Username),
		Email:     attribute(out.UserAttributes, "email"),
		Confirmed: out.UserStatus == types.UserStatusTypeConfirmed,
	}, nil
}

// VerifyUser confirms the sign-up and marks the email address verified.
func (c *Client) VerifyUser(ctx context.Context, subject string) error {
	if strings.TrimSpace(subject) == "" {
		return errIdentifierRequired
	}

	if _, err := c.api.AdminConfirmSignUp(ctx, &cip.AdminConfirmSignUpInput{
		UserPoolId: c.pool(),
		Username:   aws.String(subject),
	}); err != nil {
		return translate(err)
	}

	if _, err := c.api.AdminUpdateUserAttributes(ctx, &cip.AdminUpdateUserAttributesInput{
		UserPoolId: c.pool(),
		Username:   aws.String(subject),
		UserAttributes: []types.AttributeType{
			{Name: aws.String("email_verified"), Value: aws.String("true")},
		},
	}); err != nil {
		return translate(err)
	}

	logging.InfoLog("Cognito verify success [%s]", utils.HashCode(subject))
	return nil
}

func (c *Client) ChangePassword(ctx context.Context, subject, password string) error {
	if strings.TrimSpace(subject) == "" {
		return errIdentifierRequired
	}
	_, err := c.api.AdminSetUserPassword(ctx, &cip.AdminSetUserPasswordInput{
		UserPoolId: c.pool(),
		Username:   aws.String(subject),
		Password:   aws.String(password),
		Permanent:  true,
	})
	return translate(err)
}

func (c *Client) DeleteUser(ctx context.Context, idOrEmail string) error {
	if strings.TrimSpace(idOrEmail) == "" {
		return errIdentifierRequired
	}
	_, err := c.api.AdminDeleteUser(ctx, &cip.AdminDeleteUserInput{
		UserPoolId: c.pool(),
		Username:   aws.String(idOrEmail),
	})
	return translate(err)
}
