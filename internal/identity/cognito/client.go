// Package cognito implements the identity clients on an Amazon Cognito user
// pool. Users sign up with their email address as username alias; the pool's
// generated username equals the user's sub.
package cognito

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Goofygiraffe06/authgate/internal/identity"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
)

// API is the subset of the Cognito Identity Provider client used here.
type API interface {
	SignUp(ctx context.Context, params *cip.SignUpInput, optFns ...func(*cip.Options)) (*cip.SignUpOutput, error)
	InitiateAuth(ctx context.Context, params *cip.InitiateAuthInput, optFns ...func(*cip.Options)) (*cip.InitiateAuthOutput, error)
	AdminGetUser(ctx context.Context, params *cip.AdminGetUserInput, optFns ...func(*cip.Options)) (*cip.AdminGetUserOutput, error)
	AdminConfirmSignUp(ctx context.Context, params *cip.AdminConfirmSignUpInput, optFns ...func(*cip.Options)) (*cip.AdminConfirmSignUpOutput, error)
	AdminUpdateUserAttributes(ctx context.Context, params *cip.AdminUpdateUserAttributesInput, optFns ...func(*cip.Options)) (*cip.AdminUpdateUserAttributesOutput, error)
	AdminSetUserPassword(ctx context.Context, params *cip.AdminSetUserPasswordInput, optFns ...func(*cip.Options)) (*cip.AdminSetUserPasswordOutput, error)
	AdminDeleteUser(ctx context.Context, params *cip.AdminDeleteUserInput, optFns ...func(*cip.Options)) (*cip.AdminDeleteUserOutput, error)
}

// Config identifies the user pool and its app client.
type Config struct {
	Region     string
	UserPoolID string
	ClientID   string
	// API overrides the SDK client, mostly for tests.
	API API
}

// Client implements identity.Authenticator and identity.Manager.
type Client struct {
	api      API
	poolID   string
	clientID string
}

var _ identity.Provider = (*Client)(nil)

func New(ctx context.Context, cfg Config) (*Client, error) {
	poolID := strings.TrimSpace(cfg.UserPoolID)
	clientID := strings.TrimSpace(cfg.ClientID)
	if poolID == "" {
		return nil, errors.New("cognito: user pool id is required")
	}
	if clientID == "" {
		return nil, errors.New("cognito: app client id is required")
	}

	api := cfg.API
	if api == nil {
		awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
		if err != nil {
			return nil, fmt.Errorf("cognito: failed to load aws config: %w", err)
		}
		api = cip.NewFromConfig(awsCfg)
	}

	return &Client{api: api, poolID: poolID, clientID: clientID}, nil
}

func (c *Client) pool() *string   { return aws.String(c.poolID) }
func (c *Client) client() *string { return aws.String(c.clientID) }
