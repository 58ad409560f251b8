package config

import "time"

const (
	ProviderCognito = "cognito"
	ProviderLocal   = "local"
)

// IdentityProvider selects the identity backend: "cognito" or "local".
func IdentityProvider() string {
	return GetEnv("IDENTITY_PROVIDER", ProviderLocal)
}

func AWSRegion() string {
	return GetEnv("AWS_REGION", "us-east-1")
}

func CognitoUserPoolID() string {
	return MustGetEnv("COGNITO_USER_POOL_ID")
}

func CognitoUserPoolClientID() string {
	return MustGetEnv("COGNITO_USER_POOL_CLIENT_ID")
}

// JWTSecret signs tokens issued by the local identity emulator.
func JWTSecret() string {
	return MustGetEnv("JWT_SECRET")
}

func JWTIssuer() string {
	return GetEnv("JWT_ISSUER", "authgate")
}

func JWTExpiresIn() time.Duration {
	return MustParseDuration("JWT_EXPIRES_IN", "1h")
}

func JWTRefreshExpiresIn() time.Duration {
	return MustParseDuration("JWT_REFRESH_EXPIRES_IN", "720h")
}
