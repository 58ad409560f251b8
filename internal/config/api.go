package config

import "strings"

// APIInvokeURL is the base URL the web application uses to reach the API.
func APIInvokeURL() string {
	return strings.TrimRight(GetEnv("API_INVOKE_URL", "http://localhost:"+Port()), "/")
}

// IdentityDomain is the origin allowed to call the API cross-origin.
func IdentityDomain() string {
	return MustGetEnv("IDENTITY_DOMAIN")
}

// AppURL is the public base URL of the web application; verification links point here.
func AppURL() string {
	return strings.TrimRight(GetEnv("APP_URL", IdentityDomain()+"/app"), "/")
}
