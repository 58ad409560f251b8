package config

import "time"

const (
	StoreDynamoDB = "dynamodb"
	StoreSQLite   = "sqlite"
	StoreMemory   = "memory"
)

// VerificationStore selects where verification codes live.
func VerificationStore() string {
	return GetEnv("VERIFICATION_STORE", StoreSQLite)
}

// VerificationTTL bounds how long an issued code stays redeemable.
func VerificationTTL() time.Duration {
	return MustParseDuration("VERIFICATION_TTL", "24h")
}

func DynamoDBTable() string {
	return MustGetEnv("DYNAMODB_TABLE")
}

// DynamoDBEndpoint overrides the DynamoDB endpoint, e.g. for DynamoDB Local.
func DynamoDBEndpoint() string {
	return GetEnv("DYNAMODB_ENDPOINT", "")
}

func SQLitePath() string {
	return GetEnv("SQLITE_PATH", "authgate.db")
}
