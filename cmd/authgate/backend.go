package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Goofygiraffe06/authgate/internal/config"
	"github.com/Goofygiraffe06/authgate/internal/identity"
	"github.com/Goofygiraffe06/authgate/internal/identity/cognito"
	"github.com/Goofygiraffe06/authgate/internal/identity/local"
	"github.com/Goofygiraffe06/authgate/internal/logging"
	"github.com/Goofygiraffe06/authgate/internal/verification"
	"github.com/Goofygiraffe06/authgate/store"
	"github.com/Goofygiraffe06/authgate/store/dynamo"
	"github.com/Goofygiraffe06/authgate/store/ephemeral"
)

// backend holds the identity provider and code store picked by config.
type backend struct {
	provider identity.Provider
	codes    verification.Store
	db       *store.SQLiteStore
	closers  []io.Closer
}

// sqlite opens the SQLite database once, on first use.
func (b *backend) sqlite() (*store.SQLiteStore, error) {
	if b.db != nil {
		return b.db, nil
	}

	path := config.SQLitePath()
	db, err := store.NewSQLiteStore(path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if path != ":memory:" {
		if err := os.Chmod(path, 0o600); err != nil {
			logging.WarnLog("Failed to set restrictive permissions on %s: %v", path, err)
		}
	}
	logging.InfoLog("Connected to SQLite database: %s", path)

	b.db = db
	b.closers = append(b.closers, db)
	return db, nil
}

func (b *backend) openProvider(ctx context.Context) error {
	switch p := config.IdentityProvider(); p {
	case config.ProviderCognito:
		c, err := cognito.New(ctx, cognito.Config{
			Region:     config.AWSRegion(),
			UserPoolID: config.CognitoUserPoolID(),
			ClientID:   config.CognitoUserPoolClientID(),
		})
		if err != nil {
			return err
		}
		b.provider = c
	case config.ProviderLocal:
		db, err := b.sqlite()
		if err != nil {
			return err
		}
		l, err := local.New(db, local.Options{
			Secret:     []byte(config.JWTSecret()),
			Issuer:     config.JWTIssuer(),
			AccessTTL:  config.JWTExpiresIn(),
			RefreshTTL: config.JWTRefreshExpiresIn(),
		})
		if err != nil {
			return err
		}
		logging.WarnLog("Using the local identity emulator; not for production")
		b.provider = l
	default:
		return fmt.Errorf("unknown IDENTITY_PROVIDER %q", p)
	}
	return nil
}

func (b *backend) openCodes(ctx context.Context) error {
	switch s := config.VerificationStore(); s {
	case config.StoreDynamoDB:
		client, err := dynamo.NewClient(ctx, config.AWSRegion(), config.DynamoDBEndpoint())
		if err != nil {
			return err
		}
		codes, err := dynamo.NewCodeStore(client, config.DynamoDBTable())
		if err != nil {
			return err
		}
		b.codes = codes
	case config.StoreSQLite:
		db, err := b.sqlite()
		if err != nil {
			return err
		}
		b.codes = db.Codes()
	case config.StoreMemory:
		codes := ephemeral.NewCodeStore()
		b.closers = append(b.closers, codes)
		b.codes = codes
	default:
		return fmt.Errorf("unknown VERIFICATION_STORE %q", s)
	}
	logging.InfoLog("Verification codes stored in %s", config.VerificationStore())
	return nil
}

// ready reports whether the local database answers. Remote backends are
// not probed.
func (b *backend) ready(ctx context.Context) error {
	if b.db == nil {
		return nil
	}
	return b.db.Ping(ctx)
}

func (b *backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		errs = append(errs, b.closers[i].Close())
	}
	return errors.Join(errs...)
}
