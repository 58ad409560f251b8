package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Goofygiraffe06/authgate/internal/verification"
)

// CodeStore adapts SQLiteStore to verification.Store.
type CodeStore struct {
	s *SQLiteStore
}

var _ verification.Store = CodeStore{}

// Codes returns the verification code view of the database.
func (s *SQLiteStore) Codes() CodeStore {
	return CodeStore{s: s}
}

func (c CodeStore) Put(ctx context.Context, code verification.Code) error {
	now := time.Now().Unix()

	// Expired rows are purged on write; there is no background sweeper
	if _, err := c.s.db.ExecContext(ctx,
		`DELETE FROM verification_codes WHERE expires > 0 AND expires <= ?`, now); err != nil {
		return err
	}

	_, err := c.s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO verification_codes (id, type, subject, expires)
		VALUES (?, ?, ?, ?)`,
		code.ID, string(code.Type), code.Subject, unixOrZero(code.Expires))
	return err
}

func (c CodeStore) Consume(ctx context.Context, id string) (*verification.Code, error) {
	var (
		code    verification.Code
		typ     string
		expires int64
	)
	err := c.s.db.QueryRowContext(ctx, `
		DELETE FROM verification_codes
		WHERE id = ?
		RETURNING id, type, subject, expires`, id).
		Scan(&code.ID, &typ, &code.Subject, &expires)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	code.Type = verification.Type(typ)
	if expires > 0 {
		code.Expires = time.Unix(expires, 0)
	}
	if code.Expired(time.Now()) {
		return nil, nil
	}
	return &code, nil
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}
