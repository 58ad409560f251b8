package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/Goofygiraffe06/authgate/internal/logging"
	"github.com/Goofygiraffe06/authgate/internal/models"
)

const userColumns = `subject, email, password_hash, confirmed, created_at`

func (s *SQLiteStore) AddUser(ctx context.Context, user models.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?)`,
		user.Subject, strings.ToLower(user.Email), user.PasswordHash, user.Confirmed, user.CreatedAt.Unix())
	if err != nil {
		if isConstraintViolation(err) && user.Subject != "" && user.Email != "" && user.PasswordHash != "" {
			return ErrUserExists
		}
		return err
	}
	return nil
}

func (s *SQLiteStore) scanUser(row *sql.Row) (models.User, error) {
	var (
		user      models.User
		createdAt int64
	)
	err := row.Scan(&user.Subject, &user.Email, &user.PasswordHash, &user.Confirmed, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		logging.ErrorLog("store.scanUser error: %v", err)
		return models.User{}, err
	}
	user.CreatedAt = time.Unix(createdAt, 0)
	return user, nil
}

// GetUserByEmail looks a user up by email, case-insensitively.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE email = ?`, strings.ToLower(strings.TrimSpace(email)))
	return s.scanUser(row)
}

func (s *SQLiteStore) GetUserBySubject(ctx context.Context, subject string) (models.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE subject = ?`, subject)
	return s.scanUser(row)
}

// GetUser resolves either a subject or an email address.
func (s *SQLiteStore) GetUser(ctx context.Context, idOrEmail string) (models.User, error) {
	if strings.Contains(idOrEmail, "@") {
		return s.GetUserByEmail(ctx, idOrEmail)
	}
	return s.GetUserBySubject(ctx, idOrEmail)
}

func (s *SQLiteStore) ConfirmUser(ctx context.Context, subject string) error {
	return s.updateOne(ctx, `UPDATE users SET confirmed = 1 WHERE subject = ?`, subject)
}

func (s *SQLiteStore) SetPasswordHash(ctx context.Context, subject, hash string) error {
	return s.updateOne(ctx, `UPDATE users SET password_hash = ? WHERE subject = ?`, hash, subject)
}

func (s *SQLiteStore) DeleteUser(ctx context.Context, subject string) error {
	return s.updateOne(ctx, `DELETE FROM users WHERE subject = ?`, subject)
}

func (s *SQLiteStore) updateOne(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}
