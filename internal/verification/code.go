// Package verification issues and redeems single-use verification codes.
//
// A code correlates a random identifier with a pending user action (confirm
// the email address after registration, or reset the password). Codes live
// in an external key-value Store; redeeming deletes them atomically, so a
// code can be redeemed at most once.
package verification

import (
	"context"
	"errors"
	"time"
)

// Type names the action a code authorizes.
type Type string

const (
	TypeRegister Type = "register"
	TypeReset    Type = "reset"
)

// ErrCodeNotFound is returned by Redeem when the code was never issued, was
// already redeemed, has expired, or belongs to another flow.
var ErrCodeNotFound = errors.New("verification code not found")

// Code is a stored verification record. Expires is the zero time when the
// record never expires.
type Code struct {
	ID      string    `json:"id"`
	Type    Type      `json:"type"`
	Subject string    `json:"subject"`
	Expires time.Time `json:"expires"`
}

// Expired reports whether the code is past its expiry at now.
func (c Code) Expired(now time.Time) bool {
	return !c.Expires.IsZero() && !now.Before(c.Expires)
}

// Store persists verification codes.
//
// Put writes unconditionally; writing an existing ID overwrites it.
// Consume reads and deletes in one atomic operation and returns nil (and no
// error) when there is nothing to consume.
type Store interface {
	Put(ctx context.Context, code Code) error
	Consume(ctx context.Context, id string) (*Code, error)
}
