package verification

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/Goofygiraffe06/authgate/internal/logging"
	"github.com/Goofygiraffe06/authgate/internal/utils"
)

// codeBytes is the entropy of a code before hex encoding.
const codeBytes = 32

// NewID returns a 32-byte hex-encoded code identifier.
func NewID() (string, error) {
	b := make([]byte, codeBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("crypto/rand failed: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Issue creates a code of the given type for subject and stores it. A
// non-positive ttl issues a code without expiry.
func Issue(ctx context.Context, store Store, typ Type, subject string, ttl time.Duration) (Code, error) {
	id, err := NewID()
	if err != nil {
		return Code{}, err
	}

	code := Code{ID: id, Type: typ, Subject: subject}
	if ttl > 0 {
		code.Expires = time.Now().Add(ttl).Truncate(time.Second)
	}

	if err := store.Put(ctx, code); err != nil {
		logging.ErrorLog("Verification issue failed [%s] type=%s: %v", utils.HashCode(subject), typ, err)
		return Code{}, fmt.Errorf("store verification code: %w", err)
	}

	logging.DebugLog("Verification code issued [%s] type=%s", utils.HashCode(id), typ)
	return code, nil
}

// Redeem consumes the code and checks it authorizes typ. The code is gone
// afterwards even when the type does not match.
func Redeem(ctx context.Context, store Store, id string, typ Type) (Code, error) {
	code, err := store.Consume(ctx, id)
	if err != nil {
		return Code{}, fmt.Errorf("consume verification code: %w", err)
	}
	if code == nil {
		logging.DebugLog("Verification redeem miss [%s]", utils.HashCode(id))
		return Code{}, ErrCodeNotFound
	}
	if code.Type != typ || code.Expired(time.Now()) {
		logging.WarnLog("Verification redeem rejected [%s] type=%s want=%s", utils.HashCode(id), code.Type, typ)
		return Code{}, ErrCodeNotFound
	}
	return *code, nil
}
