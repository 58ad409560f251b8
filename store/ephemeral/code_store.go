package ephemeral

import (
	"context"
	"time"

	"github.com/Goofygiraffe06/authgate/internal/logging"
	"github.com/Goofygiraffe06/authgate/internal/verification"
)

// CodeStore keeps verification codes in process memory. It is meant for
// development and tests; codes vanish on restart.
type CodeStore struct {
	core *coreStore
}

var _ verification.Store = (*CodeStore)(nil)

func NewCodeStore() *CodeStore {
	start := time.Now()
	store := &CodeStore{core: newCoreStore()}
	logging.DebugLog("Code store creation completed %v", time.Since(start))
	return store
}

func (s *CodeStore) Put(ctx context.Context, code verification.Code) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.core.set(code.ID, code, code.Expires)
}

func (s *CodeStore) Consume(ctx context.Context, id string) (*verification.Code, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	code, ok := s.core.take(id)
	if !ok {
		return nil, nil
	}
	return &code, nil
}

// Peek returns a live code without consuming it.
func (s *CodeStore) Peek(id string) (verification.Code, bool) {
	return s.core.get(id)
}

// Len is the number of stored entries, expired ones included until cleanup.
func (s *CodeStore) Len() int {
	return s.core.len()
}

// Close stops the cleanup goroutine.
func (s *CodeStore) Close() error {
	s.core.close()
	return nil
}
