package ephemeral

import (
	"errors"
	"sync"
	"time"

	"github.com/Goofygiraffe06/authgate/internal/logging"
	"github.com/Goofygiraffe06/authgate/internal/utils"
	"github.com/Goofygiraffe06/authgate/internal/verification"
)

var (
	ErrTooLong   = errors.New("key too long")
	ErrStoreFull = errors.New("ephemeral store full")
	maxKeyLength = 255
	maxStoreSize = 10_000
)

const cleanupInterval = time.Minute

type item struct {
	code      verification.Code
	expiresAt time.Time // zero: never
}

func (it *item) expired(now time.Time) bool {
	return !it.expiresAt.IsZero() && now.After(it.expiresAt)
}

type coreStore struct {
	data map[string]*item
	mu   sync.RWMutex
	stop chan struct{}
	once sync.Once
}

func newCoreStore() *coreStore {
	store := &coreStore{
		data: make(map[string]*item),
		stop: make(chan struct{}),
	}

	go store.cleanup()

	logging.DebugLog("Ephemeral store initialized")
	return store
}

func (s *coreStore) set(key string, code verification.Code, expiresAt time.Time) error {
	if len(key) > maxKeyLength {
		logging.DebugLog("Store set failed: key too long [%s] (length: %d)", utils.HashCode(key), len(key))
		return ErrTooLong
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Overwrites never grow the map
	if _, exists := s.data[key]; !exists && len(s.data) >= maxStoreSize {
		logging.WarnLog("Store set failed: store full (size: %d)", len(s.data))
		return ErrStoreFull
	}

	s.data[key] = &item{code: code, expiresAt: expiresAt}
	logging.DebugLog("Store set success [%s]", utils.HashCode(key))
	return nil
}

func (s *coreStore) get(key string) (verification.Code, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, ok := s.data[key]
	if !ok || it.expired(time.Now()) {
		return verification.Code{}, false
	}
	return it.code, true
}

// take removes key and returns its live value under a single write lock.
func (s *coreStore) take(key string) (verification.Code, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.data[key]
	if !ok {
		return verification.Code{}, false
	}
	delete(s.data, key)

	if it.expired(time.Now()) {
		logging.DebugLog("Store take: expired [%s]", utils.HashCode(key))
		return verification.Code{}, false
	}
	logging.DebugLog("Store take success [%s]", utils.HashCode(key))
	return it.code, true
}

func (s *coreStore) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

func (s *coreStore) close() {
	s.once.Do(func() { close(s.stop) })
}

func (s *coreStore) cleanup() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
		}

		now := time.Now()
		s.mu.Lock()
		expiredCount := 0
		for k, v := range s.data {
			if v.expired(now) {
				delete(s.data, k)
				expiredCount++
			}
		}
		currentSize := len(s.data)
		s.mu.Unlock()

		if expiredCount > 0 {
			logging.InfoLog("Store cleanup: removed %d expired items (current size: %d)", expiredCount, currentSize)
		}
	}
}
