package ephemeral_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Goofygiraffe06/authgate/internal/verification"
	"github.com/Goofygiraffe06/authgate/store/ephemeral"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *ephemeral.CodeStore {
	t.Helper()
	s := ephemeral.NewCodeStore()
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutAndConsume(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	code := verification.Code{ID: "c1", Type: verification.TypeRegister, Subject: "sub"}
	require.NoError(t, s.Put(ctx, code))

	peeked, ok := s.Peek("c1")
	require.True(t, ok)
	assert.Equal(t, code, peeked)

	got, err := s.Consume(ctx, "c1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, code, *got)

	again, err := s.Consume(ctx, "c1")
	require.NoError(t, err)
	assert.Nil(t, again, "a consumed code must not be returned twice")
	assert.Equal(t, 0, s.Len())
}

func TestPutOverwrites(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.Put(ctx, verification.Code{ID: "c1", Type: verification.TypeRegister, Subject: "a"}))
	require.NoError(t, s.Put(ctx, verification.Code{ID: "c1", Type: verification.TypeReset, Subject: "b"}))
	assert.Equal(t, 1, s.Len())

	got, err := s.Consume(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "b", got.Subject)
	assert.Equal(t, verification.TypeReset, got.Type)
}

func TestExpiredCodeIsAbsent(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.Put(ctx, verification.Code{ID: "old", Expires: time.Now().Add(-time.Second)}))

	_, ok := s.Peek("old")
	assert.False(t, ok)

	got, err := s.Consume(ctx, "old")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestKeyTooLong(t *testing.T) {
	s := newStore(t)
	err := s.Put(context.Background(), verification.Code{ID: strings.Repeat("a", 300)})
	assert.ErrorIs(t, err, ephemeral.ErrTooLong)
}

func TestCancelledContext(t *testing.T) {
	s := newStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Put(ctx, verification.Code{ID: "c"}), context.Canceled)
	_, err := s.Consume(ctx, "c")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConcurrentConsumeYieldsOneWinner(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	require.NoError(t, s.Put(ctx, verification.Code{ID: "race", Type: verification.TypeReset, Subject: "s"}))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := s.Consume(ctx, "race")
			if err == nil && got != nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}
