package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is safe to advance while a cleanup goroutine reads it.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore(Options{})
	defer s.Close()

	testStoreContract(t, s)
}

func TestMemoryStoreRetention(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	s := newMemoryStore(Options{Retention: time.Hour}, clock.Now)
	defer s.Close()

	ctx := context.Background()
	share := newShare("retained")
	share.CreatedAt = clock.Now()
	require.NoError(t, s.Put(ctx, share))

	_, err := s.Get(ctx, share.ID)
	require.NoError(t, err)

	clock.Advance(time.Hour)
	_, err = s.Get(ctx, share.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, s.Len())

	s.cleanup()
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStoreClosed(t *testing.T) {
	s := NewMemoryStore(Options{})
	require.NoError(t, s.Close())

	ctx := context.Background()
	assert.ErrorIs(t, s.Put(ctx, newShare("late")), ErrClosed)
	_, err := s.Get(ctx, "late")
	assert.ErrorIs(t, err, ErrClosed)
}
