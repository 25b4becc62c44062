package store

import (
	"context"
	"sync"
	"time"

	"secure.paste/internal/models"
)

// Compile-time interface check
var _ Store = (*MemoryStore)(nil)

type MemoryStore struct {
	shares        map[string]*models.Share
	mu            sync.RWMutex
	retention     time.Duration
	now           func() time.Time
	cleanupCancel context.CancelFunc
}

func NewMemoryStore(opts Options) *MemoryStore {
	return newMemoryStore(opts, time.Now)
}

func newMemoryStore(opts Options, now func() time.Time) *MemoryStore {
	store := &MemoryStore{
		shares:    make(map[string]*models.Share),
		retention: opts.Retention,
		now:       now,
	}
	if opts.Retention > 0 {
		ctx, cancel := context.WithCancel(context.Background())
		store.cleanupCancel = cancel
		go cleanupLoop(ctx, sweepInterval(opts.Retention), store.cleanup)
	}
	return store
}

func (s *MemoryStore) Put(ctx context.Context, share *models.Share) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.shares == nil {
		return ErrClosed
	}
	if _, ok := s.shares[share.ID]; ok {
		return ErrExists
	}

	s.shares[share.ID] = cloneShare(share)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*models.Share, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.shares == nil {
		return nil, ErrClosed
	}

	share, ok := s.shares[id]
	if !ok || expired(share, s.retention, s.now()) {
		return nil, ErrNotFound
	}

	return cloneShare(share), nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.shares, id)
	return nil
}

// Len reports how many records are held, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.shares)
}

func (s *MemoryStore) Close() error {
	if s.cleanupCancel != nil {
		s.cleanupCancel()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.shares = nil
	return nil
}

func (s *MemoryStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, share := range s.shares {
		if expired(share, s.retention, now) {
			delete(s.shares, id)
		}
	}
}
