package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"secure.paste/internal/models"
)

func newShare(id string) *models.Share {
	return &models.Share{
		ID:            id,
		SealedContent: []byte("sealed:" + id),
		CreatedAt:     time.Now().UTC(),
	}
}

// testStoreContract runs the behavior every engine must share.
func testStoreContract(t *testing.T, s Store) {
	ctx := context.Background()

	t.Run("put and get", func(t *testing.T) {
		share := newShare("contract-put-get")
		require.NoError(t, s.Put(ctx, share))

		got, err := s.Get(ctx, share.ID)
		require.NoError(t, err)
		assert.Equal(t, share.ID, got.ID)
		assert.Equal(t, share.SealedContent, got.SealedContent)
		assert.True(t, share.CreatedAt.Equal(got.CreatedAt))
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := s.Get(ctx, "contract-missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("put never overwrites", func(t *testing.T) {
		first := newShare("contract-dup")
		require.NoError(t, s.Put(ctx, first))

		second := newShare("contract-dup")
		second.SealedContent = []byte("other")
		assert.ErrorIs(t, s.Put(ctx, second), ErrExists)

		got, err := s.Get(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, first.SealedContent, got.SealedContent)
	})

	t.Run("delete", func(t *testing.T) {
		share := newShare("contract-delete")
		require.NoError(t, s.Put(ctx, share))
		require.NoError(t, s.Delete(ctx, share.ID))

		_, err := s.Get(ctx, share.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		// Deleting again is not an error.
		assert.NoError(t, s.Delete(ctx, share.ID))
	})

	t.Run("returned records are copies", func(t *testing.T) {
		share := newShare("contract-copy")
		require.NoError(t, s.Put(ctx, share))
		share.SealedContent[0] ^= 0xff

		got, err := s.Get(ctx, share.ID)
		require.NoError(t, err)
		got.SealedContent[0] ^= 0xff

		again, err := s.Get(ctx, share.ID)
		require.NoError(t, err)
		assert.Equal(t, []byte("sealed:contract-copy"), again.SealedContent)
	})

	t.Run("concurrent puts of one id", func(t *testing.T) {
		const writers = 8
		var wg sync.WaitGroup
		results := make(chan error, writers)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				share := newShare("contract-race")
				share.SealedContent = []byte(fmt.Sprintf("writer-%d", i))
				results <- s.Put(ctx, share)
			}(i)
		}
		wg.Wait()
		close(results)

		wins := 0
		for err := range results {
			if err == nil {
				wins++
				continue
			}
			assert.ErrorIs(t, err, ErrExists)
		}
		assert.Equal(t, 1, wins)
	})
}
