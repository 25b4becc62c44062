package store

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	return log
}

func TestBadgerStore(t *testing.T) {
	s, err := OpenBadger("", true, Options{Logger: quietLogger()})
	require.NoError(t, err)
	defer s.Close()

	testStoreContract(t, s)
}

func TestBadgerStoreOnDisk(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := OpenBadger(dir, false, Options{Logger: quietLogger()})
	require.NoError(t, err)
	share := newShare("on-disk")
	require.NoError(t, s.Put(ctx, share))
	require.NoError(t, s.Close())

	s, err = OpenBadger(dir, false, Options{Logger: quietLogger()})
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get(ctx, share.ID)
	require.NoError(t, err)
	assert.Equal(t, share.SealedContent, got.SealedContent)
}

func TestBadgerStoreRetention(t *testing.T) {
	s, err := OpenBadger("", true, Options{Retention: time.Second, Logger: quietLogger()})
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	share := newShare("short-lived")
	require.NoError(t, s.Put(ctx, share))

	_, err = s.Get(ctx, share.ID)
	require.NoError(t, err)

	// Badger TTLs have one-second resolution.
	assert.Eventually(t, func() bool {
		_, err := s.Get(ctx, share.ID)
		return err == ErrNotFound
	}, 5*time.Second, 100*time.Millisecond)
}
