package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"

	"secure.paste/internal/models"
)

var sharesBucket = []byte("shares")

var _ Store = (*BoltStore)(nil)

// BoltStore keeps shares in a single bbolt bucket keyed by id.
type BoltStore struct {
	db            *bolt.DB
	retention     time.Duration
	now           func() time.Time
	log           logrus.FieldLogger
	cleanupCancel context.CancelFunc
}

// OpenBolt opens or creates the database file at path.
func OpenBolt(path string, opts Options) (*BoltStore, error) {
	return openBolt(path, opts, time.Now)
}

func openBolt(path string, opts Options, now func() time.Time) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sharesBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket %s: %w", sharesBucket, err)
	}

	s := &BoltStore{db: db, retention: opts.Retention, now: now, log: opts.logger()}
	if opts.Retention > 0 {
		ctx, cancel := context.WithCancel(context.Background())
		s.cleanupCancel = cancel
		go cleanupLoop(ctx, sweepInterval(opts.Retention), s.cleanup)
	}
	return s, nil
}

func (s *BoltStore) Put(ctx context.Context, share *models.Share) error {
	data, err := share.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encoding share: %w", err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(sharesBucket)
		key := []byte(share.ID)
		if b.Get(key) != nil {
			return ErrExists
		}
		return b.Put(key, data)
	})
	if err != nil && !errors.Is(err, ErrExists) {
		s.log.WithError(err).WithField("id", share.ID).Error("bolt put failed")
	}
	return err
}

func (s *BoltStore) Get(ctx context.Context, id string) (*models.Share, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(sharesBucket).Get([]byte(id))
		if v == nil {
			return ErrNotFound
		}
		// Make a copy since the slice is only valid during the transaction
		data = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.log.WithError(err).WithField("id", id).Error("bolt get failed")
		}
		return nil, err
	}

	var share models.Share
	if err := share.UnmarshalBinary(data); err != nil {
		s.log.WithError(err).WithField("id", id).Error("corrupt share record")
		return nil, fmt.Errorf("decoding share: %w", err)
	}

	if expired(&share, s.retention, s.now()) {
		return nil, ErrNotFound
	}
	return &share, nil
}

func (s *BoltStore) Delete(ctx context.Context, id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sharesBucket).Delete([]byte(id))
	})
}

func (s *BoltStore) Close() error {
	if s.cleanupCancel != nil {
		s.cleanupCancel()
	}
	return s.db.Close()
}

func (s *BoltStore) cleanup() {
	now := s.now()
	removed := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(sharesBucket)

		var stale [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var share models.Share
			if err := share.UnmarshalBinary(v); err == nil && expired(&share, s.retention, now) {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}

		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		removed = len(stale)
		return nil
	})
	if err != nil {
		s.log.WithError(err).Warn("bolt cleanup failed")
		return
	}
	if removed > 0 {
		s.log.WithField("removed", removed).Debug("expired shares removed")
	}
}
