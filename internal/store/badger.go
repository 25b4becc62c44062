package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"secure.paste/internal/models"
)

const badgerGCInterval = 5 * time.Minute

var _ Store = (*BadgerStore)(nil)

// BadgerStore keeps shares in badger. Retention maps onto entry TTLs, so
// badger drops expired records itself; a background loop reclaims the
// value log.
type BadgerStore struct {
	db        *badger.DB
	retention time.Duration
	log       logrus.FieldLogger
	gcCancel  context.CancelFunc
}

// OpenBadger opens the database in dir, or a purely in-memory database
// when inMemory is set.
func OpenBadger(dir string, inMemory bool, opts Options) (*BadgerStore, error) {
	log := opts.logger()

	bopts := badger.DefaultOptions(dir)
	if inMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	}
	bopts = bopts.
		WithLogger(log).
		WithLoggingLevel(badger.WARNING).
		WithValueLogFileSize(1024 * 1024 * 100) // 100MB per value log file

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}

	s := &BadgerStore{db: db, retention: opts.Retention, log: log}
	if !inMemory {
		ctx, cancel := context.WithCancel(context.Background())
		s.gcCancel = cancel
		go cleanupLoop(ctx, badgerGCInterval, s.collectGarbage)
	}
	return s, nil
}

func (s *BadgerStore) Put(ctx context.Context, share *models.Share) error {
	data, err := share.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encoding share: %w", err)
	}

	key := []byte(share.ID)
	err = s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if err == nil {
			return ErrExists
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		entry := badger.NewEntry(key, data)
		if s.retention > 0 {
			entry = entry.WithTTL(s.retention)
		}
		return txn.SetEntry(entry)
	})

	switch {
	case err == nil, errors.Is(err, ErrExists):
		return err
	case errors.Is(err, badger.ErrConflict):
		// A concurrent transaction wrote the same id first.
		return ErrExists
	default:
		s.log.WithError(err).WithField("id", share.ID).Error("badger put failed")
		return err
	}
}

func (s *BadgerStore) Get(ctx context.Context, id string) (*models.Share, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(id))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		s.log.WithError(err).WithField("id", id).Error("badger get failed")
		return nil, err
	}

	var share models.Share
	if err := share.UnmarshalBinary(data); err != nil {
		s.log.WithError(err).WithField("id", id).Error("corrupt share record")
		return nil, fmt.Errorf("decoding share: %w", err)
	}
	return &share, nil
}

func (s *BadgerStore) Delete(ctx context.Context, id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(id))
	})
}

func (s *BadgerStore) Close() error {
	if s.gcCancel != nil {
		s.gcCancel()
	}
	return s.db.Close()
}

func (s *BadgerStore) collectGarbage() {
	for {
		err := s.db.RunValueLogGC(0.5)
		if err == nil {
			continue
		}
		if !errors.Is(err, badger.ErrNoRewrite) {
			s.log.WithError(err).Warn("badger value log GC failed")
		}
		return
	}
}
