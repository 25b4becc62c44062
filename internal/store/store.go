package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"secure.paste/config"
	"secure.paste/internal/models"
)

var (
	ErrNotFound = errors.New("share not found")
	ErrExists   = errors.New("share already exists")
	ErrClosed   = errors.New("store is closed")
)

// Store persists sealed shares. Records are immutable: Put never
// overwrites an existing id.
type Store interface {
	Put(ctx context.Context, share *models.Share) error
	Get(ctx context.Context, id string) (*models.Share, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

type Options struct {
	// Retention drops records older than this. Zero keeps them forever.
	Retention time.Duration
	Logger    logrus.FieldLogger
}

func (o Options) logger() logrus.FieldLogger {
	if o.Logger == nil {
		return logrus.StandardLogger()
	}
	return o.Logger
}

// Open builds the store engine selected by cfg.
func Open(cfg config.StoreConfig, log logrus.FieldLogger) (Store, error) {
	opts := Options{Retention: cfg.Retention, Logger: log.WithField("store", cfg.Type)}

	switch cfg.Type {
	case config.StoreMemory:
		return NewMemoryStore(opts), nil
	case config.StoreRedis:
		return NewRedisStore(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, opts)
	case config.StoreBolt:
		return OpenBolt(cfg.Bolt.Path, opts)
	case config.StoreBadger:
		return OpenBadger(cfg.Badger.Path, cfg.Badger.InMemory, opts)
	default:
		return nil, fmt.Errorf("unknown store type: %s", cfg.Type)
	}
}

func expired(share *models.Share, retention time.Duration, now time.Time) bool {
	return retention > 0 && now.Sub(share.CreatedAt) >= retention
}

// sweepInterval picks how often expired records are purged.
func sweepInterval(retention time.Duration) time.Duration {
	interval := retention / 4
	if interval < time.Second {
		return time.Second
	}
	if interval > time.Minute {
		return time.Minute
	}
	return interval
}

func cleanupLoop(ctx context.Context, interval time.Duration, sweep func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep()
		}
	}
}

func cloneShare(share *models.Share) *models.Share {
	return &models.Share{
		ID:            share.ID,
		SealedContent: append([]byte(nil), share.SealedContent...),
		CreatedAt:     share.CreatedAt,
	}
}
