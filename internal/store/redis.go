// redis.go
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"secure.paste/internal/models"
)

var _ Store = (*RedisStore)(nil)

type RedisStore struct {
	client    *redis.Client
	retention time.Duration
	log       logrus.FieldLogger
}

func NewRedisStore(options *redis.Options, opts Options) (*RedisStore, error) {
	client := redis.NewClient(options)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisStore{client: client, retention: opts.Retention, log: opts.logger()}, nil
}

// Put relies on SETNX so two writers racing on one id cannot both win.
// Redis expires the key itself when retention is set.
func (r *RedisStore) Put(ctx context.Context, share *models.Share) error {
	data, err := share.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encoding share: %w", err)
	}

	ok, err := r.client.SetNX(ctx, shareKey(share.ID), data, r.retention).Result()
	if err != nil {
		r.log.WithError(err).WithField("id", share.ID).Error("redis put failed")
		return err
	}
	if !ok {
		return ErrExists
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, id string) (*models.Share, error) {
	data, err := r.client.Get(ctx, shareKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		r.log.WithError(err).WithField("id", id).Error("redis get failed")
		return nil, err
	}

	var share models.Share
	if err := share.UnmarshalBinary(data); err != nil {
		r.log.WithError(err).WithField("id", id).Error("corrupt share record")
		return nil, fmt.Errorf("decoding share: %w", err)
	}

	return &share, nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, shareKey(id)).Err()
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

// Helpers

func shareKey(id string) string {
	return "share:" + id
}
