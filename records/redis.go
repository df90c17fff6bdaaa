package records

import (
	"context"
	"errors"
	"fmt"

	"cnis.health/nse/redis"
)

const RecordsDB redis.DB = 0

const allRecordsKey = "screenings:all"

func recordKey(id string) string {
	return fmt.Sprintf("screening:%s", id)
}

func userRecordsKey(userID string) string {
	return fmt.Sprintf("screenings:user:%s", userID)
}

func fingerprintKey(fingerprint string) string {
	return fmt.Sprintf("screening-fingerprint:%s", fingerprint)
}

// RedisStore keeps each record as a JSON document, indexed by sorted sets
// scored by creation time and by a fingerprint key.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Put(ctx context.Context, r *Record) (err error) {
	if r.Fingerprint != "" {
		var releaseLock redis.ReleaseLock
		releaseLock, err = s.client.Lock(ctx, fingerprintKey(r.Fingerprint))
		if err != nil {
			return err
		}
		defer func() {
			if err != nil {
				_ = releaseLock()
				return
			}
			err = releaseLock()
		}()
		if _, err = s.client.Get(ctx, fingerprintKey(r.Fingerprint)); err == nil {
			return ErrDuplicate
		} else if !errors.Is(err, redis.ErrNotFound) {
			return err
		}
	}
	if _, err = s.client.Get(ctx, recordKey(r.ID)); err == nil {
		return ErrDuplicate
	} else if !errors.Is(err, redis.ErrNotFound) {
		return err
	}

	score := float64(r.CreatedAt.UnixMilli())
	return s.client.Atomically(ctx, func(b *redis.Batch) error {
		if err := b.SetJSON(recordKey(r.ID), r); err != nil {
			return err
		}
		b.ZAdd(allRecordsKey, score, r.ID)
		if r.UserID != "" {
			b.ZAdd(userRecordsKey(r.UserID), score, r.ID)
		}
		if r.Fingerprint != "" {
			b.Set(fingerprintKey(r.Fingerprint), r.ID)
		}
		return nil
	})
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Record, error) {
	var r Record
	err := s.client.GetJSON(ctx, recordKey(id), &r)
	if errors.Is(err, redis.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *RedisStore) List(ctx context.Context, userID string, limit int) ([]*Record, error) {
	key := allRecordsKey
	if userID != "" {
		key = userRecordsKey(userID)
	}
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}
	ids, err := s.client.ZRevRange(ctx, key, 0, stop)
	if err != nil {
		return nil, err
	}
	list := make([]*Record, 0, len(ids))
	for _, id := range ids {
		r, err := s.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		list = append(list, r)
	}
	return list, nil
}

func (s *RedisStore) FindByFingerprint(ctx context.Context, fingerprint string) (*Record, error) {
	if fingerprint == "" {
		return nil, ErrNotFound
	}
	id, err := s.client.Get(ctx, fingerprintKey(fingerprint))
	if errors.Is(err, redis.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}
