package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/surveylab/internal/config"
	"github.com/stemsi/surveylab/internal/model"
)

// RedisSessionRepository stores sessions as JSON strings with a sliding TTL,
// so sessions survive restarts and are shared between replicas.
type RedisSessionRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisSessionRepository(rdb *redis.Client, ttl time.Duration) *RedisSessionRepository {
	return &RedisSessionRepository{rdb: rdb, ttl: ttl}
}

func (r *RedisSessionRepository) Get(ctx context.Context, id string) (*model.Session, error) {
	raw, err := r.rdb.Get(ctx, config.CacheKey.SessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	var s model.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if s.Surveys == nil {
		s.Surveys = make(map[string]*model.Survey)
	}
	return &s, nil
}

func (r *RedisSessionRepository) Exists(ctx context.Context, id string) (bool, error) {
	n, err := r.rdb.Exists(ctx, config.CacheKey.SessionKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("check session: %w", err)
	}
	return n > 0, nil
}

// Save writes the session under WATCH so that a replica saving the same
// session in between makes this transaction fail instead of being lost.
func (r *RedisSessionRepository) Save(ctx context.Context, s *model.Session) error {
	key := config.CacheKey.SessionKey(s.ID)

	next := *s
	next.Version++
	raw, err := json.Marshal(&next)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	err = r.rdb.Watch(ctx, func(tx *redis.Tx) error {
		stored, err := storedVersion(ctx, tx, key)
		switch {
		case errors.Is(err, redis.Nil):
			if s.Version != 0 {
				return ErrSessionNotFound
			}
		case err != nil:
			return err
		case stored != s.Version:
			return ErrSessionConflict
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, r.ttl)
			return nil
		})
		return err
	}, key)

	switch {
	case err == nil:
		s.Version = next.Version
		return nil
	case errors.Is(err, redis.TxFailedErr):
		return ErrSessionConflict
	case errors.Is(err, ErrSessionConflict), errors.Is(err, ErrSessionNotFound):
		return err
	default:
		return fmt.Errorf("save session: %w", err)
	}
}

// storedVersion reads only the version of the stored session.
func storedVersion(ctx context.Context, tx *redis.Tx, key string) (int64, error) {
	raw, err := tx.Get(ctx, key).Bytes()
	if err != nil {
		return 0, err
	}
	var head struct {
		Version int64 `json:"version"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return 0, fmt.Errorf("decode session: %w", err)
	}
	return head.Version, nil
}

func (r *RedisSessionRepository) Delete(ctx context.Context, id string) error {
	return r.rdb.Del(ctx, config.CacheKey.SessionKey(id)).Err()
}
