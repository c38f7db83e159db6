package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/amishk599/expawatch/internal/model"
)

// RedisOptions configures RedisStore.
type RedisOptions struct {
	Address  string
	Password string
	DB       int
	Prefix   string // key prefix; one hash per kind at <prefix>:<collection>
}

// RedisStore keeps one hash per kind, field = record id. HSETNX provides the
// uniqueness constraint.
type RedisStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Address,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return newRedisStore(client, opts.Prefix), nil
}

func newRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "expawatch"
	}
	return &RedisStore{client: client, prefix: prefix, now: time.Now}
}

func (s *RedisStore) key(kind model.Kind) (string, error) {
	tbl, err := table(kind)
	if err != nil {
		return "", err
	}
	return s.prefix + ":" + tbl, nil
}

// InsertIfAbsent stores rec unless its id is already present.
func (s *RedisStore) InsertIfAbsent(ctx context.Context, rec model.Record) (model.InsertResult, error) {
	key, err := s.key(rec.Kind)
	if err != nil {
		return model.StoreFailed, fmt.Errorf("%w: %v", model.ErrStoreFailed, err)
	}
	value, err := json.Marshal(model.StoredRecord{Record: rec, FetchedAt: s.now().UTC()})
	if err != nil {
		return model.StoreFailed, fmt.Errorf("%w: encoding %s %s: %v", model.ErrStoreFailed, rec.Kind, rec.ID, err)
	}
	added, err := s.client.HSetNX(ctx, key, rec.ID, value).Result()
	if err != nil {
		return model.StoreFailed, fmt.Errorf("%w: inserting %s %s: %w", model.ErrStoreFailed, rec.Kind, rec.ID, err)
	}
	if !added {
		return model.Duplicate, nil
	}
	return model.Inserted, nil
}

// Get returns the stored record, or model.ErrRecordNotFound.
func (s *RedisStore) Get(ctx context.Context, kind model.Kind, id string) (model.StoredRecord, error) {
	key, err := s.key(kind)
	if err != nil {
		return model.StoredRecord{}, err
	}
	raw, err := s.client.HGet(ctx, key, id).Result()
	if errors.Is(err, redis.Nil) {
		return model.StoredRecord{}, fmt.Errorf("%s %s: %w", kind, id, model.ErrRecordNotFound)
	}
	if err != nil {
		return model.StoredRecord{}, fmt.Errorf("reading %s %s: %w", kind, id, err)
	}
	var rec model.StoredRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return model.StoredRecord{}, fmt.Errorf("decoding %s %s: %w", kind, id, err)
	}
	return rec, nil
}

// List returns up to limit records of kind, most recently fetched first.
// A limit of zero or less returns every record.
func (s *RedisStore) List(ctx context.Context, kind model.Kind, limit int) ([]model.StoredRecord, error) {
	key, err := s.key(kind)
	if err != nil {
		return nil, err
	}
	all, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", key, err)
	}
	out := make([]model.StoredRecord, 0, len(all))
	for id, raw := range all {
		var rec model.StoredRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("decoding %s %s: %w", kind, id, err)
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].FetchedAt.Equal(out[j].FetchedAt) {
			return out[i].FetchedAt.After(out[j].FetchedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Close closes the Redis connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
