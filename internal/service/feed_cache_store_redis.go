package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisFeedCacheStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisFeedCacheStore(client redis.UniversalClient, prefix string) *RedisFeedCacheStore {
	if prefix == "" {
		prefix = "feed_cache"
	}
	return &RedisFeedCacheStore{client: client, prefix: prefix}
}

func (s *RedisFeedCacheStore) dataKey(key string) string {
	return s.prefix + ":" + key
}

func (s *RedisFeedCacheStore) indexKey() string {
	return s.prefix + ":index"
}

func (s *RedisFeedCacheStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s.client == nil {
		return nil, false, nil
	}
	val, err := s.client.Get(ctx, s.dataKey(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (s *RedisFeedCacheStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if s.client == nil || ttl <= 0 {
		return nil
	}
	dataKey := s.dataKey(key)
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, dataKey, value, ttl)
	pipe.SAdd(ctx, s.indexKey(), dataKey)
	pipe.Expire(ctx, s.indexKey(), ttl+time.Minute)
	_, err := pipe.Exec(ctx)
	return err
}

// InvalidateAll drops every cached page via the index set; the timeline is
// global, so any new post invalidates all pages.
func (s *RedisFeedCacheStore) InvalidateAll(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	members, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil && err != redis.Nil {
		return err
	}
	pipe := s.client.TxPipeline()
	for _, member := range members {
		pipe.Del(ctx, member)
	}
	pipe.Del(ctx, s.indexKey())
	_, err = pipe.Exec(ctx)
	return err
}
