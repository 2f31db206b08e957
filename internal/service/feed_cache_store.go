package service

import (
	"context"
	"time"
)

// FeedCacheStore caches rendered timeline pages. Implementations must be
// safe for concurrent use; a nil-backend store degrades to cache misses.
type FeedCacheStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	InvalidateAll(ctx context.Context) error
}

// NoopFeedCacheStore is used when Redis is not configured.
type NoopFeedCacheStore struct{}

func NewNoopFeedCacheStore() *NoopFeedCacheStore { return &NoopFeedCacheStore{} }

func (NoopFeedCacheStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, nil
}

func (NoopFeedCacheStore) Set(context.Context, string, []byte, time.Duration) error {
	return nil
}

func (NoopFeedCacheStore) InvalidateAll(context.Context) error { return nil }
