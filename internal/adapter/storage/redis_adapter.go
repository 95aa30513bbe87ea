package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/meal-order/internal/core/domain"
)

// RedisStore keeps the local state in Redis so several server processes can
// share one catalog cache and one order counter.
type RedisStore struct {
	client *redis.Client
	keys   Keys
}

func NewRedisStore(client *redis.Client, keys Keys) *RedisStore {
	return &RedisStore{client: client, keys: keys}
}

func (r *RedisStore) LoadCatalog(ctx context.Context) (*domain.CatalogSnapshot, error) {
	var snap domain.CatalogSnapshot
	ok, err := r.getJSON(ctx, r.keys.Catalog, &snap)
	if err != nil || !ok {
		return nil, err
	}
	return &snap, nil
}

func (r *RedisStore) SaveCatalog(ctx context.Context, snapshot domain.CatalogSnapshot) error {
	return r.setJSON(ctx, r.keys.Catalog, snapshot)
}

// NextOrderNumber relies on INCR, which is atomic across clients.
func (r *RedisStore) NextOrderNumber(ctx context.Context) (int64, error) {
	n, err := r.client.Incr(ctx, r.keys.Counter).Result()
	if err != nil {
		return 0, fmt.Errorf("incr order counter: %w", err)
	}
	return n, nil
}

func (r *RedisStore) LoadProfile(ctx context.Context, owner string) (*domain.UserProfile, error) {
	var p domain.UserProfile
	ok, err := r.getJSON(ctx, r.keys.profile(owner), &p)
	if err != nil || !ok {
		return nil, err
	}
	return &p, nil
}

func (r *RedisStore) SaveProfile(ctx context.Context, owner string, profile domain.UserProfile) error {
	return r.setJSON(ctx, r.keys.profile(owner), profile)
}

func (r *RedisStore) getJSON(ctx context.Context, key string, v any) (bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (r *RedisStore) setJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return r.client.Set(ctx, key, data, 0).Err()
}
