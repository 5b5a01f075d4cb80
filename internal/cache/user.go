package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/courseforge/usersync/internal/model"
)

var _ model.UserCache = (*UserCache)(nil)

// UserCache caches users by login on top of the generic cache.
type UserCache struct {
	cache *Cache
}

func NewUserCache(cache *Cache) *UserCache {
	return &UserCache{cache: cache}
}

func userKey(login string) string {
	return "user:" + login
}

func (c *UserCache) Get(ctx context.Context, login string) (*model.User, error) {
	b, err := c.cache.Get(ctx, userKey(login))
	if errors.Is(err, ErrMiss) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached user: %w", err)
	}

	var user model.User
	if err := json.Unmarshal(b, &user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached user: %w", err)
	}
	return &user, nil
}

func (c *UserCache) Set(ctx context.Context, login string, user model.User) error {
	b, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}
	if err := c.cache.Set(ctx, userKey(login), b); err != nil {
		return fmt.Errorf("failed to cache user: %w", err)
	}
	return nil
}

func (c *UserCache) Evict(ctx context.Context, login string) error {
	if err := c.cache.Evict(ctx, userKey(login)); err != nil {
		return fmt.Errorf("failed to evict cached user: %w", err)
	}
	return nil
}
