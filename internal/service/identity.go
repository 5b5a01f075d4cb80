package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/xid"
	"golang.org/x/sync/singleflight"

	"github.com/courseforge/usersync/internal/logger"
	"github.com/courseforge/usersync/internal/model"
)

// Identity is the authoritative store for users. Every mutating operation
// evicts the per-login cache entry in the same synchronous call as the
// write, so a subsequent read never observes a stale user.
type Identity struct {
	users  model.UserStore
	cache  model.UserCache
	rules  RoleRules
	logger *logger.Logger
	sf     singleflight.Group
}

func NewIdentity(users model.UserStore, cache model.UserCache, rules RoleRules, logger *logger.Logger) *Identity {
	return &Identity{
		users:  users,
		cache:  cache,
		rules:  rules,
		logger: logger,
	}
}

// NormalizeLogin case-normalizes a login the way it is stored.
func NormalizeLogin(login string) string {
	return strings.ToLower(strings.TrimSpace(login))
}

// GetByLogin returns the user, serving from cache when possible.
// Concurrent misses for the same login are coalesced into a single
// store read.
func (s *Identity) GetByLogin(ctx context.Context, login string) (model.User, error) {
	login = NormalizeLogin(login)

	if cached, err := s.cache.Get(ctx, login); err == nil {
		return *cached, nil
	}

	v, err, _ := s.sf.Do(login, func() (any, error) {
		user, err := s.users.GetByLogin(ctx, login)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return nil, model.ErrNotFound
			}
			return nil, fmt.Errorf("failed to get user by login: %w", err)
		}

		if err := s.cache.Set(ctx, login, user); err != nil {
			s.logger.Warn("identity: failed to cache user", "login", login, "error", err.Error())
		}
		return user, nil
	})
	if err != nil {
		return model.User{}, err
	}

	return v.(model.User), nil
}

// Create persists a new pending user. The caller supplies the password
// hash (or empty for external accounts). Duplicate login or email
// surfaces model.ErrConflict.
func (s *Identity) Create(ctx context.Context, user model.User) (model.User, error) {
	user.Login = NormalizeLogin(user.Login)
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	if !user.Activated && user.ActivationKey == "" {
		user.ActivationKey = xid.New().String()
	}
	user.Authorities = s.rules.Authorities(user.Groups)

	created, err := s.users.Create(ctx, user)
	if err != nil {
		if errors.Is(err, model.ErrConflict) {
			return model.User{}, model.ErrConflict
		}
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	s.evict(ctx, created.Login)

	s.logger.Info("identity: user created", "login", created.Login)
	return created, nil
}

// Save upserts the user's mutable fields and evicts the cache entry.
func (s *Identity) Save(ctx context.Context, user model.User) (model.User, error) {
	user.Login = NormalizeLogin(user.Login)
	user.Authorities = s.rules.Authorities(user.Groups)

	saved, err := s.users.Save(ctx, user)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) || errors.Is(err, model.ErrConflict) {
			return model.User{}, err
		}
		return model.User{}, fmt.Errorf("failed to save user: %w", err)
	}

	s.evict(ctx, saved.Login)

	return saved, nil
}

// Activate marks the user active and clears the consumed activation key.
func (s *Identity) Activate(ctx context.Context, user model.User) (model.User, error) {
	user.Activated = true
	user.ActivationKey = ""

	activated, err := s.Save(ctx, user)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to activate user: %w", err)
	}

	s.logger.Info("identity: user activated", "login", activated.Login)
	return activated, nil
}

// SetPassword stores a new password hash and clears any consumed reset key.
func (s *Identity) SetPassword(ctx context.Context, user model.User, hash string) (model.User, error) {
	user.PasswordHash = hash
	user.ResetKey = ""
	user.ResetDate = nil

	saved, err := s.Save(ctx, user)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to set password: %w", err)
	}

	return saved, nil
}

// Delete removes the user row and evicts the cache entry.
func (s *Identity) Delete(ctx context.Context, login string) error {
	login = NormalizeLogin(login)

	if err := s.users.Delete(ctx, login); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.ErrNotFound
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.evict(ctx, login)

	s.logger.Info("identity: user deleted", "login", login)
	return nil
}

func (s *Identity) evict(ctx context.Context, login string) {
	if err := s.cache.Evict(ctx, login); err != nil {
		s.logger.Warn("identity: failed to evict cached user", "login", login, "error", err.Error())
	}
}
