package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/courseforge/usersync/internal/mocks"
	"github.com/courseforge/usersync/internal/model"
	"github.com/courseforge/usersync/internal/testutil"
)

var testRules = RoleRules{
	AdminGroup:            "administrators",
	InstructorGroupSuffix: "-instructors",
	TAGroupSuffix:         "-tutors",
}

func newTestIdentity(users *mocks.UserStore, cache *mocks.UserCache) *Identity {
	return NewIdentity(users, cache, testRules, testutil.MakeNoopLogger())
}

func TestIdentity_Create_NormalizesAndDerives(t *testing.T) {
	users := &mocks.UserStore{}
	cache := &mocks.UserCache{}

	users.On("Create", mock.Anything, mock.MatchedBy(func(u model.User) bool {
		return u.Login == "alice" &&
			u.ActivationKey != "" &&
			!u.CreatedAt.IsZero() &&
			assert.ObjectsAreEqual([]string{model.RoleUser, model.RoleTA}, u.Authorities)
	})).Return(model.User{Login: "alice"}, nil)
	cache.On("Evict", mock.Anything, "alice").Return(nil)

	s := newTestIdentity(users, cache)

	created, err := s.Create(context.Background(), model.User{
		Login:  " Alice ",
		Email:  "alice@example.com",
		Groups: []string{"algo-tutors"},
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", created.Login)

	users.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestIdentity_Create_Conflict(t *testing.T) {
	users := &mocks.UserStore{}
	cache := &mocks.UserCache{}

	users.On("Create", mock.Anything, mock.Anything).Return(model.User{}, model.ErrConflict)

	s := newTestIdentity(users, cache)

	_, err := s.Create(context.Background(), model.User{Login: "alice", Email: "a@b.c"})
	assert.ErrorIs(t, err, model.ErrConflict)
	cache.AssertNotCalled(t, "Evict", mock.Anything, mock.Anything)
}

func TestIdentity_GetByLogin_CacheHit(t *testing.T) {
	users := &mocks.UserStore{}
	cache := &mocks.UserCache{}

	cached := model.User{Login: "alice", Email: "alice@example.com"}
	cache.On("Get", mock.Anything, "alice").Return(&cached, nil)

	s := newTestIdentity(users, cache)

	user, err := s.GetByLogin(context.Background(), "Alice")
	require.NoError(t, err)
	assert.Equal(t, cached, user)
	users.AssertNotCalled(t, "GetByLogin", mock.Anything, mock.Anything)
}

func TestIdentity_GetByLogin_CacheMissLoadsAndCaches(t *testing.T) {
	users := &mocks.UserStore{}
	cache := &mocks.UserCache{}

	stored := model.User{Login: "alice"}
	cache.On("Get", mock.Anything, "alice").Return(nil, model.ErrNotFound)
	users.On("GetByLogin", mock.Anything, "alice").Return(stored, nil)
	cache.On("Set", mock.Anything, "alice", stored).Return(nil)

	s := newTestIdentity(users, cache)

	user, err := s.GetByLogin(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, stored, user)
	cache.AssertExpectations(t)
}

func TestIdentity_Save_EvictsCache(t *testing.T) {
	users := &mocks.UserStore{}
	cache := &mocks.UserCache{}

	saved := model.User{Login: "alice", DisplayName: "Alice A."}
	users.On("Save", mock.Anything, mock.Anything).Return(saved, nil)
	cache.On("Evict", mock.Anything, "alice").Return(nil)

	s := newTestIdentity(users, cache)

	_, err := s.Save(context.Background(), model.User{Login: "alice", DisplayName: "Alice A."})
	require.NoError(t, err)
	cache.AssertCalled(t, "Evict", mock.Anything, "alice")
}

func TestIdentity_Activate_ClearsKey(t *testing.T) {
	users := &mocks.UserStore{}
	cache := &mocks.UserCache{}

	users.On("Save", mock.Anything, mock.MatchedBy(func(u model.User) bool {
		return u.Activated && u.ActivationKey == ""
	})).Return(model.User{Login: "alice", Activated: true}, nil)
	cache.On("Evict", mock.Anything, "alice").Return(nil)

	s := newTestIdentity(users, cache)

	activated, err := s.Activate(context.Background(), model.User{Login: "alice", ActivationKey: "key123"})
	require.NoError(t, err)
	assert.True(t, activated.Activated)
	users.AssertExpectations(t)
}

func TestIdentity_SetPassword_ClearsResetState(t *testing.T) {
	users := &mocks.UserStore{}
	cache := &mocks.UserCache{}

	users.On("Save", mock.Anything, mock.MatchedBy(func(u model.User) bool {
		return u.PasswordHash == "newhash" && u.ResetKey == "" && u.ResetDate == nil
	})).Return(model.User{Login: "alice", PasswordHash: "newhash"}, nil)
	cache.On("Evict", mock.Anything, "alice").Return(nil)

	s := newTestIdentity(users, cache)

	_, err := s.SetPassword(context.Background(), model.User{Login: "alice", ResetKey: "rk"}, "newhash")
	require.NoError(t, err)
	users.AssertExpectations(t)
}

func TestIdentity_Delete_EvictsCache(t *testing.T) {
	users := &mocks.UserStore{}
	cache := &mocks.UserCache{}

	users.On("Delete", mock.Anything, "alice").Return(nil)
	cache.On("Evict", mock.Anything, "alice").Return(nil)

	s := newTestIdentity(users, cache)

	require.NoError(t, s.Delete(context.Background(), "alice"))
	cache.AssertCalled(t, "Evict", mock.Anything, "alice")
}
