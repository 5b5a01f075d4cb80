package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/courseforge/usersync/internal/mocks"
	"github.com/courseforge/usersync/internal/model"
	"github.com/courseforge/usersync/internal/testutil"
)

var testRepo = model.RepositoryRef{ProjectKey: "ALGO", Slug: "algo-alice"}

func newTestGrantor(vcs model.VersionControlService, now time.Time) (*Grantor, *int) {
	g := NewGrantor(vcs, 90*time.Second, 5*time.Second, 5, testutil.MakeNoopLogger())
	g.now = func() time.Time { return now }
	sleeps := 0
	g.sleep = func(time.Duration) { sleeps++ }
	return g, &sleeps
}

func TestGrantor_Success_FirstAttempt(t *testing.T) {
	vcs := &mocks.VersionControlService{}
	vcs.On("GrantRepositoryAccess", mock.Anything, testRepo, "alice", model.PermissionWrite).Return(nil).Once()

	now := time.Now()
	g, sleeps := newTestGrantor(vcs, now)

	user := model.User{Login: "alice", CreatedAt: now.Add(-10 * time.Second)}
	require.NoError(t, g.Grant(context.Background(), testRepo, user, model.PermissionWrite))
	assert.Equal(t, 0, *sleeps)
	vcs.AssertExpectations(t)
}

func TestGrantor_RetriesWithinGraceWindow(t *testing.T) {
	vcs := &mocks.VersionControlService{}
	vcs.On("GrantRepositoryAccess", mock.Anything, testRepo, "alice", model.PermissionWrite).
		Return(model.ErrPrincipalNotFound).Twice()
	vcs.On("GrantRepositoryAccess", mock.Anything, testRepo, "alice", model.PermissionWrite).
		Return(nil).Once()

	now := time.Now()
	g, sleeps := newTestGrantor(vcs, now)

	// Created 10s ago: the principal-not-found answers are a
	// propagation race, the third attempt succeeds.
	user := model.User{Login: "alice", CreatedAt: now.Add(-10 * time.Second)}
	require.NoError(t, g.Grant(context.Background(), testRepo, user, model.PermissionWrite))
	assert.Equal(t, 2, *sleeps)
	vcs.AssertNumberOfCalls(t, "GrantRepositoryAccess", 3)
}

func TestGrantor_ExhaustsAttempts(t *testing.T) {
	vcs := &mocks.VersionControlService{}
	vcs.On("GrantRepositoryAccess", mock.Anything, testRepo, "alice", model.PermissionWrite).
		Return(model.ErrPrincipalNotFound)

	now := time.Now()
	g, sleeps := newTestGrantor(vcs, now)

	user := model.User{Login: "alice", CreatedAt: now.Add(-5 * time.Second)}
	err := g.Grant(context.Background(), testRepo, user, model.PermissionWrite)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrPrincipalNotFound)
	assert.Equal(t, 4, *sleeps)
	vcs.AssertNumberOfCalls(t, "GrantRepositoryAccess", 5)
}

func TestGrantor_FailsFastOutsideGraceWindow(t *testing.T) {
	vcs := &mocks.VersionControlService{}
	vcs.On("GrantRepositoryAccess", mock.Anything, testRepo, "bob", model.PermissionRead).
		Return(model.ErrPrincipalNotFound).Once()

	now := time.Now()
	g, sleeps := newTestGrantor(vcs, now)

	// Created an hour ago: the remote system should know the account by
	// now, so this is a real error, not a race.
	user := model.User{Login: "bob", CreatedAt: now.Add(-time.Hour)}
	err := g.Grant(context.Background(), testRepo, user, model.PermissionRead)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrPrincipalNotFound)
	assert.Equal(t, 0, *sleeps)
	vcs.AssertNumberOfCalls(t, "GrantRepositoryAccess", 1)
}

func TestGrantor_PermanentErrorNotRetried(t *testing.T) {
	vcs := &mocks.VersionControlService{}
	permanent := errors.New("permission scheme is read-only")
	vcs.On("GrantRepositoryAccess", mock.Anything, testRepo, "alice", model.PermissionWrite).
		Return(permanent).Once()

	now := time.Now()
	g, _ := newTestGrantor(vcs, now)

	user := model.User{Login: "alice", CreatedAt: now.Add(-time.Second)}
	err := g.Grant(context.Background(), testRepo, user, model.PermissionWrite)
	require.Error(t, err)
	assert.ErrorIs(t, err, permanent)
	vcs.AssertNumberOfCalls(t, "GrantRepositoryAccess", 1)
}
