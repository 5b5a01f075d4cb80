package model

import (
	"context"
	"time"
)

// RepositoryPermission is an access level on a remote repository.
type RepositoryPermission string

const (
	PermissionRead  RepositoryPermission = "REPO_READ"
	PermissionWrite RepositoryPermission = "REPO_WRITE"
	PermissionAdmin RepositoryPermission = "REPO_ADMIN"
)

// RepositoryRef addresses a repository on the version control server.
type RepositoryRef struct {
	ProjectKey string
	Slug       string
}

// Commit is a best-effort record extracted from a push event payload.
// Every field may be empty: payload parsing never fails the caller, it
// degrades to a partially populated commit instead.
type Commit struct {
	Hash    string
	Branch  string
	Author  string
	Email   string
	Message string
}

// Participation identifies the exercise participation a push belongs to.
type Participation struct {
	ID         int64
	Repository RepositoryRef
}

// VersionControlService is the capability surface of the version control
// connector. Implementations talk to the remote server and never cache
// its state beyond the current call.
type VersionControlService interface {
	UserExists(ctx context.Context, login string) (bool, error)
	CreateUser(ctx context.Context, user User, password string) error
	UpdateUser(ctx context.Context, user User) error
	UpdatePassword(ctx context.Context, login, password string) error
	DeleteUser(ctx context.Context, login string) error
	AddUserToGroups(ctx context.Context, login string, groups []string) error
	RemoveUserFromGroups(ctx context.Context, login string, groups []string) error

	CreateRepository(ctx context.Context, repo RepositoryRef) error
	DeleteRepository(ctx context.Context, repo RepositoryRef) error
	GrantRepositoryAccess(ctx context.Context, repo RepositoryRef, login string, permission RepositoryPermission) error
	RevokeRepositoryAccess(ctx context.Context, repo RepositoryRef, login string) error
	ProtectBranches(ctx context.Context, repo RepositoryRef) error
	EnsureWebhook(ctx context.Context, repo RepositoryRef, name, url string) error
	DefaultBranch(ctx context.Context, repo RepositoryRef) (string, error)

	LastCommit(payload []byte) Commit
	PushDate(ctx context.Context, participation Participation, commitHash string, payload []byte) (time.Time, error)
}
