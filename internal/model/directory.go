package model

import "context"

// DirectoryService is the capability surface of the directory / SSO
// connector. Group errors are expected for platform-local groups and are
// swallowed at the call site.
type DirectoryService interface {
	CreateUser(ctx context.Context, user User) error
	AddUserToGroup(ctx context.Context, login, group string) error
	RemoveUserFromGroup(ctx context.Context, login, group string) error
}
