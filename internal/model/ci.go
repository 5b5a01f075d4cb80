package model

import "context"

// ContinuousIntegrationService is the capability surface of the CI
// connector. Calls are best-effort side effects of local mutations.
type ContinuousIntegrationService interface {
	CreateUser(ctx context.Context, user User, password string) error
	UpdateUser(ctx context.Context, user User, password string) error
	DeleteUser(ctx context.Context, login string) error
	AddUserToGroups(ctx context.Context, login string, groups []string) error
	RemoveUserFromGroups(ctx context.Context, login string, groups []string) error
}
