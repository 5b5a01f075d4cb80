package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Authorities derived from group membership.
const (
	RoleUser       = "ROLE_USER"
	RoleTA         = "ROLE_TA"
	RoleInstructor = "ROLE_INSTRUCTOR"
	RoleAdmin      = "ROLE_ADMIN"
)

// UserStore defines persistence operations for users.
type UserStore interface {
	GetByLogin(ctx context.Context, login string) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	Create(ctx context.Context, user User) (User, error)
	Save(ctx context.Context, user User) (User, error)
	Delete(ctx context.Context, login string) error
}

// UserCache caches users by login. The identity store evicts entries
// alongside every write so a read after a committed write never sees a
// stale user.
type UserCache interface {
	Get(ctx context.Context, login string) (*User, error)
	Set(ctx context.Context, login string, user User) error
	Evict(ctx context.Context, login string) error
}

// User represents a platform account and its synchronization state.
type User struct {
	ID                 uuid.UUID
	Login              string
	PasswordHash       string
	Email              string
	DisplayName        string
	RegistrationNumber string
	Activated          bool
	ActivationKey      string
	ResetKey           string
	ResetDate          *time.Time
	Groups             []string
	Authorities        []string
	CreatedAt          time.Time
	// Internal marks accounts whose password the platform manages. An
	// external (SSO) account never stores a usable platform password.
	Internal bool
}

// GroupDelta is the reconciliation delta between two group membership
// snapshots. Added and Removed are disjoint; a group present in both
// snapshots appears in neither.
type GroupDelta struct {
	Added   []string
	Removed []string
}
