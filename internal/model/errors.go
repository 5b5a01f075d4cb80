package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a unique constraint (login, email)
	// would be violated.
	ErrConflict = errors.New("already exists")

	// ErrInvalidCredentials is returned when the supplied current
	// password does not match the stored hash.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrPrincipalNotFound is returned by a remote system that does not
	// (yet) know the principal a call refers to. Shortly after account
	// creation this is an expected propagation delay, not a hard error.
	ErrPrincipalNotFound = errors.New("principal not found on remote system")
)

// RemoteError describes a failed call to an external system.
type RemoteError struct {
	System     string
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %s (status %d)", e.System, e.Message, e.StatusCode)
}

// IsRemoteStatus reports whether err is a RemoteError with the given status.
func IsRemoteStatus(err error, status int) bool {
	var remoteErr *RemoteError
	return errors.As(err, &remoteErr) && remoteErr.StatusCode == status
}

// PushDateError is returned when a push date cannot be resolved, neither
// from the event payload nor from the remote activity feed.
type PushDateError struct {
	ParticipationID int64
	CommitHash      string
}

func (e *PushDateError) Error() string {
	return fmt.Sprintf("no push date for participation %d and commit %s", e.ParticipationID, e.CommitHash)
}
