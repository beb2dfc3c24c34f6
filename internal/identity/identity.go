// Package identity abstracts the external authentication service. The
// lifecycle operations read and delete identity records but never create
// or otherwise mutate them.
package identity

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no identity exists for the given UID. An
// already-deleted identity is surfaced with this error so callers can
// treat repeat deletion as success-equivalent.
var ErrNotFound = errors.New("identity: user not found")

// User is the subset of an identity record the lifecycle operations need.
type User struct {
	UID       string
	Email     string
	CreatedAt time.Time

	// Anonymous is true when the identity has no linked login provider
	// (a guest session).
	Anonymous bool
}

// Service is the interface to the authentication provider. It is injected
// so tests can substitute the in-memory fake.
type Service interface {
	// GetUser fetches the identity record for the given UID.
	// Returns ErrNotFound when the identity does not exist.
	GetUser(ctx context.Context, uid string) (*User, error)

	// DeleteUser removes the identity record.
	// Returns ErrNotFound when the identity does not exist.
	DeleteUser(ctx context.Context, uid string) error

	// VerifyToken validates a session token and returns the UID it is
	// bound to.
	VerifyToken(ctx context.Context, token string) (string, error)
}
