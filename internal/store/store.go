// Package store defines the document-store primitives the account lifecycle
// operations are built on. Implementations live in subpackages: firestore
// for production, memory for tests.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/budgetbook/backend/internal/domain"
)

// ErrNotFound is returned when a settings document does not exist.
var ErrNotFound = errors.New("store: settings not found")

// Store is the data-access interface shared by the API handlers and the
// lifecycle operations. It is injected rather than accessed through a
// package-level client so tests can substitute the in-memory fake.
type Store interface {
	// GetSettings reads the settings document for the given user.
	// Returns ErrNotFound when the document does not exist.
	GetSettings(ctx context.Context, userID string) (*domain.Settings, error)

	// SaveSettings merges the given settings into the user's document,
	// creating it if absent, and stamps the last-activity timestamp.
	SaveSettings(ctx context.Context, userID string, settings *domain.Settings) error

	// TouchActivity sets the user's last-activity timestamp.
	// Returns ErrNotFound when the settings document does not exist.
	TouchActivity(ctx context.Context, userID string, at time.Time) error

	// DeleteSettings deletes the user's settings document. Deleting an
	// absent document is not an error.
	DeleteSettings(ctx context.Context, userID string) error

	// ListTransactions lists all transactions under the user, newest first.
	ListTransactions(ctx context.Context, userID string) ([]*domain.Transaction, error)

	// AddTransaction stores a new transaction under the user and returns
	// its generated ID.
	AddTransaction(ctx context.Context, userID string, t *domain.Transaction) (string, error)

	// DeleteTransaction deletes a single transaction. Deleting an absent
	// transaction is not an error.
	DeleteTransaction(ctx context.Context, userID, transactionID string) error

	// BatchDeleteTransactions deletes the given transactions in atomic
	// batches.
	BatchDeleteTransactions(ctx context.Context, userID string, transactionIDs []string) error

	// ListStaleUserIDs returns the IDs of all users whose last-activity
	// timestamp is strictly older than the cutoff.
	ListStaleUserIDs(ctx context.Context, cutoff time.Time) ([]string, error)

	// Close releases underlying resources.
	Close() error
}
