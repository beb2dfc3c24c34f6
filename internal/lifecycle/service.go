// Package lifecycle implements account lifecycle management: purging a
// user's data, on-demand account deletion, and the scheduled inactivity
// sweep.
package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/budgetbook/backend/internal/identity"
	"github.com/budgetbook/backend/internal/store"
)

// Service executes the account lifecycle operations against an injected
// store and identity service. It holds no per-invocation state.
type Service struct {
	store store.Store
	ids   identity.Service
	log   zerolog.Logger
}

// New creates a lifecycle service.
func New(st store.Store, ids identity.Service, log zerolog.Logger) *Service {
	return &Service{
		store: st,
		ids:   ids,
		log:   log,
	}
}

// PurgeUserData irreversibly removes the user's settings document and all
// transactions beneath it. Transactions are removed first in atomic
// batches, then the settings document in a separate write. A failure
// between the two steps leaves the settings document intact, so the user
// stays visible to the inactivity sweep and the purge is retried on a
// later cycle.
func (s *Service) PurgeUserData(ctx context.Context, userID string) error {
	if userID == "" {
		return errors.New("user ID is required")
	}

	transactions, err := s.store.ListTransactions(ctx, userID)
	if err != nil {
		return fmt.Errorf("listing transactions for user %s: %w", userID, err)
	}

	if len(transactions) > 0 {
		ids := make([]string, len(transactions))
		for i, t := range transactions {
			ids[i] = t.ID
		}
		if err := s.store.BatchDeleteTransactions(ctx, userID, ids); err != nil {
			return fmt.Errorf("deleting transactions for user %s: %w", userID, err)
		}
	}

	if err := s.store.DeleteSettings(ctx, userID); err != nil {
		return fmt.Errorf("deleting settings for user %s: %w", userID, err)
	}
	return nil
}

// DeleteAccount purges the user's data and then deletes the identity
// record. The userID must come from a verified session, never from request
// input. Returns a confirmation message on success. When the identity is
// already gone the returned error wraps identity.ErrNotFound so callers
// can treat a repeat deletion as already satisfied.
func (s *Service) DeleteAccount(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", errors.New("user ID is required")
	}

	if err := s.PurgeUserData(ctx, userID); err != nil {
		return "", fmt.Errorf("purging data: %w", err)
	}

	if err := s.ids.DeleteUser(ctx, userID); err != nil {
		return "", fmt.Errorf("deleting identity: %w", err)
	}

	s.log.Info().Str("user_id", userID).Msg("Account deleted")
	return fmt.Sprintf("Successfully deleted user %s and all associated data.", userID), nil
}

// deleteStaleUser is the sweep's per-user deletion: purge first, then
// remove the identity if it still exists. An already-absent identity is
// the orphaned-settings case and not an error.
func (s *Service) deleteStaleUser(ctx context.Context, userID string) error {
	if err := s.PurgeUserData(ctx, userID); err != nil {
		return fmt.Errorf("purging data: %w", err)
	}

	if err := s.ids.DeleteUser(ctx, userID); err != nil && !errors.Is(err, identity.ErrNotFound) {
		return fmt.Errorf("deleting identity: %w", err)
	}
	return nil
}
