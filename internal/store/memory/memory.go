// Package memory is an in-memory implementation of store.Store for tests.
// It mirrors Firestore semantics: deletes of absent documents succeed,
// reads of absent settings return store.ErrNotFound, and the stale query
// uses a strict less-than comparison.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/budgetbook/backend/internal/domain"
	"github.com/budgetbook/backend/internal/store"
)

// Store stores settings and transactions in memory and is safe for
// concurrent use. Data is lost when the process exits.
type Store struct {
	mu           sync.RWMutex
	now          func() time.Time
	settings     map[string]*domain.Settings
	transactions map[string]map[string]*domain.Transaction
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		now:          time.Now,
		settings:     make(map[string]*domain.Settings),
		transactions: make(map[string]map[string]*domain.Transaction),
	}
}

// SetClock overrides the clock used for activity stamping. Tests use this
// to pin timestamps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// GetSettings implements store.Store.
func (s *Store) GetSettings(ctx context.Context, userID string) (*domain.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	settings, exists := s.settings[userID]
	if !exists {
		return nil, store.ErrNotFound
	}

	// Return a copy to avoid external modifications
	settingsCopy := *settings
	return &settingsCopy, nil
}

// SaveSettings implements store.Store.
func (s *Store) SaveSettings(ctx context.Context, userID string, settings *domain.Settings) error {
	if userID == "" {
		return fmt.Errorf("user ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	merged := domain.Settings{}
	if existing, exists := s.settings[userID]; exists {
		merged = *existing
	}

	merged.Budget = settings.Budget
	merged.Currency = settings.Currency
	if settings.NumberFormat != "" {
		merged.NumberFormat = settings.NumberFormat
	}
	if settings.AppTitle != "" {
		merged.AppTitle = settings.AppTitle
	}
	merged.LastActivity = s.now()

	s.settings[userID] = &merged
	return nil
}

// TouchActivity implements store.Store.
func (s *Store) TouchActivity(ctx context.Context, userID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings, exists := s.settings[userID]
	if !exists {
		return store.ErrNotFound
	}
	settings.LastActivity = at
	return nil
}

// DeleteSettings implements store.Store.
func (s *Store) DeleteSettings(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.settings, userID)
	return nil
}

// ListTransactions implements store.Store.
func (s *Store) ListTransactions(ctx context.Context, userID string) ([]*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Transaction
	for _, t := range s.transactions[userID] {
		transactionCopy := *t
		result = append(result, &transactionCopy)
	}
	return result, nil
}

// AddTransaction implements store.Store.
func (s *Store) AddTransaction(ctx context.Context, userID string, t *domain.Transaction) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("user ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.transactions[userID] == nil {
		s.transactions[userID] = make(map[string]*domain.Transaction)
	}

	id := uuid.New().String()
	transactionCopy := *t
	transactionCopy.ID = id
	s.transactions[userID][id] = &transactionCopy
	return id, nil
}

// DeleteTransaction implements store.Store.
func (s *Store) DeleteTransaction(ctx context.Context, userID, transactionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.transactions[userID], transactionID)
	return nil
}

// BatchDeleteTransactions implements store.Store.
func (s *Store) BatchDeleteTransactions(ctx context.Context, userID string, transactionIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range transactionIDs {
		delete(s.transactions[userID], id)
	}
	if len(s.transactions[userID]) == 0 {
		delete(s.transactions, userID)
	}
	return nil
}

// ListStaleUserIDs implements store.Store.
func (s *Store) ListStaleUserIDs(ctx context.Context, cutoff time.Time) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var userIDs []string
	for userID, settings := range s.settings {
		if settings.LastActivity.Before(cutoff) {
			userIDs = append(userIDs, userID)
		}
	}
	return userIDs, nil
}

// Close implements store.Store.
func (s *Store) Close() error {
	return nil
}

// Ensure Store implements the store.Store interface.
var _ store.Store = (*Store)(nil)
