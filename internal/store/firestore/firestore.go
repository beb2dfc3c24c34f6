// Package firestore implements store.Store on Cloud Firestore.
package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/budgetbook/backend/internal/domain"
	"github.com/budgetbook/backend/internal/store"
)

const (
	settingsCollection     = "userSettings"
	transactionsCollection = "transactions"

	fieldLastActivity = "lastActivity"
	fieldCreatedAt    = "createdAt"

	// Firestore rejects batches with more than 500 writes; each chunk of a
	// large delete commits atomically on its own.
	maxBatchWrites = 500
)

// Store is the Firestore-backed implementation of store.Store. It holds a
// shared client to avoid creating a new connection for each operation.
type Store struct {
	client *firestore.Client
}

// New creates a Store with a shared Firestore client. When credentialsFile
// is empty, application default credentials are used.
func New(ctx context.Context, projectID, credentialsFile string) (*Store, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore.New: creating client: %w", err)
	}
	return &Store{client: client}, nil
}

// Close closes the Firestore client connection.
func (s *Store) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

func (s *Store) settingsDoc(userID string) *firestore.DocumentRef {
	return s.client.Collection(settingsCollection).Doc(userID)
}

func (s *Store) transactionsCol(userID string) *firestore.CollectionRef {
	return s.settingsDoc(userID).Collection(transactionsCollection)
}

// GetSettings implements store.Store.
func (s *Store) GetSettings(ctx context.Context, userID string) (*domain.Settings, error) {
	snap, err := s.settingsDoc(userID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading settings for user %s: %w", userID, err)
	}

	var settings domain.Settings
	if err := snap.DataTo(&settings); err != nil {
		return nil, fmt.Errorf("decoding settings for user %s: %w", userID, err)
	}
	return &settings, nil
}

// SaveSettings implements store.Store. The last-activity timestamp is
// stamped with the Firestore server clock, never a client-supplied value.
func (s *Store) SaveSettings(ctx context.Context, userID string, settings *domain.Settings) error {
	data := map[string]interface{}{
		"budget":          settings.Budget,
		"currency":        settings.Currency,
		fieldLastActivity: firestore.ServerTimestamp,
	}
	if settings.NumberFormat != "" {
		data["numberFormat"] = settings.NumberFormat
	}
	if settings.AppTitle != "" {
		data["appTitle"] = settings.AppTitle
	}

	if _, err := s.settingsDoc(userID).Set(ctx, data, firestore.MergeAll); err != nil {
		return fmt.Errorf("saving settings for user %s: %w", userID, err)
	}
	return nil
}

// TouchActivity implements store.Store.
func (s *Store) TouchActivity(ctx context.Context, userID string, at time.Time) error {
	_, err := s.settingsDoc(userID).Update(ctx, []firestore.Update{
		{Path: fieldLastActivity, Value: at},
	})
	if status.Code(err) == codes.NotFound {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("touching activity for user %s: %w", userID, err)
	}
	return nil
}

// DeleteSettings implements store.Store. Firestore treats deleting an
// absent document as a success, which keeps repeat purges idempotent.
func (s *Store) DeleteSettings(ctx context.Context, userID string) error {
	if _, err := s.settingsDoc(userID).Delete(ctx); err != nil {
		return fmt.Errorf("deleting settings for user %s: %w", userID, err)
	}
	return nil
}

// ListTransactions implements store.Store.
func (s *Store) ListTransactions(ctx context.Context, userID string) ([]*domain.Transaction, error) {
	iter := s.transactionsCol(userID).OrderBy(fieldCreatedAt, firestore.Desc).Documents(ctx)
	defer iter.Stop()

	var transactions []*domain.Transaction
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listing transactions for user %s: %w", userID, err)
		}

		var t domain.Transaction
		if err := snap.DataTo(&t); err != nil {
			return nil, fmt.Errorf("decoding transaction %s for user %s: %w", snap.Ref.ID, userID, err)
		}
		t.ID = snap.Ref.ID
		transactions = append(transactions, &t)
	}
	return transactions, nil
}

// AddTransaction implements store.Store.
func (s *Store) AddTransaction(ctx context.Context, userID string, t *domain.Transaction) (string, error) {
	ref, _, err := s.transactionsCol(userID).Add(ctx, t)
	if err != nil {
		return "", fmt.Errorf("adding transaction for user %s: %w", userID, err)
	}
	return ref.ID, nil
}

// DeleteTransaction implements store.Store.
func (s *Store) DeleteTransaction(ctx context.Context, userID, transactionID string) error {
	if _, err := s.transactionsCol(userID).Doc(transactionID).Delete(ctx); err != nil {
		return fmt.Errorf("deleting transaction %s for user %s: %w", transactionID, userID, err)
	}
	return nil
}

// BatchDeleteTransactions implements store.Store. WriteBatch commits each
// chunk all-or-nothing; BulkWriter would be faster but is not atomic.
func (s *Store) BatchDeleteTransactions(ctx context.Context, userID string, transactionIDs []string) error {
	col := s.transactionsCol(userID)

	for start := 0; start < len(transactionIDs); start += maxBatchWrites {
		end := start + maxBatchWrites
		if end > len(transactionIDs) {
			end = len(transactionIDs)
		}

		batch := s.client.Batch()
		for _, id := range transactionIDs[start:end] {
			batch.Delete(col.Doc(id))
		}
		if _, err := batch.Commit(ctx); err != nil {
			return fmt.Errorf("batch deleting transactions for user %s: %w", userID, err)
		}
	}
	return nil
}

// ListStaleUserIDs implements store.Store. The comparison is strict: a
// record whose last activity equals the cutoff is not stale.
func (s *Store) ListStaleUserIDs(ctx context.Context, cutoff time.Time) ([]string, error) {
	iter := s.client.Collection(settingsCollection).
		Where(fieldLastActivity, "<", cutoff).
		Documents(ctx)
	defer iter.Stop()

	var userIDs []string
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("querying stale settings: %w", err)
		}
		userIDs = append(userIDs, snap.Ref.ID)
	}
	return userIDs, nil
}

// Ensure Store implements the store.Store interface.
var _ store.Store = (*Store)(nil)
