// Package memory is an in-memory implementation of identity.Service for
// tests. It supports per-user failure injection so tests can exercise the
// lifecycle error paths.
package memory

import (
	"context"
	"sync"

	"github.com/budgetbook/backend/internal/identity"
)

// Service stores identity records and session tokens in memory and is safe
// for concurrent use.
type Service struct {
	mu        sync.RWMutex
	users     map[string]*identity.User
	tokens    map[string]string
	getErr    map[string]error
	deleteErr map[string]error
}

// NewService creates an empty in-memory identity service.
func NewService() *Service {
	return &Service{
		users:     make(map[string]*identity.User),
		tokens:    make(map[string]string),
		getErr:    make(map[string]error),
		deleteErr: make(map[string]error),
	}
}

// AddUser registers an identity record.
func (s *Service) AddUser(user identity.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	userCopy := user
	s.users[user.UID] = &userCopy
}

// AddToken binds a session token to a UID.
func (s *Service) AddToken(token, uid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = uid
}

// FailGetUser makes GetUser return err for the given UID.
func (s *Service) FailGetUser(uid string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getErr[uid] = err
}

// FailDeleteUser makes DeleteUser return err for the given UID.
func (s *Service) FailDeleteUser(uid string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteErr[uid] = err
}

// Exists reports whether an identity record is present.
func (s *Service) Exists(uid string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.users[uid]
	return exists
}

// GetUser implements identity.Service.
func (s *Service) GetUser(ctx context.Context, uid string) (*identity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.getErr[uid]; err != nil {
		return nil, err
	}

	user, exists := s.users[uid]
	if !exists {
		return nil, identity.ErrNotFound
	}
	userCopy := *user
	return &userCopy, nil
}

// DeleteUser implements identity.Service.
func (s *Service) DeleteUser(ctx context.Context, uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.deleteErr[uid]; err != nil {
		return err
	}

	if _, exists := s.users[uid]; !exists {
		return identity.ErrNotFound
	}
	delete(s.users, uid)
	return nil
}

// VerifyToken implements identity.Service.
func (s *Service) VerifyToken(ctx context.Context, token string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	uid, exists := s.tokens[token]
	if !exists {
		return "", identity.ErrNotFound
	}
	return uid, nil
}

// Ensure Service implements the identity.Service interface.
var _ identity.Service = (*Service)(nil)
