package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/budgetbook/backend/internal/identity"
)

func TestGetUser(t *testing.T) {
	s := NewService()
	ctx := context.Background()

	s.AddUser(identity.User{UID: "guest", Anonymous: true})

	user, err := s.GetUser(ctx, "guest")
	if err != nil {
		t.Fatalf("GetUser() failed: %v", err)
	}
	if !user.Anonymous {
		t.Error("Anonymous = false, want true")
	}

	if _, err := s.GetUser(ctx, "missing"); !errors.Is(err, identity.ErrNotFound) {
		t.Errorf("GetUser(missing) error = %v, want identity.ErrNotFound", err)
	}
}

func TestDeleteUser(t *testing.T) {
	s := NewService()
	ctx := context.Background()

	s.AddUser(identity.User{UID: "alice"})

	if err := s.DeleteUser(ctx, "alice"); err != nil {
		t.Fatalf("DeleteUser() failed: %v", err)
	}
	if err := s.DeleteUser(ctx, "alice"); !errors.Is(err, identity.ErrNotFound) {
		t.Errorf("second DeleteUser() error = %v, want identity.ErrNotFound", err)
	}
}

func TestVerifyToken(t *testing.T) {
	s := NewService()
	ctx := context.Background()

	s.AddUser(identity.User{UID: "alice"})
	s.AddToken("token-alice", "alice")

	uid, err := s.VerifyToken(ctx, "token-alice")
	if err != nil {
		t.Fatalf("VerifyToken() failed: %v", err)
	}
	if uid != "alice" {
		t.Errorf("VerifyToken() = %q, want alice", uid)
	}

	if _, err := s.VerifyToken(ctx, "bogus"); err == nil {
		t.Error("VerifyToken(bogus) = nil, want error")
	}
}

func TestFailureInjection(t *testing.T) {
	s := NewService()
	ctx := context.Background()

	s.AddUser(identity.User{UID: "alice"})
	injected := errors.New("auth service unavailable")
	s.FailGetUser("alice", injected)
	s.FailDeleteUser("alice", injected)

	if _, err := s.GetUser(ctx, "alice"); !errors.Is(err, injected) {
		t.Errorf("GetUser() error = %v, want injected error", err)
	}
	if err := s.DeleteUser(ctx, "alice"); !errors.Is(err, injected) {
		t.Errorf("DeleteUser() error = %v, want injected error", err)
	}
	if !s.Exists("alice") {
		t.Error("identity was deleted despite injected failure")
	}
}
