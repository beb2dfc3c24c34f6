// Package firebase implements identity.Service on the Firebase Auth
// Admin SDK.
package firebase

import (
	"context"
	"fmt"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"github.com/budgetbook/backend/internal/identity"
)

// Service is the Firebase Auth-backed implementation of identity.Service.
type Service struct {
	auth *auth.Client
}

// New creates a Service for the given project. When credentialsFile is
// empty, application default credentials are used.
func New(ctx context.Context, projectID, credentialsFile string) (*Service, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase.New: creating app: %w", err)
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase.New: creating auth client: %w", err)
	}
	return &Service{auth: client}, nil
}

// GetUser implements identity.Service. An identity with no linked provider
// is classified as anonymous.
func (s *Service) GetUser(ctx context.Context, uid string) (*identity.User, error) {
	record, err := s.auth.GetUser(ctx, uid)
	if err != nil {
		if auth.IsUserNotFound(err) {
			return nil, identity.ErrNotFound
		}
		return nil, fmt.Errorf("fetching identity %s: %w", uid, err)
	}

	user := &identity.User{
		UID:       record.UID,
		Email:     record.Email,
		Anonymous: len(record.ProviderUserInfo) == 0,
	}
	if record.UserMetadata != nil {
		user.CreatedAt = time.UnixMilli(record.UserMetadata.CreationTimestamp)
	}
	return user, nil
}

// DeleteUser implements identity.Service.
func (s *Service) DeleteUser(ctx context.Context, uid string) error {
	if err := s.auth.DeleteUser(ctx, uid); err != nil {
		if auth.IsUserNotFound(err) {
			return identity.ErrNotFound
		}
		return fmt.Errorf("deleting identity %s: %w", uid, err)
	}
	return nil
}

// VerifyToken implements identity.Service.
func (s *Service) VerifyToken(ctx context.Context, token string) (string, error) {
	decoded, err := s.auth.VerifyIDToken(ctx, token)
	if err != nil {
		return "", fmt.Errorf("verifying session token: %w", err)
	}
	return decoded.UID, nil
}

// Ensure Service implements the identity.Service interface.
var _ identity.Service = (*Service)(nil)
