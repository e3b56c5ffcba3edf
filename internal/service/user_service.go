package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"finelytics/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type UserStore interface {
	Ensure(ctx context.Context, user *models.User) (*models.User, error)
}

// UserService maps identities of the external provider to local users.
type UserService struct {
	users  UserStore
	logger *zap.Logger
}

func NewUserService(users UserStore, logger *zap.Logger) *UserService {
	return &UserService{
		users:  users,
		logger: logger,
	}
}

// EnsureUser returns the local user of externalID, registering it on first
// sight.
func (s *UserService) EnsureUser(ctx context.Context, externalID, email, name string) (*models.User, error) {
	externalID = strings.TrimSpace(externalID)
	email = strings.TrimSpace(email)
	if externalID == "" || email == "" {
		return nil, fmt.Errorf("%w: token has no subject or email", models.ErrValidation)
	}

	now := time.Now()
	user, err := s.users.Ensure(ctx, &models.User{
		ID:         uuid.New(),
		ExternalID: externalID,
		Email:      email,
		Name:       cleanText(name),
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}
