package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Service contains business logic for user management.
type Service struct {
	repo Store
}

// NewService creates a new user Service.
func NewService(repo Store) *Service {
	return &Service{repo: repo}
}

// Create registers a new user account.
func (s *Service) Create(ctx context.Context, username, passwordHash string) (*User, error) {
	u, err := s.repo.Create(ctx, username, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// GetByID returns a user by id, including the storage configuration.
func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByUsername returns a user by username.
func (s *Service) GetByUsername(ctx context.Context, username string) (*User, error) {
	return s.repo.GetByUsername(ctx, username)
}

// UpdateStorage validates and stores the user's object-store configuration.
func (s *Service) UpdateStorage(ctx context.Context, id int64, cfg StorageConfig) error {
	cfg.Endpoint = strings.TrimSpace(cfg.Endpoint)
	cfg.Region = strings.TrimSpace(cfg.Region)
	if err := cfg.Validate(); err != nil {
		return err
	}
	return s.repo.SetStorage(ctx, id, &cfg)
}

// ClearStorage removes the user's object-store configuration.
func (s *Service) ClearStorage(ctx context.Context, id int64) error {
	return s.repo.SetStorage(ctx, id, nil)
}

// IsNotFound returns true when the error indicates a user was not found.
func (s *Service) IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
