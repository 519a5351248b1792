// Package auth handles account registration, password login and token issuance.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/picshelf/service/internal/user"
)

// ErrInvalidCredentials is returned when the username or password is wrong.
var ErrInvalidCredentials = errors.New("invalid username or password")

// ErrInvalidInput is returned when a username or password fails validation.
var ErrInvalidInput = errors.New("invalid input")

// ErrUsernameTaken is returned when registering an existing username.
var ErrUsernameTaken = errors.New("username already taken")

// Service contains the business logic for password authentication.
type Service struct {
	userSvc   *user.Service
	jwtSecret []byte
	tokenTTL  time.Duration
	now       func() time.Time
}

// NewService creates a new auth Service.
func NewService(userSvc *user.Service, jwtSecret string, tokenTTL time.Duration) *Service {
	return &Service{
		userSvc:   userSvc,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		now:       time.Now,
	}
}

// Register creates a new account and issues a JWT for it.
func (s *Service) Register(ctx context.Context, rawUsername, password string) (string, *user.User, error) {
	creds, err := newCredentials(rawUsername, password)
	if err != nil {
		return "", nil, err
	}
	hash, err := creds.hash()
	if err != nil {
		return "", nil, err
	}

	u, err := s.userSvc.Create(ctx, creds.username, hash)
	if errors.Is(err, user.ErrAlreadyExists) {
		return "", nil, ErrUsernameTaken
	}
	if err != nil {
		return "", nil, err
	}

	token, err := s.issueToken(u.ID)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	slog.InfoContext(ctx, "user registered", "user_id", u.ID)
	return token, u, nil
}

// Login verifies the credentials and issues a JWT.
func (s *Service) Login(ctx context.Context, rawUsername, password string) (string, error) {
	username, err := canonicalUsername(rawUsername)
	if err != nil {
		return "", ErrInvalidCredentials
	}

	u, err := s.userSvc.GetByUsername(ctx, username)
	if s.userSvc.IsNotFound(err) {
		passwordMatches("", password)
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("get user: %w", err)
	}
	if !passwordMatches(u.PasswordHash, password) {
		return "", ErrInvalidCredentials
	}

	token, err := s.issueToken(u.ID)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

// issueToken creates a signed JWT whose subject is the user id.
func (s *Service) issueToken(userID int64) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
