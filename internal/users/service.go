package users

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrEmailTaken means the email is already registered.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials covers both unknown email and wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotFound means the user id is unknown.
	ErrNotFound = errors.New("user not found")
)

// Store is the persistence surface the service needs.
type Store interface {
	Insert(ctx context.Context, u User) (User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
}

// Service owns registration and login.
type Service struct {
	store Store
}

// NewService creates a service backed by a store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Register creates an account with a hashed password.
func (s *Service) Register(ctx context.Context, fullName, email, role, password string) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	existing, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		return User{}, err
	}
	if existing != nil {
		return User{}, ErrEmailTaken
	}
	hash, err := HashPassword(password)
	if err != nil {
		return User{}, err
	}
	return s.store.Insert(ctx, User{
		FullName:     strings.TrimSpace(fullName),
		Email:        email,
		Role:         role,
		PasswordHash: hash,
	})
}

// Login verifies credentials and returns the account.
func (s *Service) Login(ctx context.Context, email, password string) (User, error) {
	u, err := s.store.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return User{}, err
	}
	if u == nil || !VerifyPassword(password, u.PasswordHash) {
		return User{}, ErrInvalidCredentials
	}
	return *u, nil
}

// GetByID fetches an account for token validation.
func (s *Service) GetByID(ctx context.Context, id string) (User, error) {
	u, err := s.store.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	if u == nil {
		return User{}, ErrNotFound
	}
	return *u, nil
}
