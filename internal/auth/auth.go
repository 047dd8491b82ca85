// Package auth handles dashboard accounts: form validation, password
// hashing and credential checks.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/TobiSchelling/TweetPulse/internal/database"
)

var (
	// ErrEmailTaken is returned when registering an email that already exists.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials is returned for an unknown email or wrong password.
	ErrInvalidCredentials = errors.New("invalid email and/or password")
)

// UserStore is the persistence the service needs.
type UserStore interface {
	CreateUser(email, name, passwordHash string) (int64, error)
	GetUserByEmail(email string) (*database.User, error)
	GetUserByID(id int64) (*database.User, error)
}

// Service registers and authenticates users.
type Service struct {
	users UserStore
	cost  int
}

// NewService creates a Service using bcrypt's default cost.
func NewService(users UserStore) *Service {
	return &Service{users: users, cost: bcrypt.DefaultCost}
}

// HashPassword hashes a plain-text password.
func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// Register validates the form and creates the user. Validation failures are
// returned as FieldErrors; a duplicate email as ErrEmailTaken.
func (s *Service) Register(form RegisterForm) (*database.User, error) {
	if errs := form.Validate(); errs != nil {
		return nil, errs
	}

	existing, err := s.users.GetUserByEmail(form.Email)
	if err != nil {
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := s.HashPassword(form.Password)
	if err != nil {
		return nil, err
	}

	id, err := s.users.CreateUser(form.Email, form.Name, hash)
	if errors.Is(err, database.ErrDuplicateEmail) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, err
	}

	return &database.User{ID: id, Email: form.Email, Name: form.Name, PasswordHash: hash}, nil
}

// Authenticate returns the user for valid credentials, or
// ErrInvalidCredentials.
func (s *Service) Authenticate(form LoginForm) (*database.User, error) {
	if errs := form.Validate(); errs != nil {
		return nil, errs
	}

	user, err := s.users.GetUserByEmail(form.Email)
	if err != nil {
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(form.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// User returns the user with the given ID, or nil if it no longer exists.
func (s *Service) User(id int64) (*database.User, error) {
	return s.users.GetUserByID(id)
}
