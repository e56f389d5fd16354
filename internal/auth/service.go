package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	sharedauth "approval-backend/internal/shared/auth"
	"approval-backend/internal/users"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidInput       = errors.New("invalid input")
)

const bcryptCost = 12

// Service implements password registration and login.
type Service struct {
	Users users.Repo
}

// NewService constructs a Service.
func NewService(repo users.Repo) *Service {
	return &Service{Users: repo}
}

// Register creates a user with a bcrypt password hash. Role defaults to requester.
func (s *Service) Register(ctx context.Context, email, fullName, password, role string) (users.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	fullName = strings.TrimSpace(fullName)
	if email == "" || fullName == "" || len(password) < 8 {
		return users.User{}, ErrInvalidInput
	}
	if role == "" {
		role = users.RoleRequester
	}
	if !users.ValidRole(role) {
		return users.User{}, ErrInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return users.User{}, err
	}

	now := time.Now().UTC()
	user := users.User{
		ID:           uuid.NewString(),
		Email:        email,
		FullName:     fullName,
		Role:         role,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Users.Create(ctx, user); err != nil {
		return users.User{}, err
	}
	return user, nil
}

// Login verifies credentials and returns the user plus a signed session token.
func (s *Service) Login(ctx context.Context, email, password string) (users.User, string, error) {
	user, err := s.Users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return users.User{}, "", ErrInvalidCredentials
		}
		return users.User{}, "", err
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return users.User{}, "", ErrInvalidCredentials
	}

	token, err := sharedauth.SignSession(user.ID, user.Email, user.FullName, user.Role)
	if err != nil {
		return users.User{}, "", err
	}
	return user, token, nil
}
