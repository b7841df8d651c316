package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Service implements account registration and credential verification.
type Service struct {
	users      UserRepository
	jwtSecret  string
	ttlMinutes int
}

// NewService creates an auth service. ttlMinutes controls access token
// lifetime.
func NewService(users UserRepository, jwtSecret string, ttlMinutes int) *Service {
	return &Service{
		users:      users,
		jwtSecret:  jwtSecret,
		ttlMinutes: ttlMinutes,
	}
}

// Register creates a new active, non-superuser account.
func (s *Service) Register(ctx context.Context, email, password string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !IsValidEmail(email) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: minimum %d characters", ErrWeakPassword, minPasswordLength)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &User{
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate verifies an email/password pair and returns the account.
// Unknown emails and wrong passwords both yield ErrInvalidCredentials so
// callers cannot probe for registered addresses.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verifying password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	return user, nil
}

// Login authenticates and issues a signed access token.
func (s *Service) Login(ctx context.Context, email, password string) (token string, user *User, err error) {
	user, err = s.Authenticate(ctx, email, password)
	if err != nil {
		return "", nil, err
	}

	token, err = GenerateAccessToken(user, s.jwtSecret, s.ttlMinutes)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// ResolveToken parses an access token and loads its account, rejecting
// tokens for deactivated users.
func (s *Service) ResolveToken(ctx context.Context, tokenString string) (*User, error) {
	claims, err := ParseToken(tokenString, s.jwtSecret)
	if err != nil {
		return nil, err
	}

	id, err := claims.UserID()
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	return user, nil
}
