// Package auth verifies and registers accounts on top of the
// credential store. The realtime engine never sees passwords; it only
// receives the identity the session carries after a successful login.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/voxly/voxly/internal/core"
	"github.com/voxly/voxly/internal/domain"
)

var (
	ErrUserExists    = errors.New("user exists")
	ErrUnknownUser   = errors.New("no user")
	ErrWrongPassword = errors.New("wrong password")
	ErrTooManyTries  = errors.New("too many attempts")
)

const bcryptCost = 10

type Service struct {
	creds   core.CredentialStore
	limiter *RateLimiter
}

func NewService(creds core.CredentialStore) *Service {
	return &Service{
		creds:   creds,
		limiter: NewRateLimiter(5, time.Minute),
	}
}

// Register creates an account and returns the identity to bind to the
// session.
func (s *Service) Register(ctx context.Context, username, password string) (string, error) {
	user, err := domain.NewUser(username)
	if err != nil {
		return "", err
	}
	if password == "" {
		return "", errors.New("password empty")
	}
	if _, ok, err := s.creds.FindUser(ctx, user.Name); err != nil {
		return "", fmt.Errorf("lookup user: %w", err)
	} else if ok {
		return "", ErrUserExists
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	if err := s.creds.PutUser(ctx, user.Name, string(hash)); err != nil {
		return "", fmt.Errorf("store user: %w", err)
	}
	log.Info().Str("module", "auth").Str("user", user.Name).Msg("registered")
	return user.Name, nil
}

// Login checks the password and returns the identity to bind to the
// session. Attempts per username are rate limited.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	if !s.limiter.Allow(username) {
		return "", ErrTooManyTries
	}
	hash, ok, err := s.creds.FindUser(ctx, username)
	if err != nil {
		return "", fmt.Errorf("lookup user: %w", err)
	}
	if !ok {
		return "", ErrUnknownUser
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return "", ErrWrongPassword
	}
	log.Info().Str("module", "auth").Str("user", username).Msg("logged in")
	return username, nil
}
