// Package auth handles user registration, credential checks, and bearer
// token verification for the HTTP layer.
package auth

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/mtrump/garage-library/internal/config"
	"github.com/mtrump/garage-library/internal/database/users"
	"github.com/mtrump/garage-library/internal/entities"
)

// Usernames start with a letter and contain only letters, digits, and
// underscores.
var usernamePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

var (
	ErrUserExists         = errors.New("username already taken")
	ErrUsernameInvalid    = errors.New("username must be 3-24 characters, start with a letter, and contain only letters, digits, and underscores")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// Service handles authentication and user management.
type Service struct {
	users  *users.Repository
	tokens *TokenManager
	config config.Auth
}

// NewService creates a new authentication service.
func NewService(repo *users.Repository, tokens *TokenManager, cfg config.Auth) *Service {
	return &Service{
		users:  repo,
		tokens: tokens,
		config: cfg,
	}
}

// Register validates and creates a new member-level user. Usernames are
// stored lowercased.
func (s *Service) Register(username, password string) (*entities.User, error) {
	username = strings.TrimSpace(username)
	if len(username) < 3 || len(username) > 24 || !usernamePattern.MatchString(username) {
		return nil, ErrUsernameInvalid
	}
	username = strings.ToLower(username)

	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	taken, err := s.users.Exists(username)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if taken {
		return nil, ErrUserExists
	}

	hash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	return s.users.Create(username, hash, entities.UserLevelMember)
}

// Login checks credentials and returns a signed bearer token. Lookup and
// password failures collapse into one error so callers cannot probe for
// usernames.
func (s *Service) Login(username, password string) (string, error) {
	username = strings.ToLower(strings.TrimSpace(username))

	user, err := s.users.GetByUsername(username)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if err := CheckPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, ErrInvalidPassword) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	return s.tokens.Issue(user)
}

// VerifyToken parses and validates a bearer token.
func (s *Service) VerifyToken(tokenString string) (*Claims, error) {
	return s.tokens.Verify(tokenString)
}
