package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/yaovia/rides-go/internal/domain"
	"github.com/yaovia/rides-go/internal/repository"
)

type Config struct {
	BcryptCost int
}

type Service struct {
	store repository.Store
	cfg   Config
}

func New(store repository.Store, cfg Config) *Service {
	if cfg.BcryptCost <= 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}

	return &Service{
		store: store,
		cfg:   cfg,
	}
}

// Register creates a user with a hashed credential.
//
// Returns:
//   - *domain.User: the created user (password hash not included).
//   - error: auth.ErrUsernameTaken when the username exists.
func (s *Service) Register(ctx context.Context, username, password string) (*domain.User, error) {
	const op = "service.auth.Register"

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	id, err := s.store.Users().Create(ctx, username, string(hash))
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%s:%w", op, ErrUsernameTaken)
		}

		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &domain.User{ID: id, Username: username}, nil
}

// IssueToken exchanges credentials for a bearer token. Only the token's
// SHA-256 hash is persisted; the raw value goes back to the caller.
//
// Returns:
//   - string: the raw bearer token.
//   - error: auth.ErrInvalidCredentials on unknown user or bad password.
func (s *Service) IssueToken(ctx context.Context, username, password string) (string, error) {
	const op = "service.auth.IssueToken"

	u, err := s.store.Users().GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", fmt.Errorf("%s:%w", op, ErrInvalidCredentials)
		}

		return "", fmt.Errorf("%s:%w", op, err)
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", fmt.Errorf("%s:%w", op, ErrInvalidCredentials)
	}

	raw := newToken()

	if err := s.store.Tokens().Store(ctx, u.ID, hashToken(raw)); err != nil {
		return "", fmt.Errorf("%s:%w", op, err)
	}

	return raw, nil
}

// Authenticate resolves a raw bearer token to a user ID.
//
// Returns:
//   - int64: the authenticated user's ID.
//   - error: auth.ErrTokenInvalid for an unknown token.
func (s *Service) Authenticate(ctx context.Context, rawToken string) (int64, error) {
	const op = "service.auth.Authenticate"

	userID, err := s.store.Tokens().UserIDByHash(ctx, hashToken(rawToken))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, fmt.Errorf("%s:%w", op, ErrTokenInvalid)
		}

		return 0, fmt.Errorf("%s:%w", op, err)
	}

	return userID, nil
}

func newToken() string {
	b := make([]byte, 20)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
