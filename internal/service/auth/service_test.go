package auth

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/yaovia/rides-go/internal/repository/memory"
)

// MinCost keeps the hashing rounds cheap for the test run.
func newTestService(store *memory.Store) *Service {
	return New(store, Config{BcryptCost: bcrypt.MinCost})
}

func TestRegisterAndAuthenticate(t *testing.T) {
	store := memory.NewStore()
	svc := newTestService(store)
	ctx := context.Background()

	u, err := svc.Register(ctx, "amaka", "s3cret")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.ID == 0 {
		t.Error("expected assigned user id")
	}
	if u.PasswordHash != "" {
		t.Error("password hash leaked on the returned user")
	}

	token, err := svc.IssueToken(ctx, "amaka", "s3cret")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if len(token) != 40 {
		t.Errorf("expected 40-char token, got %d chars", len(token))
	}

	userID, err := svc.Authenticate(ctx, token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if userID != u.ID {
		t.Errorf("expected user %d, got %d", u.ID, userID)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	store := memory.NewStore()
	svc := newTestService(store)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "amaka", "s3cret"); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err := svc.Register(ctx, "amaka", "other")
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestIssueTokenBadCredentials(t *testing.T) {
	store := memory.NewStore()
	svc := newTestService(store)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "amaka", "s3cret"); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.IssueToken(ctx, "amaka", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.IssueToken(ctx, "nobody", "s3cret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown user: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthenticateUnknownToken(t *testing.T) {
	store := memory.NewStore()
	svc := newTestService(store)

	_, err := svc.Authenticate(context.Background(), "deadbeef")
	if !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestTokensAreHashedAtRest(t *testing.T) {
	store := memory.NewStore()
	svc := newTestService(store)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "amaka", "s3cret"); err != nil {
		t.Fatalf("register: %v", err)
	}
	token, err := svc.IssueToken(ctx, "amaka", "s3cret")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	// the raw value must not work as a stored hash lookup
	if _, err := store.Tokens().UserIDByHash(ctx, token); err == nil {
		t.Error("raw token found in the store; tokens must be hashed at rest")
	}
}
