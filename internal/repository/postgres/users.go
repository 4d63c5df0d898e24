package postgres

import (
	"context"
	"fmt"

	"github.com/yaovia/rides-go/internal/domain"
)

type UserRepo struct {
	db DB
}

// Create inserts a user row.
//
// Returns:
//   - int64: the generated user ID.
//   - error: repository.ErrConflict when the username is already taken.
func (r *UserRepo) Create(ctx context.Context, username, passwordHash string) (int64, error) {
	const op = "postgres.UserRepo.Create"

	var id int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO users(username, password_hash)
     	 VALUES ($1, $2)
     	 RETURNING id`,
		username, passwordHash,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return id, nil
}

// GetByUsername retrieves a user by username.
//
// Returns:
//   - *domain.User: the user when found.
//   - error: repository.ErrNotFound when the user does not exist.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	const op = "postgres.UserRepo.GetByUsername"

	var u domain.User
	err := r.db.QueryRow(ctx,
		`SELECT id, username, password_hash, created_at
       	 FROM users WHERE username = $1`,
		username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &u, nil
}
