package postgres

import (
	"context"
	"fmt"
)

// TokenRepo persists bearer tokens by hash. The raw token only ever
// travels back to the client.
type TokenRepo struct {
	db DB
}

func (r *TokenRepo) Store(ctx context.Context, userID int64, tokenHash string) error {
	const op = "postgres.TokenRepo.Store"

	if _, err := r.db.Exec(ctx,
		`INSERT INTO auth_tokens(user_id, token_hash)
     	 VALUES ($1, $2)`,
		userID, tokenHash,
	); err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}

// UserIDByHash resolves a token hash to its user.
//
// Returns:
//   - int64: the user ID when the token is known.
//   - error: repository.ErrNotFound otherwise.
func (r *TokenRepo) UserIDByHash(ctx context.Context, tokenHash string) (int64, error) {
	const op = "postgres.TokenRepo.UserIDByHash"

	var userID int64
	err := r.db.QueryRow(ctx,
		`SELECT user_id FROM auth_tokens WHERE token_hash = $1`,
		tokenHash,
	).Scan(&userID)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return userID, nil
}
