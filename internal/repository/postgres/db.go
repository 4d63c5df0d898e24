package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yaovia/rides-go/internal/repository"
)

// DB is the subset of pgx shared by *pgxpool.Pool and pgx.Tx, so every
// repository works the same against the pool or inside a transaction.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	pool *pgxpool.Pool
	db   DB
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool: pool,
		db:   pool,
	}
}

func (s *Store) withTx(tx DB) *Store {
	cp := *s
	cp.db = tx
	return &cp
}

// RunTx runs fn against a transaction-scoped Repos; the seat-counter
// precondition re-check and the booking insert commit together or not
// at all. Read committed is enough here: the relative UPDATE with its
// WHERE guard is the authoritative compare-and-swap, and a blocked
// writer re-evaluates the guard against the committed row instead of
// aborting. Transient failures (deadlocks) get a fresh attempt; fn must
// be safe to re-run.
func (s *Store) RunTx(
	ctx context.Context,
	fn func(ctx context.Context, r repository.Repos) error,
) error {
	const maxAttempts = 3

	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err = s.runTx(ctx, fn)
		if err == nil || !IsRetryable(err) {
			return err
		}
	}

	return err
}

func (s *Store) runTx(
	ctx context.Context,
	fn func(ctx context.Context, r repository.Repos) error,
) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return err
	}

	defer tx.Rollback(ctx)

	if err := fn(ctx, s.withTx(tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}

func (s *Store) Trips() repository.Trips       { return &TripRepo{db: s.db} }
func (s *Store) Bookings() repository.Bookings { return &BookingRepo{db: s.db} }
func (s *Store) Users() repository.Users       { return &UserRepo{db: s.db} }
func (s *Store) Tokens() repository.Tokens     { return &TokenRepo{db: s.db} }
