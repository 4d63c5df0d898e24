package repository

import (
	"context"
	"time"

	"github.com/yaovia/rides-go/internal/domain"
)

// Trips owns the trip rows, including the available-seat counter. The
// counter is only ever mutated through BookSeats.
type Trips interface {
	// Create inserts a trip. Returns ErrConflict when a trip with the
	// same (origin, destination, departure) already exists.
	Create(ctx context.Context, trip *domain.Trip) (int64, error)
	// Get returns ErrNotFound for an unknown id.
	Get(ctx context.Context, id int64) (*domain.Trip, error)
	// Exists reports whether a trip with the given route triple exists.
	Exists(ctx context.Context, origin, destination string, departure time.Time) (bool, error)
	// ListAvailable returns trips with available_seats > 0.
	ListAvailable(ctx context.Context) ([]domain.Trip, error)
	// BookSeats decrements the available-seat counter by seats. The
	// decrement is a relative update evaluated by the store against the
	// persisted value, so concurrent callers can never drive the counter
	// negative. Returns ErrInsufficientSeats when the precondition fails.
	BookSeats(ctx context.Context, tripID int64, seats int) error
}

type Bookings interface {
	// Create inserts a booking row, filling in its generated ID.
	Create(ctx context.Context, booking *domain.Booking) error
	List(ctx context.Context) ([]domain.BookingWithTrip, error)
	ListByTrip(ctx context.Context, tripID int64) ([]domain.BookingWithTrip, error)
	// ConfirmedSeats sums the seat counts of confirmed bookings for a
	// trip. Zero when there are none.
	ConfirmedSeats(ctx context.Context, tripID int64) (int64, error)
}

type Users interface {
	// Create returns ErrConflict when the username is taken.
	Create(ctx context.Context, username, passwordHash string) (int64, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

type Tokens interface {
	Store(ctx context.Context, userID int64, tokenHash string) error
	// UserIDByHash returns ErrNotFound for an unknown token.
	UserIDByHash(ctx context.Context, tokenHash string) (int64, error)
}

// Repos bundles the repositories bound to one persistence handle, either
// the shared pool or a single transaction.
type Repos interface {
	Trips() Trips
	Bookings() Bookings
	Users() Users
	Tokens() Tokens
}

// Store is a Repos over the shared pool that can also run a function
// against a transaction-scoped Repos.
type Store interface {
	Repos
	RunTx(ctx context.Context, fn func(ctx context.Context, r Repos) error) error
}
