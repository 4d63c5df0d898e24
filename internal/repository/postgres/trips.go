package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/yaovia/rides-go/internal/domain"
	"github.com/yaovia/rides-go/internal/repository"
)

type TripRepo struct {
	db DB
}

// Create inserts a trip row.
//
// Returns:
//   - int64: the generated trip ID.
//   - error: repository.ErrConflict when a trip with the same
//     (origin, destination, departure) triple already exists.
func (r *TripRepo) Create(ctx context.Context, trip *domain.Trip) (int64, error) {
	const op = "postgres.TripRepo.Create"

	var id int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO trips(origin, destination, departure_at, available_seats)
     	 VALUES ($1, $2, $3, $4)
     	 RETURNING id`,
		trip.Origin, trip.Destination, trip.Departure, trip.AvailableSeats,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return id, nil
}

// Get retrieves a trip by its ID.
//
// Returns:
//   - *domain.Trip: the trip when found.
//   - error: repository.ErrNotFound when the trip does not exist.
func (r *TripRepo) Get(ctx context.Context, id int64) (*domain.Trip, error) {
	const op = "postgres.TripRepo.Get"

	var t domain.Trip
	err := r.db.QueryRow(ctx,
		`SELECT id, origin, destination, departure_at, available_seats
       	 FROM trips WHERE id = $1`,
		id,
	).Scan(&t.ID, &t.Origin, &t.Destination, &t.Departure, &t.AvailableSeats)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return &t, nil
}

func (r *TripRepo) Exists(
	ctx context.Context,
	origin, destination string,
	departure time.Time,
) (bool, error) {
	const op = "postgres.TripRepo.Exists"

	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (
       	 	SELECT 1 FROM trips
      	 	WHERE origin = $1 AND destination = $2 AND departure_at = $3
     	 )`,
		origin, destination, departure,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return exists, nil
}

// ListAvailable lists trips that still have seats to sell, soonest first.
func (r *TripRepo) ListAvailable(ctx context.Context) ([]domain.Trip, error) {
	const op = "postgres.TripRepo.ListAvailable"

	rows, err := r.db.Query(ctx,
		`SELECT id, origin, destination, departure_at, available_seats
       	 FROM trips
      	 WHERE available_seats > 0
      	 ORDER BY departure_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	var out []domain.Trip
	for rows.Next() {
		var t domain.Trip
		if err := rows.Scan(
			&t.ID,
			&t.Origin,
			&t.Destination,
			&t.Departure,
			&t.AvailableSeats,
		); err != nil {
			return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
		}

		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// BookSeats takes seats off the trip's counter with a relative update
// evaluated by Postgres itself. The WHERE clause re-checks the
// precondition against the committed value, so two concurrent bookings
// can never together oversell the trip; a stale in-memory read never
// reaches the counter.
//
// Returns:
//   - error: repository.ErrInsufficientSeats when fewer than seats are
//     left at commit time (no row is touched in that case).
func (r *TripRepo) BookSeats(ctx context.Context, tripID int64, seats int) error {
	const op = "postgres.TripRepo.BookSeats"

	tag, err := r.db.Exec(ctx,
		`UPDATE trips
        	SET available_seats = available_seats - $2
      	 WHERE id = $1
        	AND available_seats >= $2`,
		tripID, seats,
	)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s:%w", op, repository.ErrInsufficientSeats)
	}

	return nil
}
