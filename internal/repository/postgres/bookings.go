package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yaovia/rides-go/internal/domain"
)

type BookingRepo struct {
	db DB
}

// Create inserts a booking row and fills in the generated ID and
// creation timestamp. Status defaults to pending when unset.
func (r *BookingRepo) Create(ctx context.Context, booking *domain.Booking) error {
	const op = "postgres.BookingRepo.Create"

	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}

	if booking.Status == "" {
		booking.Status = domain.BookingPending
	}

	err := r.db.QueryRow(ctx,
		`INSERT INTO bookings(id, trip_id, author_id, num_seats, status)
     	 VALUES ($1, $2, $3, $4, $5)
     	 RETURNING created_at`,
		booking.ID, booking.TripID, booking.AuthorID, booking.Seats, booking.Status,
	).Scan(&booking.CreatedAt)
	if err != nil {
		return fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return nil
}

func (r *BookingRepo) List(ctx context.Context) ([]domain.BookingWithTrip, error) {
	const op = "postgres.BookingRepo.List"

	rows, err := r.db.Query(ctx, selectBookings+` ORDER BY b.created_at`)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	out, err := scanBookings(rows)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

func (r *BookingRepo) ListByTrip(ctx context.Context, tripID int64) ([]domain.BookingWithTrip, error) {
	const op = "postgres.BookingRepo.ListByTrip"

	rows, err := r.db.Query(ctx,
		selectBookings+` WHERE b.trip_id = $1 ORDER BY b.created_at`,
		tripID,
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	defer rows.Close()

	out, err := scanBookings(rows)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

// ConfirmedSeats sums the seat counts of confirmed bookings for a trip.
// Pending bookings never contribute; zero when there are none.
func (r *BookingRepo) ConfirmedSeats(ctx context.Context, tripID int64) (int64, error) {
	const op = "postgres.BookingRepo.ConfirmedSeats"

	var seats int64
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(num_seats), 0)
       	 FROM bookings
      	 WHERE trip_id = $1 AND status = 'confirmed'`,
		tripID,
	).Scan(&seats)
	if err != nil {
		return 0, fmt.Errorf("%s:%w", op, translateDBErr(err))
	}

	return seats, nil
}

const selectBookings = `
	SELECT b.id, b.trip_id, b.author_id, b.num_seats, b.status, b.created_at,
	       t.id, t.origin, t.destination, t.departure_at, t.available_seats
	  FROM bookings b
	  JOIN trips t ON t.id = b.trip_id`

func scanBookings(rows pgx.Rows) ([]domain.BookingWithTrip, error) {
	var out []domain.BookingWithTrip
	for rows.Next() {
		var bwt domain.BookingWithTrip
		var status string

		if err := rows.Scan(
			&bwt.ID,
			&bwt.TripID,
			&bwt.AuthorID,
			&bwt.Seats,
			&status,
			&bwt.CreatedAt,
			&bwt.Trip.ID,
			&bwt.Trip.Origin,
			&bwt.Trip.Destination,
			&bwt.Trip.Departure,
			&bwt.Trip.AvailableSeats,
		); err != nil {
			return nil, translateDBErr(err)
		}

		bwt.Status = domain.BookingStatus(status)
		out = append(out, bwt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}
