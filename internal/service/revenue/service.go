package revenue

import (
	"context"
	"errors"
	"fmt"

	"github.com/yaovia/rides-go/internal/domain"
	"github.com/yaovia/rides-go/internal/repository"
)

// Service is a pure read side: it derives money from the booking rows as
// they are persisted at call time, mutating nothing.
type Service struct {
	store repository.Store
}

func New(store repository.Store) *Service {
	return &Service{store: store}
}

// ForTrip sums the seat counts of the trip's confirmed bookings and
// multiplies by the flat per-seat price. A trip with no confirmed
// bookings yields zero, not an error.
//
// Returns:
//   - *domain.TripRevenue: the aggregate.
//   - error: revenue.ErrTripNotFound for an unknown trip.
func (s *Service) ForTrip(ctx context.Context, tripID int64) (*domain.TripRevenue, error) {
	const op = "service.revenue.ForTrip"

	if _, err := s.store.Trips().Get(ctx, tripID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrTripNotFound)
		}

		return nil, fmt.Errorf("%s:%w", op, err)
	}

	seats, err := s.store.Bookings().ConfirmedSeats(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return &domain.TripRevenue{
		TripID:  tripID,
		Revenue: domain.RevenueForSeats(seats),
	}, nil
}
