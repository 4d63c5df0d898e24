package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/yaovia/rides-go/internal/domain"
	redisx "github.com/yaovia/rides-go/internal/redis"
	"github.com/yaovia/rides-go/internal/repository"
	redisrepo "github.com/yaovia/rides-go/internal/repository/redis"
	"github.com/yaovia/rides-go/internal/uow"
)

type Service struct {
	store   repository.Store
	cache   *redisrepo.Cache
	pubsub  *redisx.TripsPubSub
	limiter *redisrepo.SlidingWindowLimiter
	uow     *uow.UoW
}

func New(
	store repository.Store,
	cache *redisrepo.Cache,
	pubsub *redisx.TripsPubSub,
	limiter *redisrepo.SlidingWindowLimiter,
) *Service {
	return &Service{
		store:   store,
		cache:   cache,
		pubsub:  pubsub,
		limiter: limiter,
		uow:     uow.New(store),
	}
}

// Create books seats on a trip. The whole sequence — re-fetch trip,
// conditional seat decrement, booking insert — runs in one unit of work:
// either a pending booking exists and the counter dropped by exactly
// seats, or nothing changed at all.
//
// The availability check against the fetched trip is informational and
// may race; the decrement inside TripRepo.BookSeats re-checks the
// precondition on the persisted value and is the authoritative gate.
//
// Parameters:
//   - ctx: request-scoped context.
//   - tripID: trip to book on.
//   - seats: requested seat count, must be positive.
//   - authorID: authenticated user, or nil for an anonymous booking.
//   - rlKey: rate-limit bucket key, empty to skip limiting.
//
// Returns:
//   - *domain.Booking: the created booking with status pending.
//   - error: booking.ErrSeatCountNotPositive, booking.ErrTripNotFound,
//     booking.ErrInsufficientSeats or booking.ErrRateLimited.
func (s *Service) Create(
	ctx context.Context,
	tripID int64,
	seats int,
	authorID *int64,
	rlKey string,
) (*domain.Booking, error) {
	const op = "service.booking.Create"

	if seats <= 0 {
		return nil, fmt.Errorf("%s:%w", op, ErrSeatCountNotPositive)
	}

	if s.limiter != nil && rlKey != "" {
		ok, _, retry, err := s.limiter.Allow(ctx, rlKey)
		if err != nil {
			return nil, fmt.Errorf("%s:%w", op, err)
		}
		if !ok {
			return nil, fmt.Errorf("%s:%w: retry in %s", op, ErrRateLimited, retry)
		}
	}

	b := &domain.Booking{
		TripID:   tripID,
		AuthorID: authorID,
		Seats:    seats,
		Status:   domain.BookingPending,
	}

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		r repository.Repos,
		after func(uow.AfterCommit),
	) error {
		trip, err := r.Trips().Get(ctx, tripID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("%s:%w", op, ErrTripNotFound)
			}

			return fmt.Errorf("%s:%w", op, err)
		}

		if trip.AvailableSeats < seats {
			return fmt.Errorf("%s:%w", op, ErrInsufficientSeats)
		}

		if err := r.Trips().BookSeats(ctx, tripID, seats); err != nil {
			if errors.Is(err, repository.ErrInsufficientSeats) {
				return fmt.Errorf("%s:%w", op, ErrInsufficientSeats)
			}

			return fmt.Errorf("%s:%w", op, err)
		}

		if err := r.Bookings().Create(ctx, b); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		after(func(ctx context.Context) {
			if s.cache != nil {
				_ = s.cache.InvalidateTrip(ctx, tripID)
			}
			if s.pubsub != nil {
				_ = s.pubsub.PublishTripChanged(ctx, tripID)
			}
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return b, nil
}

// List returns bookings with their trips, optionally filtered by trip.
func (s *Service) List(ctx context.Context, tripID *int64) ([]domain.BookingWithTrip, error) {
	const op = "service.booking.List"

	var (
		out []domain.BookingWithTrip
		err error
	)

	if tripID != nil {
		out, err = s.store.Bookings().ListByTrip(ctx, *tripID)
	} else {
		out, err = s.store.Bookings().List(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}
