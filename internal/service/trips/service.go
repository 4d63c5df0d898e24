package trips

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yaovia/rides-go/internal/domain"
	redisx "github.com/yaovia/rides-go/internal/redis"
	"github.com/yaovia/rides-go/internal/repository"
	redisrepo "github.com/yaovia/rides-go/internal/repository/redis"
	"github.com/yaovia/rides-go/internal/uow"
)

type Config struct {
	ListTTL time.Duration
}

type Service struct {
	store  repository.Store
	cache  *redisrepo.Cache
	pubsub *redisx.TripsPubSub
	uow    *uow.UoW
	cfg    Config
}

func New(
	store repository.Store,
	cache *redisrepo.Cache,
	pubsub *redisx.TripsPubSub,
	cfg Config,
) *Service {
	if cfg.ListTTL <= 0 {
		cfg.ListTTL = 15 * time.Second
	}

	return &Service{
		store:  store,
		cache:  cache,
		pubsub: pubsub,
		uow:    uow.New(store),
		cfg:    cfg,
	}
}

// Create adds a trip. A trip repeating an existing
// (origin, destination, departure) triple is rejected before the insert,
// and the unique constraint backs that check up under concurrency.
//
// Returns:
//   - *domain.Trip: the created trip.
//   - error: trips.ErrDuplicateTrip or trips.ErrNegativeSeats on bad input.
func (s *Service) Create(
	ctx context.Context,
	origin, destination string,
	departure time.Time,
	availableSeats int,
) (*domain.Trip, error) {
	const op = "service.trips.Create"

	if availableSeats < 0 {
		return nil, fmt.Errorf("%s:%w", op, ErrNegativeSeats)
	}

	trip := &domain.Trip{
		Origin:         origin,
		Destination:    destination,
		Departure:      departure,
		AvailableSeats: availableSeats,
	}

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		r repository.Repos,
		after func(uow.AfterCommit),
	) error {
		exists, err := r.Trips().Exists(ctx, origin, destination, departure)
		if err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}

		if exists {
			return fmt.Errorf("%s:%w", op, ErrDuplicateTrip)
		}

		id, err := r.Trips().Create(ctx, trip)
		if err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return fmt.Errorf("%s:%w", op, ErrDuplicateTrip)
			}

			return fmt.Errorf("%s:%w", op, err)
		}

		trip.ID = id

		after(func(ctx context.Context) {
			if s.cache != nil {
				_ = s.cache.InvalidateTrip(ctx, trip.ID)
			}
			if s.pubsub != nil {
				_ = s.pubsub.PublishTripChanged(ctx, trip.ID)
			}
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	return trip, nil
}

// ListAvailable lists trips with seats left, served through the cache
// when one is configured.
func (s *Service) ListAvailable(ctx context.Context) ([]domain.Trip, error) {
	const op = "service.trips.ListAvailable"

	if s.cache == nil {
		out, err := s.store.Trips().ListAvailable(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s:%w", op, err)
		}

		return out, nil
	}

	out, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		redisx.KeyTripsAvailable(),
		s.cfg.ListTTL,
		func(ctx context.Context) ([]domain.Trip, error) {
			return s.store.Trips().ListAvailable(ctx)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}
