package service

import (
	redisx "github.com/yaovia/rides-go/internal/redis"
	"github.com/yaovia/rides-go/internal/repository"
	redisrepo "github.com/yaovia/rides-go/internal/repository/redis"
	"github.com/yaovia/rides-go/internal/service/auth"
	"github.com/yaovia/rides-go/internal/service/booking"
	"github.com/yaovia/rides-go/internal/service/revenue"
	"github.com/yaovia/rides-go/internal/service/trips"
)

type Services struct {
	Auth    *auth.Service
	Trips   *trips.Service
	Booking *booking.Service
	Revenue *revenue.Service
}

type Config struct {
	Auth  auth.Config
	Trips trips.Config
}

func NewServices(
	store repository.Store,
	cache *redisrepo.Cache,
	pubsub *redisx.TripsPubSub,
	limiter *redisrepo.SlidingWindowLimiter,
	cfg Config,
) *Services {
	return &Services{
		Auth:    auth.New(store, cfg.Auth),
		Trips:   trips.New(store, cache, pubsub, cfg.Trips),
		Booking: booking.New(store, cache, pubsub, limiter),
		Revenue: revenue.New(store),
	}
}
