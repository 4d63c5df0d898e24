package booking

import "errors"

var (
	ErrSeatCountNotPositive = errors.New("number of seats must be greater than zero")
	ErrTripNotFound         = errors.New("trip not found")
	ErrInsufficientSeats    = errors.New("not enough available seats for this trip")
	ErrRateLimited          = errors.New("rate limited")
)
