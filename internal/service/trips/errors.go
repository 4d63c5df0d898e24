package trips

import "errors"

var (
	ErrDuplicateTrip = errors.New("trip with the same origin, destination and departure time already exists")
	ErrNegativeSeats = errors.New("available seats must not be negative")
)
