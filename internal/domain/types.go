package domain

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
)

// PricePerSeat is the flat fare applied to every confirmed seat when
// aggregating revenue.
const PricePerSeat int64 = 1500

type Trip struct {
	ID             int64     `json:"id"`
	Origin         string    `json:"origin"`
	Destination    string    `json:"destination"`
	Departure      time.Time `json:"departure_datetime"`
	AvailableSeats int       `json:"available_seats"`
}

// Available reports whether the trip still has seats to sell.
func (t Trip) Available() bool {
	return t.AvailableSeats > 0
}

type Booking struct {
	ID        uuid.UUID     `json:"id"`
	TripID    int64         `json:"trip_id"`
	AuthorID  *int64        `json:"author,omitempty"`
	Seats     int           `json:"num_seats"`
	Status    BookingStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
}

type BookingWithTrip struct {
	Booking
	Trip Trip `json:"trip"`
}

type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

type TripRevenue struct {
	TripID  int64 `json:"trip_id"`
	Revenue int64 `json:"revenue"`
}

// RevenueForSeats converts a confirmed seat total into money.
func RevenueForSeats(seats int64) int64 {
	return seats * PricePerSeat
}
