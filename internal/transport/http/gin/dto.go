package httpgin

import "time"

type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RegisterResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type TokenRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

type CreateTripRequest struct {
	Origin            string `json:"origin" binding:"required"`
	Destination       string `json:"destination" binding:"required"`
	DepartureDatetime string `json:"departure_datetime" binding:"required"`
	// pointer so an explicit 0 passes required while an omitted field fails
	AvailableSeats *int `json:"available_seats" binding:"required"`
}

type CreateBookingRequest struct {
	TripID   int64 `json:"trip_id" binding:"required"`
	NumSeats int   `json:"num_seats" binding:"required"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func parseRFC3339(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
