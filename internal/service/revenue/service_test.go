package revenue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yaovia/rides-go/internal/domain"
	"github.com/yaovia/rides-go/internal/repository/memory"
)

func seedTrip(t *testing.T, store *memory.Store, seats int) int64 {
	t.Helper()

	id, err := store.Trips().Create(context.Background(), &domain.Trip{
		Origin:         "Abuja",
		Destination:    "Cotonou",
		Departure:      time.Date(2026, 12, 25, 10, 0, 0, 0, time.UTC),
		AvailableSeats: seats,
	})
	if err != nil {
		t.Fatalf("create trip: %v", err)
	}

	return id
}

func seedBooking(t *testing.T, store *memory.Store, tripID int64, seats int, confirm bool) {
	t.Helper()

	b := &domain.Booking{TripID: tripID, Seats: seats, Status: domain.BookingPending}
	if err := store.Bookings().Create(context.Background(), b); err != nil {
		t.Fatalf("create booking: %v", err)
	}
	if confirm {
		store.SetBookingStatus(b.ID, domain.BookingConfirmed)
	}
}

func TestForTripNoBookings(t *testing.T) {
	store := memory.NewStore()
	svc := New(store)
	tripID := seedTrip(t, store, 30)

	rev, err := svc.ForTrip(context.Background(), tripID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rev.Revenue != 0 {
		t.Errorf("expected zero revenue, got %d", rev.Revenue)
	}
	if rev.TripID != tripID {
		t.Errorf("expected trip %d, got %d", tripID, rev.TripID)
	}
}

func TestForTripConfirmedOnly(t *testing.T) {
	store := memory.NewStore()
	svc := New(store)
	tripID := seedTrip(t, store, 30)

	seedBooking(t, store, tripID, 3, true)
	seedBooking(t, store, tripID, 2, true)
	seedBooking(t, store, tripID, 4, false) // pending, must not count

	rev, err := svc.ForTrip(context.Background(), tripID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := domain.RevenueForSeats(5)
	if rev.Revenue != want {
		t.Errorf("expected revenue %d, got %d", want, rev.Revenue)
	}
}

func TestForTripIgnoresOtherTrips(t *testing.T) {
	store := memory.NewStore()
	svc := New(store)
	first := seedTrip(t, store, 30)

	second, err := store.Trips().Create(context.Background(), &domain.Trip{
		Origin:         "Lagos",
		Destination:    "Accra",
		Departure:      time.Date(2026, 12, 26, 8, 0, 0, 0, time.UTC),
		AvailableSeats: 30,
	})
	if err != nil {
		t.Fatalf("create trip: %v", err)
	}

	seedBooking(t, store, first, 3, true)
	seedBooking(t, store, second, 7, true)

	rev, err := svc.ForTrip(context.Background(), first)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if want := domain.RevenueForSeats(3); rev.Revenue != want {
		t.Errorf("expected revenue %d, got %d", want, rev.Revenue)
	}
}

func TestForTripUnknownTrip(t *testing.T) {
	store := memory.NewStore()
	svc := New(store)

	_, err := svc.ForTrip(context.Background(), 42)
	if !errors.Is(err, ErrTripNotFound) {
		t.Fatalf("expected ErrTripNotFound, got %v", err)
	}
}
