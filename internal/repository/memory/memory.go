// Package memory provides an in-memory repository.Store used by tests.
// RunTx serializes units of work behind one mutex and rolls back by
// snapshot, mirroring the commit-or-nothing contract of the Postgres
// store closely enough to exercise the booking workflow.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yaovia/rides-go/internal/domain"
	"github.com/yaovia/rides-go/internal/repository"
)

type Store struct {
	mu sync.Mutex

	trips      map[int64]domain.Trip
	nextTripID int64

	bookings     map[uuid.UUID]domain.Booking
	bookingOrder []uuid.UUID

	users      map[int64]domain.User
	nextUserID int64

	tokens map[string]int64 // token hash -> user ID
}

func NewStore() *Store {
	return &Store{
		trips:    make(map[int64]domain.Trip),
		bookings: make(map[uuid.UUID]domain.Booking),
		users:    make(map[int64]domain.User),
		tokens:   make(map[string]int64),
	}
}

func (s *Store) Trips() repository.Trips       { return tripsMem{s: s} }
func (s *Store) Bookings() repository.Bookings { return bookingsMem{s: s} }
func (s *Store) Users() repository.Users       { return usersMem{s: s} }
func (s *Store) Tokens() repository.Tokens     { return tokensMem{s: s} }

func (s *Store) RunTx(
	ctx context.Context,
	fn func(ctx context.Context, r repository.Repos) error,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()

	if err := fn(ctx, txRepos{s: s}); err != nil {
		s.restore(snap)
		return err
	}

	return nil
}

// SetBookingStatus flips a booking's status out of band, standing in for
// the external process that confirms bookings.
func (s *Store) SetBookingStatus(id uuid.UUID, status domain.BookingStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b, ok := s.bookings[id]; ok {
		b.Status = status
		s.bookings[id] = b
	}
}

type snapshot struct {
	trips        map[int64]domain.Trip
	nextTripID   int64
	bookings     map[uuid.UUID]domain.Booking
	bookingOrder []uuid.UUID
	users        map[int64]domain.User
	nextUserID   int64
	tokens       map[string]int64
}

func (s *Store) snapshot() snapshot {
	snap := snapshot{
		trips:        make(map[int64]domain.Trip, len(s.trips)),
		nextTripID:   s.nextTripID,
		bookings:     make(map[uuid.UUID]domain.Booking, len(s.bookings)),
		bookingOrder: append([]uuid.UUID(nil), s.bookingOrder...),
		users:        make(map[int64]domain.User, len(s.users)),
		nextUserID:   s.nextUserID,
		tokens:       make(map[string]int64, len(s.tokens)),
	}
	for k, v := range s.trips {
		snap.trips[k] = v
	}
	for k, v := range s.bookings {
		snap.bookings[k] = v
	}
	for k, v := range s.users {
		snap.users[k] = v
	}
	for k, v := range s.tokens {
		snap.tokens[k] = v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.trips = snap.trips
	s.nextTripID = snap.nextTripID
	s.bookings = snap.bookings
	s.bookingOrder = snap.bookingOrder
	s.users = snap.users
	s.nextUserID = snap.nextUserID
	s.tokens = snap.tokens
}

// txRepos is the transaction-scoped view handed to RunTx callbacks; the
// store mutex is already held, so its repos must not lock again.
type txRepos struct {
	s *Store
}

func (r txRepos) Trips() repository.Trips       { return tripsMem{s: r.s, inTx: true} }
func (r txRepos) Bookings() repository.Bookings { return bookingsMem{s: r.s, inTx: true} }
func (r txRepos) Users() repository.Users       { return usersMem{s: r.s, inTx: true} }
func (r txRepos) Tokens() repository.Tokens     { return tokensMem{s: r.s, inTx: true} }

func lock(s *Store, inTx bool) func() {
	if inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

type tripsMem struct {
	s    *Store
	inTx bool
}

func (m tripsMem) Create(ctx context.Context, trip *domain.Trip) (int64, error) {
	defer lock(m.s, m.inTx)()

	for _, t := range m.s.trips {
		if t.Origin == trip.Origin &&
			t.Destination == trip.Destination &&
			t.Departure.Equal(trip.Departure) {
			return 0, repository.ErrConflict
		}
	}

	m.s.nextTripID++
	cp := *trip
	cp.ID = m.s.nextTripID
	m.s.trips[cp.ID] = cp

	return cp.ID, nil
}

func (m tripsMem) Get(ctx context.Context, id int64) (*domain.Trip, error) {
	defer lock(m.s, m.inTx)()

	t, ok := m.s.trips[id]
	if !ok {
		return nil, repository.ErrNotFound
	}

	return &t, nil
}

func (m tripsMem) Exists(
	ctx context.Context,
	origin, destination string,
	departure time.Time,
) (bool, error) {
	defer lock(m.s, m.inTx)()

	for _, t := range m.s.trips {
		if t.Origin == origin &&
			t.Destination == destination &&
			t.Departure.Equal(departure) {
			return true, nil
		}
	}

	return false, nil
}

func (m tripsMem) ListAvailable(ctx context.Context) ([]domain.Trip, error) {
	defer lock(m.s, m.inTx)()

	var out []domain.Trip
	for _, t := range m.s.trips {
		if t.AvailableSeats > 0 {
			out = append(out, t)
		}
	}

	return out, nil
}

func (m tripsMem) BookSeats(ctx context.Context, tripID int64, seats int) error {
	defer lock(m.s, m.inTx)()

	t, ok := m.s.trips[tripID]
	if !ok || t.AvailableSeats < seats {
		return repository.ErrInsufficientSeats
	}

	t.AvailableSeats -= seats
	m.s.trips[tripID] = t

	return nil
}

type bookingsMem struct {
	s    *Store
	inTx bool
}

func (m bookingsMem) Create(ctx context.Context, booking *domain.Booking) error {
	defer lock(m.s, m.inTx)()

	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	if booking.Status == "" {
		booking.Status = domain.BookingPending
	}
	booking.CreatedAt = time.Now()

	m.s.bookings[booking.ID] = *booking
	m.s.bookingOrder = append(m.s.bookingOrder, booking.ID)

	return nil
}

func (m bookingsMem) List(ctx context.Context) ([]domain.BookingWithTrip, error) {
	defer lock(m.s, m.inTx)()

	return m.list(func(domain.Booking) bool { return true }), nil
}

func (m bookingsMem) ListByTrip(ctx context.Context, tripID int64) ([]domain.BookingWithTrip, error) {
	defer lock(m.s, m.inTx)()

	return m.list(func(b domain.Booking) bool { return b.TripID == tripID }), nil
}

func (m bookingsMem) ConfirmedSeats(ctx context.Context, tripID int64) (int64, error) {
	defer lock(m.s, m.inTx)()

	var seats int64
	for _, b := range m.s.bookings {
		if b.TripID == tripID && b.Status == domain.BookingConfirmed {
			seats += int64(b.Seats)
		}
	}

	return seats, nil
}

func (m bookingsMem) list(keep func(domain.Booking) bool) []domain.BookingWithTrip {
	var out []domain.BookingWithTrip
	for _, id := range m.s.bookingOrder {
		b := m.s.bookings[id]
		if !keep(b) {
			continue
		}
		out = append(out, domain.BookingWithTrip{
			Booking: b,
			Trip:    m.s.trips[b.TripID],
		})
	}
	return out
}

type usersMem struct {
	s    *Store
	inTx bool
}

func (m usersMem) Create(ctx context.Context, username, passwordHash string) (int64, error) {
	defer lock(m.s, m.inTx)()

	for _, u := range m.s.users {
		if u.Username == username {
			return 0, repository.ErrConflict
		}
	}

	m.s.nextUserID++
	m.s.users[m.s.nextUserID] = domain.User{
		ID:           m.s.nextUserID,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}

	return m.s.nextUserID, nil
}

func (m usersMem) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	defer lock(m.s, m.inTx)()

	for _, u := range m.s.users {
		if u.Username == username {
			cp := u
			return &cp, nil
		}
	}

	return nil, repository.ErrNotFound
}

type tokensMem struct {
	s    *Store
	inTx bool
}

func (m tokensMem) Store(ctx context.Context, userID int64, tokenHash string) error {
	defer lock(m.s, m.inTx)()

	m.s.tokens[tokenHash] = userID

	return nil
}

func (m tokensMem) UserIDByHash(ctx context.Context, tokenHash string) (int64, error) {
	defer lock(m.s, m.inTx)()

	userID, ok := m.s.tokens[tokenHash]
	if !ok {
		return 0, repository.ErrNotFound
	}

	return userID, nil
}
