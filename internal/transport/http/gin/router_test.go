package httpgin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/yaovia/rides-go/internal/domain"
	"github.com/yaovia/rides-go/internal/repository/memory"
	"github.com/yaovia/rides-go/internal/service"
	"github.com/yaovia/rides-go/internal/service/auth"
)

func newTestRouter(t *testing.T) (*gin.Engine, *memory.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	svcs := service.NewServices(store, nil, nil, nil, service.Config{
		Auth: auth.Config{BcryptCost: bcrypt.MinCost},
	})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewRouter(svcs, nil, logger), store
}

func doJSON(
	t *testing.T,
	r *gin.Engine,
	method, path, token string,
	body any,
) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

// registerAndLogin runs the register + token flow and returns a bearer token.
func registerAndLogin(t *testing.T, r *gin.Engine, username string) string {
	t.Helper()

	creds := gin.H{"username": username, "password": "s3cret"}

	if w := doJSON(t, r, http.MethodPost, "/register/", "", creds); w.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", w.Code, w.Body.String())
	}

	w := doJSON(t, r, http.MethodPost, "/api_token_auth/", "", creds)
	if w.Code != http.StatusOK {
		t.Fatalf("token: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	return decode[TokenResponse](t, w).Token
}

func createTrip(t *testing.T, r *gin.Engine, token string, seats int) domain.Trip {
	t.Helper()

	w := doJSON(t, r, http.MethodPost, "/trips/", token, gin.H{
		"origin":             "Abuja",
		"destination":        "Cotonou",
		"departure_datetime": fmt.Sprintf("2026-12-25T%02d:00:00Z", 10+seats%12),
		"available_seats":    seats,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create trip: expected 201, got %d: %s", w.Code, w.Body.String())
	}

	return decode[domain.Trip](t, w)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	r, _ := newTestRouter(t)
	creds := gin.H{"username": "amaka", "password": "s3cret"}

	if w := doJSON(t, r, http.MethodPost, "/register/", "", creds); w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	if w := doJSON(t, r, http.MethodPost, "/register/", "", creds); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on duplicate, got %d", w.Code)
	}
}

func TestObtainTokenBadCredentials(t *testing.T) {
	r, _ := newTestRouter(t)
	registerAndLogin(t, r, "amaka")

	w := doJSON(t, r, http.MethodPost, "/api_token_auth/", "", gin.H{
		"username": "amaka",
		"password": "wrong",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCreateTripRequiresAuth(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/trips/", "", gin.H{
		"origin":             "Abuja",
		"destination":        "Cotonou",
		"departure_datetime": "2026-12-25T10:00:00Z",
		"available_seats":    5,
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCreateTripAndListAvailable(t *testing.T) {
	r, _ := newTestRouter(t)
	token := registerAndLogin(t, r, "amaka")

	trip := createTrip(t, r, token, 5)
	if trip.AvailableSeats != 5 {
		t.Errorf("expected 5 seats, got %d", trip.AvailableSeats)
	}

	// a sold-out trip is created fine but never listed
	full := createTrip(t, r, token, 0)

	w := doJSON(t, r, http.MethodGet, "/trips/", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Header().Get("ETag") == "" {
		t.Error("expected ETag header on trip list")
	}

	listed := decode[[]domain.Trip](t, w)
	if len(listed) != 1 {
		t.Fatalf("expected 1 listed trip, got %d", len(listed))
	}
	if listed[0].ID == full.ID {
		t.Error("sold-out trip should not be listed")
	}
}

func TestCreateTripMissingSeats(t *testing.T) {
	r, _ := newTestRouter(t)
	token := registerAndLogin(t, r, "amaka")

	// available_seats omitted entirely must be rejected, not default to 0
	w := doJSON(t, r, http.MethodPost, "/trips/", token, gin.H{
		"origin":             "Abuja",
		"destination":        "Cotonou",
		"departure_datetime": "2026-12-25T10:00:00Z",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}

	// an explicit zero is a legal, sold-out trip
	w = doJSON(t, r, http.MethodPost, "/trips/", token, gin.H{
		"origin":             "Abuja",
		"destination":        "Cotonou",
		"departure_datetime": "2026-12-25T10:00:00Z",
		"available_seats":    0,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCreateTripDuplicate(t *testing.T) {
	r, _ := newTestRouter(t)
	token := registerAndLogin(t, r, "amaka")

	body := gin.H{
		"origin":             "Abuja",
		"destination":        "Cotonou",
		"departure_datetime": "2026-12-25T10:00:00Z",
		"available_seats":    5,
	}

	if w := doJSON(t, r, http.MethodPost, "/trips/", token, body); w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	if w := doJSON(t, r, http.MethodPost, "/trips/", token, body); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on duplicate, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCreateBookingAnonymous(t *testing.T) {
	r, _ := newTestRouter(t)
	token := registerAndLogin(t, r, "amaka")
	trip := createTrip(t, r, token, 5)

	w := doJSON(t, r, http.MethodPost, "/bookings/", "", gin.H{
		"trip_id":   trip.ID,
		"num_seats": 2,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	b := decode[domain.Booking](t, w)
	if b.Status != domain.BookingPending {
		t.Errorf("expected status pending, got %q", b.Status)
	}
	if b.AuthorID != nil {
		t.Errorf("expected anonymous booking, got author %d", *b.AuthorID)
	}
}

func TestCreateBookingAuthenticated(t *testing.T) {
	r, _ := newTestRouter(t)
	token := registerAndLogin(t, r, "amaka")
	trip := createTrip(t, r, token, 5)

	w := doJSON(t, r, http.MethodPost, "/bookings/", token, gin.H{
		"trip_id":   trip.ID,
		"num_seats": 1,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	b := decode[domain.Booking](t, w)
	if b.AuthorID == nil {
		t.Fatal("expected booking author to be set")
	}
}

func TestCreateBookingInvalidToken(t *testing.T) {
	r, _ := newTestRouter(t)
	token := registerAndLogin(t, r, "amaka")
	trip := createTrip(t, r, token, 5)

	// anonymous is allowed, but a token that fails to resolve is not
	w := doJSON(t, r, http.MethodPost, "/bookings/", "deadbeef", gin.H{
		"trip_id":   trip.ID,
		"num_seats": 1,
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCreateBookingRejections(t *testing.T) {
	r, _ := newTestRouter(t)
	token := registerAndLogin(t, r, "amaka")
	trip := createTrip(t, r, token, 3)

	cases := []struct {
		name string
		body gin.H
	}{
		{"insufficient seats", gin.H{"trip_id": trip.ID, "num_seats": 4}},
		{"negative seats", gin.H{"trip_id": trip.ID, "num_seats": -1}},
		{"zero seats", gin.H{"trip_id": trip.ID, "num_seats": 0}},
		{"unknown trip", gin.H{"trip_id": trip.ID + 100, "num_seats": 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/bookings/", "", tc.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}

	// nothing was booked
	w := doJSON(t, r, http.MethodGet, "/bookings/", "", nil)
	if got := decode[[]domain.BookingWithTrip](t, w); len(got) != 0 {
		t.Errorf("expected no bookings, got %d", len(got))
	}
}

func TestListBookingsFilter(t *testing.T) {
	r, _ := newTestRouter(t)
	token := registerAndLogin(t, r, "amaka")
	first := createTrip(t, r, token, 5)
	second := createTrip(t, r, token, 7)

	for _, tripID := range []int64{first.ID, second.ID} {
		w := doJSON(t, r, http.MethodPost, "/bookings/", "", gin.H{
			"trip_id":   tripID,
			"num_seats": 1,
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("book trip %d: got %d: %s", tripID, w.Code, w.Body.String())
		}
	}

	w := doJSON(t, r, http.MethodGet, fmt.Sprintf("/bookings/?trip_id=%d", second.ID), "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	got := decode[[]domain.BookingWithTrip](t, w)
	if len(got) != 1 {
		t.Fatalf("expected 1 booking, got %d", len(got))
	}
	if got[0].TripID != second.ID {
		t.Errorf("expected trip %d, got %d", second.ID, got[0].TripID)
	}
	if got[0].Trip.ID != second.ID {
		t.Errorf("expected embedded trip %d, got %d", second.ID, got[0].Trip.ID)
	}
}

func TestTripRevenue(t *testing.T) {
	r, store := newTestRouter(t)
	token := registerAndLogin(t, r, "amaka")
	trip := createTrip(t, r, token, 10)

	w := doJSON(t, r, http.MethodPost, "/bookings/", "", gin.H{
		"trip_id":   trip.ID,
		"num_seats": 4,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("book: got %d: %s", w.Code, w.Body.String())
	}
	b := decode[domain.Booking](t, w)

	path := fmt.Sprintf("/trip/revenue/%d/", trip.ID)

	if w := doJSON(t, r, http.MethodGet, path, "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}

	// pending bookings earn nothing yet
	w = doJSON(t, r, http.MethodGet, path, token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if rev := decode[domain.TripRevenue](t, w); rev.Revenue != 0 {
		t.Errorf("expected zero revenue, got %d", rev.Revenue)
	}

	store.SetBookingStatus(b.ID, domain.BookingConfirmed)

	w = doJSON(t, r, http.MethodGet, path, token, nil)
	rev := decode[domain.TripRevenue](t, w)
	if want := domain.RevenueForSeats(4); rev.Revenue != want {
		t.Errorf("expected revenue %d, got %d", want, rev.Revenue)
	}
}

func TestTripRevenueUnknownTrip(t *testing.T) {
	r, _ := newTestRouter(t)
	token := registerAndLogin(t, r, "amaka")

	w := doJSON(t, r, http.MethodGet, "/trip/revenue/999/", token, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestHealthz(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/healthz", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}
