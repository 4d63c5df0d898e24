package httpgin

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	redisrepo "github.com/yaovia/rides-go/internal/repository/redis"
	"github.com/yaovia/rides-go/internal/service"
	"github.com/yaovia/rides-go/internal/service/auth"
	"github.com/yaovia/rides-go/internal/service/booking"
	"github.com/yaovia/rides-go/internal/service/revenue"
	"github.com/yaovia/rides-go/internal/service/trips"
)

func NewRouter(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
	logger *slog.Logger,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery(), LoggingMiddleware(logger), RequestIDMiddleware(), CORS())
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	authn := TokenAuthenticator(svcs.Auth.Authenticate)

	// Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// health
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/register/", handleRegister(svcs))
	r.POST("/api_token_auth/", handleObtainToken(svcs))

	r.GET("/trips/", handleListTrips(svcs))
	r.POST("/trips/", BearerAuth(authn), handleCreateTrip(svcs))

	r.GET("/bookings/", handleListBookings(svcs))
	r.POST("/bookings/", OptionalBearerAuth(authn), handleCreateBooking(svcs, idem))

	r.GET("/trip/revenue/:trip_id/", BearerAuth(authn), handleTripRevenue(svcs))

	return r
}

// --- Handlers with Swagger annotations ---

// @Summary  Register user
// @Param    req body  RegisterRequest true "payload"
// @Success  201 {object} RegisterResponse
// @Failure  400 {object} ErrorResponse
// @Router   /register/ [post]
func handleRegister(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		u, err := svcs.Auth.Register(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusCreated, RegisterResponse{ID: u.ID, Username: u.Username})
	}
}

// @Summary  Obtain bearer token
// @Param    req body  TokenRequest true "payload"
// @Success  200 {object} TokenResponse
// @Failure  400 {object} ErrorResponse
// @Router   /api_token_auth/ [post]
func handleObtainToken(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req TokenRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		token, err := svcs.Auth.IssueToken(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, TokenResponse{Token: token})
	}
}

// @Summary  List trips with available seats
// @Success  200 {array} domain.Trip
// @Router   /trips/ [get]
func handleListTrips(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := svcs.Trips.ListAvailable(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		// ETag + Cache-Control 15s
		writeJSONWithCache(c, http.StatusOK, out, "public, max-age=15", true)
	}
}

// @Summary  Create trip
// @Security BearerAuth
// @Param    req body  CreateTripRequest true "payload"
// @Success  201 {object} domain.Trip
// @Failure  400 {object} ErrorResponse "duplicate trip / bad input"
// @Failure  401 {object} ErrorResponse
// @Router   /trips/ [post]
func handleCreateTrip(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateTripRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		departure, err := parseRFC3339(req.DepartureDatetime)
		if err != nil {
			badRequest(c, "invalid departure_datetime (RFC3339)")
			return
		}

		trip, err := svcs.Trips.Create(
			c.Request.Context(),
			req.Origin,
			req.Destination,
			departure,
			*req.AvailableSeats,
		)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusCreated, trip)
	}
}

// @Summary  List bookings
// @Param    trip_id query int false "filter by trip"
// @Success  200 {array} domain.BookingWithTrip
// @Router   /bookings/ [get]
func handleListBookings(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var tripID *int64
		if s := c.Query("trip_id"); s != "" {
			v, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				badRequest(c, "invalid trip_id")
				return
			}
			tripID = &v
		}

		out, err := svcs.Booking.List(c.Request.Context(), tripID)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, out)
	}
}

// @Summary  Create booking (idempotent, anonymous allowed)
// @Param    req body  CreateBookingRequest true "payload"
// @Header   201 {string} Idempotency-Key "echo"
// @Success  201 {object} domain.Booking
// @Failure  400 {object} ErrorResponse "insufficient seats / bad input"
// @Failure  429 {object} ErrorResponse "rate limited"
// @Router   /bookings/ [post]
func handleCreateBooking(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateBookingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
		var idemStorageKey string
		if idem != nil && idemKey != "" {
			idemStorageKey = redisrepo.KeyIdemBooking(req.TripID, idemKey)

			if payload, ok, _ := idem.GetResult(c.Request.Context(), idemStorageKey); ok {
				c.Header("Idempotency-Key", idemKey)
				c.Data(http.StatusCreated, "application/json; charset=utf-8", []byte(payload))
				return
			}

			locked, err := idem.AcquireLock(c.Request.Context(), idemStorageKey, 60*time.Second)
			if err != nil {
				respondErr(c, err)
				return
			}
			if !locked {
				if payload, ok, _ := idem.GetResult(c.Request.Context(), idemStorageKey); ok {
					c.Header("Idempotency-Key", idemKey)
					c.Data(http.StatusCreated, "application/json; charset=utf-8", []byte(payload))
					return
				}
				c.Header("Retry-After", "1")
				c.JSON(http.StatusConflict, ErrorResponse{Error: "idempotency key in progress"})
				return
			}
		}

		rlKey := "ip:" + c.ClientIP()

		b, err := svcs.Booking.Create(
			c.Request.Context(),
			req.TripID,
			req.NumSeats,
			authedUserID(c),
			rlKey,
		)
		if err != nil {
			if idemStorageKey != "" && idem != nil {
				_ = idem.Release(c.Request.Context(), idemStorageKey)
			}
			if errors.Is(err, booking.ErrRateLimited) {
				c.Header("Retry-After", "60")
				c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: "rate limited"})
				return
			}
			respondErr(c, err)
			return
		}

		if idemStorageKey != "" && idem != nil {
			payload, _ := json.Marshal(b)
			_ = idem.SaveResult(c.Request.Context(), idemStorageKey, string(payload))
			c.Header("Idempotency-Key", idemKey)
		}

		c.JSON(http.StatusCreated, b)
	}
}

// @Summary  Trip revenue
// @Security BearerAuth
// @Param    trip_id path int true "Trip ID"
// @Success  200 {object} domain.TripRevenue
// @Failure  401 {object} ErrorResponse
// @Failure  404 {object} ErrorResponse
// @Router   /trip/revenue/{trip_id}/ [get]
func handleTripRevenue(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		tripID, ok := parseInt64Param(c, "trip_id")
		if !ok {
			return
		}

		rev, err := svcs.Revenue.ForTrip(c.Request.Context(), tripID)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, rev)
	}
}

// --- Helpers ---

func parseInt64Param(c *gin.Context, name string) (int64, bool) {
	s := c.Param(name)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return v, true
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	switch {
	// auth service
	case errors.Is(err, auth.ErrUsernameTaken):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "username already taken"})
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unable to log in with provided credentials"})
	// trips service
	case errors.Is(err, trips.ErrDuplicateTrip):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "a trip with the same origin, destination, and departure time already exists",
		})
	case errors.Is(err, trips.ErrNegativeSeats):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "available seats must not be negative"})
	// booking service
	case errors.Is(err, booking.ErrSeatCountNotPositive):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "number of seats must be greater than zero"})
	case errors.Is(err, booking.ErrTripNotFound):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "trip does not exist"})
	case errors.Is(err, booking.ErrInsufficientSeats):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "not enough available seats for this trip"})
	// revenue service
	case errors.Is(err, revenue.ErrTripNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "trip not found"})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}
