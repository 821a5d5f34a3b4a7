package ginserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/app/availability"
	appbooking "staybook/internal/app/booking"
	appoutbox "staybook/internal/app/outbox"
	"staybook/internal/domain/shared/clock"
	"staybook/internal/infra/config"
	"staybook/internal/infra/obs"
	"staybook/internal/infra/security"
	"staybook/internal/infra/storage/memory"
	"staybook/internal/infra/storage/s3"
)

type testServer struct {
	handler http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	clk := clock.Fixed(time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC))

	bookings := memory.NewBookingRepository()
	bookings.Clock = clk
	reviews := memory.NewReviewRepository()
	properties := memory.NewPropertyRepository()
	properties.Bookings = bookings
	properties.Reviews = reviews
	payments := memory.NewPaymentRepository()
	users := memory.NewUserRepository()
	messages := memory.NewMessageRepository()
	outbox := memory.NewOutbox()

	availabilitySvc := availability.NewService(bookings, properties, clk, availability.HoldPolicy{})
	orch := appbooking.NewOrchestrator(appbooking.Params{
		Bookings:   bookings,
		Properties: properties,
		Payments:   memory.NewPaymentsLedger(payments, clk),
		Outbox:     outbox,
		Encoder:    appoutbox.JSONEventEncoder{},
		Clock:      clk,
	})

	handlers := Handlers{
		Booking:      BookingHandler{Orchestrator: orch, Bookings: bookings},
		Availability: AvailabilityHandler{Service: availabilitySvc},
		Property:     PropertyHandler{Properties: properties, Users: users, Uploader: s3.NoopUploader{}, Clock: clk},
		Review:       ReviewHandler{Reviews: reviews, Properties: properties, Clock: clk},
		Message:      MessageHandler{Messages: messages, Users: users, Clock: clk},
		Auth:         AuthHandler{Users: users, Hasher: security.BcryptHasher{Cost: 4}, Clock: clk},
	}

	cfg := config.Config{Env: "test", HTTPAddr: ":0"}
	srv := NewServer(cfg, obs.Middleware{}, obs.HealthHandlers{}, nil, nil, handlers)
	return &testServer{handler: srv.Handler}
}

func (s *testServer) do(t *testing.T, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeID(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var out struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.NotEmpty(t, out.ID)
	return out.ID
}

func (s *testServer) registerUser(t *testing.T, email string, roles ...string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"email":    email,
		"name":     "Test User",
		"password": "correct-horse",
		"roles":    roles,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeID(t, rec)
}

func (s *testServer) createProperty(t *testing.T, hostID string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/properties", hostID, map[string]any{
		"title":              "Canal loft",
		"nightly_rate_cents": 10000,
		"currency":           "EUR",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeID(t, rec)
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/livez", "", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/readyz", "", nil).Code)
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)
	s.registerUser(t, "alice@example.com")

	t.Run("duplicate email", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
			"email":    "alice@example.com",
			"name":     "Clone",
			"password": "correct-horse",
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("login", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
			"email":    "alice@example.com",
			"password": "correct-horse",
		})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
			"email":    "alice@example.com",
			"password": "wrong",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestBookingFlow(t *testing.T) {
	s := newTestServer(t)
	hostID := s.registerUser(t, "host@example.com", "host")
	guestID := s.registerUser(t, "guest@example.com")
	propertyID := s.createProperty(t, hostID)

	newBooking := func(userID, checkIn, checkOut string) *httptest.ResponseRecorder {
		return s.do(t, http.MethodPost, "/api/v1/bookings", userID, map[string]any{
			"property_id": propertyID,
			"check_in":    checkIn,
			"check_out":   checkOut,
		})
	}

	t.Run("requires identity", func(t *testing.T) {
		rec := newBooking("", "2026-03-10", "2026-03-14")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("inverted dates", func(t *testing.T) {
		rec := newBooking(guestID, "2026-03-14", "2026-03-10")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	rec := newBooking(guestID, "2026-03-10", "2026-03-14")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	bookingID := decodeID(t, rec)

	t.Run("overlapping booking conflicts", func(t *testing.T) {
		rec := newBooking(guestID, "2026-03-12", "2026-03-16")
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("availability reflects the booking", func(t *testing.T) {
		rec := s.do(t, http.MethodGet,
			"/api/v1/properties/"+propertyID+"/availability?check_in=2026-03-10&check_out=2026-03-14", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var out struct {
			Available bool `json:"available"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		assert.False(t, out.Available)
	})

	t.Run("free ranges skip the booked block", func(t *testing.T) {
		rec := s.do(t, http.MethodGet,
			"/api/v1/properties/"+propertyID+"/free-ranges?from=2026-03-01&to=2026-03-20", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var out struct {
			Free []struct {
				CheckIn  string `json:"check_in"`
				CheckOut string `json:"check_out"`
			} `json:"free"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		require.Len(t, out.Free, 2)
		assert.Equal(t, "2026-03-10", out.Free[0].CheckOut)
		assert.Equal(t, "2026-03-14", out.Free[1].CheckIn)
	})

	t.Run("confirm then cancel", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/v1/bookings/"+bookingID+"/confirm", guestID, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec = s.do(t, http.MethodPost, "/api/v1/bookings/"+bookingID+"/cancel", guestID, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		// idempotent
		rec = s.do(t, http.MethodPost, "/api/v1/bookings/"+bookingID+"/cancel", guestID, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("list my bookings", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/v1/me/bookings", guestID, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var out struct {
			Bookings []struct {
				ID string `json:"id"`
			} `json:"bookings"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		assert.Len(t, out.Bookings, 1)
	})

	t.Run("unknown booking", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/v1/bookings/missing/confirm", guestID, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestPropertyAuthorization(t *testing.T) {
	s := newTestServer(t)
	hostID := s.registerUser(t, "host@example.com", "host")
	guestID := s.registerUser(t, "guest@example.com")

	t.Run("guest cannot create a property", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/v1/properties", guestID, map[string]any{
			"title":              "Sneaky listing",
			"nightly_rate_cents": 100,
			"currency":           "EUR",
		})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	propertyID := s.createProperty(t, hostID)

	t.Run("only the owner may delete", func(t *testing.T) {
		rec := s.do(t, http.MethodDelete, "/api/v1/properties/"+propertyID, guestID, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = s.do(t, http.MethodDelete, "/api/v1/properties/"+propertyID, hostID, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestReviewEndpoints(t *testing.T) {
	s := newTestServer(t)
	hostID := s.registerUser(t, "host@example.com", "host")
	guestID := s.registerUser(t, "guest@example.com")
	propertyID := s.createProperty(t, hostID)

	submit := func(userID string, rating int) *httptest.ResponseRecorder {
		return s.do(t, http.MethodPost, "/api/v1/properties/"+propertyID+"/reviews", userID, map[string]any{
			"rating":  rating,
			"comment": "great stay",
		})
	}

	require.Equal(t, http.StatusCreated, submit(guestID, 5).Code)
	assert.Equal(t, http.StatusConflict, submit(guestID, 3).Code, "one review per author per property")
	assert.Equal(t, http.StatusBadRequest, submit(hostID, 9).Code)

	rec := s.do(t, http.MethodGet, "/api/v1/properties/"+propertyID+"/reviews", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		Reviews []struct {
			Rating int `json:"rating"`
		} `json:"reviews"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out.Reviews, 1)
	assert.Equal(t, 5, out.Reviews[0].Rating)
}

func TestMessageEndpoints(t *testing.T) {
	s := newTestServer(t)
	aliceID := s.registerUser(t, "alice@example.com")
	bobID := s.registerUser(t, "bob@example.com")

	send := func(from, to, body string) *httptest.ResponseRecorder {
		return s.do(t, http.MethodPost, "/api/v1/messages", from, map[string]any{
			"recipient_id": to,
			"body":         body,
		})
	}

	require.Equal(t, http.StatusCreated, send(aliceID, bobID, "hi bob").Code)
	require.Equal(t, http.StatusCreated, send(bobID, aliceID, "hi alice").Code)
	assert.Equal(t, http.StatusBadRequest, send(aliceID, aliceID, "note to self").Code)
	assert.Equal(t, http.StatusNotFound, send(aliceID, "ghost", "anyone there?").Code)

	rec := s.do(t, http.MethodGet, "/api/v1/messages/"+bobID, aliceID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		Messages []struct {
			Body string `json:"body"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Len(t, out.Messages, 2)
}
