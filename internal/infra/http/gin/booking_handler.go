package ginserver

import (
	"errors"
	"net/http"

	gin "github.com/gin-gonic/gin"

	appbooking "staybook/internal/app/booking"
	domainbooking "staybook/internal/domain/booking"
	domainproperty "staybook/internal/domain/property"
	"staybook/internal/infra/obs"
)

type BookingHandler struct {
	Orchestrator *appbooking.Orchestrator
	Bookings     domainbooking.Repository
	Metrics      *obs.Metrics
}

type createBookingRequest struct {
	PropertyID string `json:"property_id" binding:"required"`
	CheckIn    string `json:"check_in" binding:"required"`
	CheckOut   string `json:"check_out" binding:"required"`
}

type bookingResponse struct {
	ID         string `json:"id"`
	PropertyID string `json:"property_id"`
	GuestID    string `json:"guest_id"`
	CheckIn    string `json:"check_in"`
	CheckOut   string `json:"check_out"`
	Status     string `json:"status"`
	TotalCents int64  `json:"total_cents"`
	Currency   string `json:"currency"`
}

func (h BookingHandler) Create(c *gin.Context) {
	guestID, ok := requireUserID(c)
	if !ok {
		return
	}
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	checkIn, err := parseDate(req.CheckIn)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "check_in must be a YYYY-MM-DD date"})
		return
	}
	checkOut, err := parseDate(req.CheckOut)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "check_out must be a YYYY-MM-DD date"})
		return
	}

	b, err := h.Orchestrator.CreateBooking(c.Request.Context(), domainproperty.ID(req.PropertyID), guestID, checkIn, checkOut)
	if err != nil {
		if h.Metrics != nil && errors.Is(err, domainbooking.ErrDateConflict) {
			h.Metrics.BookingConflict()
		}
		writeError(c, err)
		return
	}
	if h.Metrics != nil {
		h.Metrics.BookingCreated()
	}
	c.JSON(http.StatusCreated, toBookingResponse(b))
}

func (h BookingHandler) Confirm(c *gin.Context) {
	if _, ok := requireUserID(c); !ok {
		return
	}
	b, err := h.Orchestrator.ConfirmBooking(c.Request.Context(), domainbooking.ID(c.Param("id")))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(b))
}

func (h BookingHandler) Cancel(c *gin.Context) {
	actor, ok := requireUserID(c)
	if !ok {
		return
	}
	b, err := h.Orchestrator.CancelBooking(c.Request.Context(), domainbooking.ID(c.Param("id")), actor)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(b))
}

func (h BookingHandler) ListMine(c *gin.Context) {
	guestID, ok := requireUserID(c)
	if !ok {
		return
	}
	bookings, err := h.Bookings.ListByGuest(c.Request.Context(), guestID)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]bookingResponse, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, toBookingResponse(b))
	}
	c.JSON(http.StatusOK, gin.H{"bookings": out})
}

func toBookingResponse(b *domainbooking.Booking) bookingResponse {
	return bookingResponse{
		ID:         string(b.ID),
		PropertyID: string(b.PropertyID),
		GuestID:    string(b.GuestID),
		CheckIn:    b.Range.CheckIn.Format("2006-01-02"),
		CheckOut:   b.Range.CheckOut.Format("2006-01-02"),
		Status:     string(b.Status),
		TotalCents: b.Total.Amount,
		Currency:   b.Total.Currency,
	}
}

var _ BookingHTTP = BookingHandler{}
