package payment

import (
	"context"
	"errors"
	"strings"
	"time"

	"staybook/internal/domain/booking"
	"staybook/internal/domain/shared/money"
)

var (
	ErrIDRequired      = errors.New("payment: id is required")
	ErrBookingRequired = errors.New("payment: booking id is required")
	ErrInvalidAmount   = errors.New("payment: amount must be positive")
	ErrInvalidMethod   = errors.New("payment: unknown method")
	// ErrDuplicate enforces the 1:1 payment-per-booking rule at the
	// storage boundary.
	ErrDuplicate = errors.New("payment: booking already has a payment")
	ErrNotFound  = errors.New("payment: not found")
)

type ID string

type Method string

const (
	MethodCreditCard Method = "credit_card"
	MethodPayPal     Method = "paypal"
	MethodStripe     Method = "stripe"
)

type Payment struct {
	ID        ID
	BookingID booking.ID
	Amount    money.Money
	Method    Method
	CreatedAt time.Time
}

type Repository interface {
	ByBooking(ctx context.Context, bookingID booking.ID) (*Payment, error)
	// Save fails with ErrDuplicate when the booking already carries a payment.
	Save(ctx context.Context, p *Payment) error
}

func New(id ID, bookingID booking.ID, amount money.Money, method Method, now time.Time) (*Payment, error) {
	if strings.TrimSpace(string(id)) == "" {
		return nil, ErrIDRequired
	}
	if strings.TrimSpace(string(bookingID)) == "" {
		return nil, ErrBookingRequired
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	switch method {
	case MethodCreditCard, MethodPayPal, MethodStripe:
	default:
		return nil, ErrInvalidMethod
	}
	return &Payment{
		ID:        id,
		BookingID: bookingID,
		Amount:    amount,
		Method:    method,
		CreatedAt: now.UTC(),
	}, nil
}
