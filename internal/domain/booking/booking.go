package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"staybook/internal/domain/property"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/events"
	"staybook/internal/domain/shared/money"
	"staybook/internal/domain/user"
)

var (
	ErrGuestRequired    = errors.New("booking: guest id required")
	ErrInvalidTotal     = errors.New("booking: total must be positive")
	ErrRetroactiveStart = errors.New("booking: check-in date is in the past")
	ErrDateConflict     = errors.New("booking: dates conflict with an existing booking")
	ErrNotFound         = errors.New("booking: not found")
	// ErrUniquenessViolation is raised by repositories when a concurrent
	// writer claimed an overlapping slot between check and commit. The
	// orchestrator translates it, it never reaches callers directly.
	ErrUniquenessViolation = errors.New("booking: storage uniqueness violation")
	ErrTimeout             = errors.New("booking: operation timed out")
)

type ID string

type Booking struct {
	ID         ID
	PropertyID property.ID
	GuestID    user.ID
	Range      daterange.DateRange
	Total      money.Money
	Status     Status
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Version    int64
	events.EventRecorder
}

// Repository is the persistence boundary consumed by the availability
// service and the orchestrator. Implementations translate their native
// duplicate-slot detection into ErrUniquenessViolation.
type Repository interface {
	ByID(ctx context.Context, id ID) (*Booking, error)
	// Insert persists a new booking and fails with ErrUniquenessViolation
	// when the slot was taken concurrently.
	Insert(ctx context.Context, b *Booking) error
	Save(ctx context.Context, b *Booking) error
	// OverlappingWindow returns bookings for the property whose range
	// overlaps the given window, regardless of status. Backed by the
	// (property_id, check_in) index, not a full scan.
	OverlappingWindow(ctx context.Context, propertyID property.ID, window daterange.DateRange) ([]*Booking, error)
	ListByGuest(ctx context.Context, guestID user.ID) ([]*Booking, error)
	DeleteByProperty(ctx context.Context, propertyID property.ID) error
}

type CreateParams struct {
	ID         ID
	PropertyID property.ID
	GuestID    user.ID
	Range      daterange.DateRange
	Total      money.Money
	CreatedAt  time.Time
}

func NewBooking(params CreateParams) (*Booking, error) {
	if strings.TrimSpace(string(params.GuestID)) == "" {
		return nil, ErrGuestRequired
	}
	if err := params.Range.Validate(); err != nil {
		return nil, err
	}
	if !params.Total.IsPositive() {
		return nil, ErrInvalidTotal
	}
	now := params.CreatedAt.UTC()
	b := &Booking{
		ID:         params.ID,
		PropertyID: params.PropertyID,
		GuestID:    params.GuestID,
		Range:      params.Range,
		Total:      params.Total,
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	b.Record(BookingRequested{BookingID: b.ID, PropertyID: b.PropertyID, GuestID: b.GuestID, Range: b.Range, Total: b.Total, At: now})
	return b, nil
}

// Blocks reports whether this booking occupies its interval for the
// purposes of the overlap invariant. Cancelled bookings never block;
// pending bookings stop blocking once their hold expires (holdTTL == 0
// means holds never expire).
func (b *Booking) Blocks(now time.Time, holdTTL time.Duration) bool {
	switch b.Status {
	case StatusConfirmed:
		return true
	case StatusPending:
		if holdTTL <= 0 {
			return true
		}
		return now.Sub(b.CreatedAt) < holdTTL
	default:
		return false
	}
}

func (b *Booking) Confirm(now time.Time) error {
	next, err := Transition(b.Status, EventConfirm)
	if err != nil {
		return err
	}
	b.Status = next
	b.UpdatedAt = now.UTC()
	b.Record(BookingConfirmed{BookingID: b.ID, PropertyID: b.PropertyID, Range: b.Range, Total: b.Total, At: b.UpdatedAt})
	return nil
}

func (b *Booking) Cancel(actor user.ID, now time.Time) error {
	next, err := Transition(b.Status, EventCancel)
	if err != nil {
		return err
	}
	b.Status = next
	b.UpdatedAt = now.UTC()
	b.Record(BookingCancelled{BookingID: b.ID, PropertyID: b.PropertyID, Actor: actor, At: b.UpdatedAt})
	return nil
}
