package booking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"staybook/internal/app/availability"
	appoutbox "staybook/internal/app/outbox"
	"staybook/internal/app/policies"
	domainbooking "staybook/internal/domain/booking"
	"staybook/internal/domain/property"
	"staybook/internal/domain/shared/clock"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/user"
)

// Policy carries the configurable business rules the schema leaves open:
// whether historical check-ins are accepted (seed data needs them) and
// how long a pending booking holds its slot.
type Policy struct {
	AllowRetroactiveStart bool
	PendingHoldTTL        time.Duration
}

// Orchestrator is the only writer of booking records. It owns the
// invariant that no two surviving (pending/confirmed) bookings for the
// same property overlap: availability is re-checked under a per-property
// lock, and the repository's uniqueness guard catches whatever an
// out-of-process writer slipped past the in-process check.
type Orchestrator struct {
	Bookings     domainbooking.Repository
	Properties   property.Repository
	Availability *availability.Service
	Payments     policies.PaymentsPort
	Outbox       appoutbox.Outbox
	Encoder      appoutbox.EventEncoder
	Clock        clock.Clock
	Policy       Policy
	Logger       *slog.Logger

	locks *propertyLocks
}

type Params struct {
	Bookings     domainbooking.Repository
	Properties   property.Repository
	Availability *availability.Service
	Payments     policies.PaymentsPort
	Outbox       appoutbox.Outbox
	Encoder      appoutbox.EventEncoder
	Clock        clock.Clock
	Policy       Policy
	Logger       *slog.Logger
}

func NewOrchestrator(params Params) *Orchestrator {
	clk := params.Clock
	if clk == nil {
		clk = clock.System()
	}
	avail := params.Availability
	if avail == nil {
		avail = availability.NewService(params.Bookings, params.Properties, clk, availability.HoldPolicy{
			PendingHoldTTL: params.Policy.PendingHoldTTL,
		})
	}
	logger := params.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		Bookings:     params.Bookings,
		Properties:   params.Properties,
		Availability: avail,
		Payments:     params.Payments,
		Outbox:       params.Outbox,
		Encoder:      params.Encoder,
		Clock:        clk,
		Policy:       params.Policy,
		Logger:       logger,
		locks:        newPropertyLocks(),
	}
}

// CreateBooking reserves [checkIn, checkOut) for the guest. Exactly one
// of N concurrent calls for overlapping intervals succeeds; the rest
// fail with ErrDateConflict.
func (o *Orchestrator) CreateBooking(ctx context.Context, propertyID property.ID, guestID user.ID, checkIn, checkOut time.Time) (*domainbooking.Booking, error) {
	dr, err := daterange.New(checkIn, checkOut)
	if err != nil {
		return nil, err
	}
	now := o.Clock.Now()
	if !o.Policy.AllowRetroactiveStart && startsBefore(dr, now) {
		return nil, domainbooking.ErrRetroactiveStart
	}

	prop, err := o.Properties.ByID(ctx, propertyID)
	if err != nil {
		return nil, err
	}

	release, err := o.locks.acquire(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	defer release()

	free, err := o.Availability.IsAvailable(ctx, propertyID, dr)
	if err != nil {
		return nil, err
	}
	if !free {
		return nil, domainbooking.ErrDateConflict
	}

	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:         domainbooking.ID(uuid.NewString()),
		PropertyID: propertyID,
		GuestID:    guestID,
		Range:      dr,
		Total:      prop.NightlyRate.Multiply(int64(dr.Nights())),
		CreatedAt:  now,
	})
	if err != nil {
		return nil, err
	}

	if err := o.insertWithRetry(ctx, b, dr); err != nil {
		return nil, err
	}

	if err := o.drainEvents(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// insertWithRetry absorbs a single benign commit race: one
// ErrUniquenessViolation triggers an availability re-check and one more
// insert attempt before the conflict is surfaced.
func (o *Orchestrator) insertWithRetry(ctx context.Context, b *domainbooking.Booking, dr daterange.DateRange) error {
	err := o.Bookings.Insert(ctx, b)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domainbooking.ErrUniquenessViolation) {
		return mapContextErr(err)
	}
	o.Logger.Warn("booking insert raced, retrying once", "booking_id", b.ID, "property_id", b.PropertyID)

	free, availErr := o.Availability.IsAvailable(ctx, b.PropertyID, dr)
	if availErr != nil {
		return availErr
	}
	if !free {
		return domainbooking.ErrDateConflict
	}
	if err := o.Bookings.Insert(ctx, b); err != nil {
		if errors.Is(err, domainbooking.ErrUniquenessViolation) {
			return domainbooking.ErrDateConflict
		}
		return mapContextErr(err)
	}
	return nil
}

// ConfirmBooking moves a pending booking to confirmed after re-verifying
// that no conflicting booking was confirmed concurrently, then captures
// the payment through the external port.
func (o *Orchestrator) ConfirmBooking(ctx context.Context, id domainbooking.ID) (*domainbooking.Booking, error) {
	b, err := o.Bookings.ByID(ctx, id)
	if err != nil {
		return nil, err
	}

	release, err := o.locks.acquire(ctx, b.PropertyID)
	if err != nil {
		return nil, err
	}
	defer release()

	// Re-read under the lock; the snapshot above may be stale.
	b, err = o.Bookings.ByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := o.ensureNoRival(ctx, b); err != nil {
		return nil, err
	}

	now := o.Clock.Now()
	if err := b.Confirm(now); err != nil {
		return nil, err
	}
	if err := o.Bookings.Save(ctx, b); err != nil {
		return nil, mapContextErr(err)
	}

	if o.Payments != nil {
		if _, err := o.Payments.Capture(ctx, string(b.ID), b.Total); err != nil {
			return nil, err
		}
	}

	if err := o.drainEvents(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// CancelBooking cancels a pending or confirmed booking. Cancelling an
// already-cancelled booking is a no-op success so duplicate requests
// stay harmless.
func (o *Orchestrator) CancelBooking(ctx context.Context, id domainbooking.ID, actor user.ID) (*domainbooking.Booking, error) {
	b, err := o.Bookings.ByID(ctx, id)
	if err != nil {
		return nil, err
	}

	release, err := o.locks.acquire(ctx, b.PropertyID)
	if err != nil {
		return nil, err
	}
	defer release()

	b, err = o.Bookings.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Status == domainbooking.StatusCancelled {
		return b, nil
	}

	wasConfirmed := b.Status == domainbooking.StatusConfirmed
	now := o.Clock.Now()
	if err := b.Cancel(actor, now); err != nil {
		return nil, err
	}
	if err := o.Bookings.Save(ctx, b); err != nil {
		return nil, mapContextErr(err)
	}

	if wasConfirmed && o.Payments != nil {
		// Refund amounts follow an external policy; a failed refund does
		// not resurrect the booking.
		if err := o.Payments.Refund(ctx, string(b.ID), b.Total); err != nil {
			o.Logger.Warn("refund failed", "booking_id", b.ID, "error", err)
		}
	}

	if err := o.drainEvents(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (o *Orchestrator) ensureNoRival(ctx context.Context, b *domainbooking.Booking) error {
	others, err := o.Bookings.OverlappingWindow(ctx, b.PropertyID, b.Range)
	if err != nil {
		return err
	}
	for _, other := range others {
		if other.ID == b.ID {
			continue
		}
		if other.Status == domainbooking.StatusConfirmed && other.Range.Overlaps(b.Range) {
			return domainbooking.ErrDateConflict
		}
	}
	return nil
}

func (o *Orchestrator) drainEvents(ctx context.Context, b *domainbooking.Booking) error {
	pending := b.PendingEvents()
	b.ClearEvents()
	return appoutbox.RecordDomainEvents(ctx, o.Outbox, o.Encoder, pending)
}

func startsBefore(dr daterange.DateRange, now time.Time) bool {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	checkIn := time.Date(dr.CheckIn.Year(), dr.CheckIn.Month(), dr.CheckIn.Day(), 0, 0, 0, 0, time.UTC)
	return checkIn.Before(today)
}
