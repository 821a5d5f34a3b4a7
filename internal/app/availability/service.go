package availability

import (
	"context"
	"sort"
	"time"

	"staybook/internal/domain/booking"
	"staybook/internal/domain/property"
	"staybook/internal/domain/shared/clock"
	"staybook/internal/domain/shared/daterange"
)

// HoldPolicy tunes how unconfirmed bookings block availability.
// PendingHoldTTL == 0 means pending bookings block forever.
type HoldPolicy struct {
	PendingHoldTTL time.Duration
}

// Service answers "is property P free for [s,e)" against the booking
// repository. Reads are lock-free; the orchestrator re-validates under
// its own serialization point before committing.
type Service struct {
	Bookings   booking.Repository
	Properties property.Repository
	Clock      clock.Clock
	Policy     HoldPolicy
}

func NewService(bookings booking.Repository, properties property.Repository, clk clock.Clock, policy HoldPolicy) *Service {
	if clk == nil {
		clk = clock.System()
	}
	return &Service{Bookings: bookings, Properties: properties, Clock: clk, Policy: policy}
}

// IsAvailable reports whether the property is free for the whole range.
// Short-circuits on the first conflicting booking.
func (s *Service) IsAvailable(ctx context.Context, propertyID property.ID, dr daterange.DateRange) (bool, error) {
	if err := dr.Validate(); err != nil {
		return false, err
	}
	if _, err := s.Properties.ByID(ctx, propertyID); err != nil {
		return false, err
	}
	blocking, err := s.blockingRanges(ctx, propertyID, dr)
	if err != nil {
		return false, err
	}
	for _, blocked := range blocking {
		if blocked.Overlaps(dr) {
			return false, nil
		}
	}
	return true, nil
}

// FreeRanges lists the non-overlapping free intervals inside the window,
// ordered by start date. Adjacent and overlapping busy intervals are
// merged before gaps are computed.
func (s *Service) FreeRanges(ctx context.Context, propertyID property.ID, window daterange.DateRange) ([]daterange.DateRange, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.Properties.ByID(ctx, propertyID); err != nil {
		return nil, err
	}
	blocking, err := s.blockingRanges(ctx, propertyID, window)
	if err != nil {
		return nil, err
	}

	clamped := make([]daterange.DateRange, 0, len(blocking))
	for _, blocked := range blocking {
		if trimmed, ok := blocked.Clamp(window); ok {
			clamped = append(clamped, trimmed)
		}
	}
	sort.Slice(clamped, func(i, j int) bool {
		return clamped[i].CheckIn.Before(clamped[j].CheckIn)
	})

	merged := make([]daterange.DateRange, 0, len(clamped))
	for _, blocked := range clamped {
		if len(merged) == 0 {
			merged = append(merged, blocked)
			continue
		}
		last := merged[len(merged)-1]
		if union, ok := last.Merge(blocked); ok {
			merged[len(merged)-1] = union
		} else {
			merged = append(merged, blocked)
		}
	}

	free := make([]daterange.DateRange, 0, len(merged)+1)
	cursor := window.CheckIn
	for _, blocked := range merged {
		if cursor.Before(blocked.CheckIn) {
			free = append(free, daterange.DateRange{CheckIn: cursor, CheckOut: blocked.CheckIn})
		}
		if blocked.CheckOut.After(cursor) {
			cursor = blocked.CheckOut
		}
	}
	if cursor.Before(window.CheckOut) {
		free = append(free, daterange.DateRange{CheckIn: cursor, CheckOut: window.CheckOut})
	}
	return free, nil
}

func (s *Service) blockingRanges(ctx context.Context, propertyID property.ID, window daterange.DateRange) ([]daterange.DateRange, error) {
	candidates, err := s.Bookings.OverlappingWindow(ctx, propertyID, window)
	if err != nil {
		return nil, err
	}
	now := s.Clock.Now()
	ranges := make([]daterange.DateRange, 0, len(candidates))
	for _, b := range candidates {
		if b.Blocks(now, s.Policy.PendingHoldTTL) {
			ranges = append(ranges, b.Range)
		}
	}
	return ranges, nil
}
