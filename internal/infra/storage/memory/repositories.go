package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	domainbooking "staybook/internal/domain/booking"
	domainmessage "staybook/internal/domain/message"
	domainpayment "staybook/internal/domain/payment"
	domainproperty "staybook/internal/domain/property"
	domainreview "staybook/internal/domain/review"
	"staybook/internal/domain/shared/clock"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/user"
)

// PropertyRepository is an in-memory implementation for tests and the
// demo wiring. Deleting a property cascades into the booking and review
// stores when they are attached.
type PropertyRepository struct {
	mu       sync.RWMutex
	items    map[domainproperty.ID]*domainproperty.Property
	Bookings *BookingRepository
	Reviews  *ReviewRepository
}

func NewPropertyRepository() *PropertyRepository {
	return &PropertyRepository{items: make(map[domainproperty.ID]*domainproperty.Property)}
}

func (r *PropertyRepository) ByID(ctx context.Context, id domainproperty.ID) (*domainproperty.Property, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.items[id]
	if !ok {
		return nil, domainproperty.ErrNotFound
	}
	return p, nil
}

func (r *PropertyRepository) Save(ctx context.Context, p *domainproperty.Property) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[p.ID] = p
	return nil
}

func (r *PropertyRepository) Delete(ctx context.Context, id domainproperty.ID) error {
	r.mu.Lock()
	if _, ok := r.items[id]; !ok {
		r.mu.Unlock()
		return domainproperty.ErrNotFound
	}
	delete(r.items, id)
	r.mu.Unlock()

	if r.Bookings != nil {
		if err := r.Bookings.DeleteByProperty(ctx, id); err != nil {
			return err
		}
	}
	if r.Reviews != nil {
		if err := r.Reviews.DeleteByProperty(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// BookingRepository stores bookings in memory. Insert enforces the same
// exclusion rule a production store declares as a constraint: no two
// blocking bookings for one property may overlap. Clock and HoldTTL
// mirror the orchestrator's pending-hold policy.
type BookingRepository struct {
	mu      sync.RWMutex
	items   map[domainbooking.ID]*domainbooking.Booking
	Clock   clock.Clock
	HoldTTL time.Duration
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[domainbooking.ID]*domainbooking.Booking)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.ID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrNotFound
	}
	return b, nil
}

func (r *BookingRepository) Insert(ctx context.Context, b *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	for _, existing := range r.items {
		if existing.PropertyID != b.PropertyID {
			continue
		}
		if existing.Blocks(now, r.HoldTTL) && existing.Range.Overlaps(b.Range) {
			return domainbooking.ErrUniquenessViolation
		}
	}
	b.Version++
	r.items[b.ID] = b
	return nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[b.ID]; !ok {
		return domainbooking.ErrNotFound
	}
	b.Version++
	r.items[b.ID] = b
	return nil
}

func (r *BookingRepository) OverlappingWindow(ctx context.Context, propertyID domainproperty.ID, window daterange.DateRange) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainbooking.Booking, 0)
	for _, b := range r.items {
		if b.PropertyID != propertyID {
			continue
		}
		if b.Range.Overlaps(window) {
			matches = append(matches, b)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Range.CheckIn.Before(matches[j].Range.CheckIn)
	})
	return matches, nil
}

func (r *BookingRepository) ListByGuest(ctx context.Context, guestID user.ID) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainbooking.Booking, 0)
	for _, b := range r.items {
		if b.GuestID == guestID {
			matches = append(matches, b)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches, nil
}

func (r *BookingRepository) DeleteByProperty(ctx context.Context, propertyID domainproperty.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, b := range r.items {
		if b.PropertyID == propertyID {
			delete(r.items, id)
		}
	}
	return nil
}

func (r *BookingRepository) now() time.Time {
	if r.Clock != nil {
		return r.Clock.Now()
	}
	return time.Now().UTC()
}

// PaymentRepository keeps at most one payment per booking.
type PaymentRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.ID]*domainpayment.Payment
}

func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{items: make(map[domainbooking.ID]*domainpayment.Payment)}
}

func (r *PaymentRepository) ByBooking(ctx context.Context, bookingID domainbooking.ID) (*domainpayment.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.items[bookingID]
	if !ok {
		return nil, domainpayment.ErrNotFound
	}
	return p, nil
}

func (r *PaymentRepository) Save(ctx context.Context, p *domainpayment.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[p.BookingID]; ok {
		return domainpayment.ErrDuplicate
	}
	r.items[p.BookingID] = p
	return nil
}

// ReviewRepository enforces one review per (author, property).
type ReviewRepository struct {
	mu    sync.RWMutex
	items map[string]*domainreview.Review
}

func NewReviewRepository() *ReviewRepository {
	return &ReviewRepository{items: make(map[string]*domainreview.Review)}
}

func (r *ReviewRepository) ByAuthorAndProperty(ctx context.Context, authorID user.ID, propertyID domainproperty.ID) (*domainreview.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	review, ok := r.items[reviewKey(authorID, propertyID)]
	if !ok {
		return nil, domainreview.ErrNotFound
	}
	return review, nil
}

func (r *ReviewRepository) Save(ctx context.Context, review *domainreview.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := reviewKey(review.AuthorID, review.PropertyID)
	if _, ok := r.items[key]; ok {
		return domainreview.ErrDuplicate
	}
	r.items[key] = review
	return nil
}

func (r *ReviewRepository) ListByProperty(ctx context.Context, propertyID domainproperty.ID) ([]*domainreview.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainreview.Review, 0)
	for _, review := range r.items {
		if review.PropertyID == propertyID {
			matches = append(matches, review)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches, nil
}

func (r *ReviewRepository) DeleteByProperty(ctx context.Context, propertyID domainproperty.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, review := range r.items {
		if review.PropertyID == propertyID {
			delete(r.items, key)
		}
	}
	return nil
}

func reviewKey(authorID user.ID, propertyID domainproperty.ID) string {
	return string(authorID) + ":" + string(propertyID)
}

// MessageRepository appends messages and replays conversations.
type MessageRepository struct {
	mu    sync.RWMutex
	items []*domainmessage.Message
}

func NewMessageRepository() *MessageRepository {
	return &MessageRepository{}
}

func (r *MessageRepository) Save(ctx context.Context, m *domainmessage.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, m)
	return nil
}

func (r *MessageRepository) ListBetween(ctx context.Context, a, b user.ID) ([]*domainmessage.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainmessage.Message, 0)
	for _, m := range r.items {
		if (m.SenderID == a && m.RecipientID == b) || (m.SenderID == b && m.RecipientID == a) {
			matches = append(matches, m)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].SentAt.Before(matches[j].SentAt)
	})
	return matches, nil
}
