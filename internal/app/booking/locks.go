package booking

import (
	"context"
	"errors"
	"sync"

	domainbooking "staybook/internal/domain/booking"
	"staybook/internal/domain/property"
)

// propertyLocks serializes check+insert per property. Entries are
// reference counted so the map does not grow with every property ever
// booked.
type propertyLocks struct {
	mu    sync.Mutex
	slots map[property.ID]*lockSlot
}

type lockSlot struct {
	ch   chan struct{}
	refs int
}

func newPropertyLocks() *propertyLocks {
	return &propertyLocks{slots: make(map[property.ID]*lockSlot)}
}

// acquire blocks until the property lock is held or ctx expires. The
// returned release must be called on every exit path.
func (l *propertyLocks) acquire(ctx context.Context, id property.ID) (func(), error) {
	l.mu.Lock()
	slot, ok := l.slots[id]
	if !ok {
		slot = &lockSlot{ch: make(chan struct{}, 1)}
		l.slots[id] = slot
	}
	slot.refs++
	l.mu.Unlock()

	select {
	case slot.ch <- struct{}{}:
		return func() {
			<-slot.ch
			l.put(id, slot)
		}, nil
	case <-ctx.Done():
		l.put(id, slot)
		return nil, mapContextErr(ctx.Err())
	}
}

func (l *propertyLocks) put(id property.ID, slot *lockSlot) {
	l.mu.Lock()
	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, id)
	}
	l.mu.Unlock()
}

func mapContextErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return domainbooking.ErrTimeout
	}
	return err
}
