package memory

import (
	"context"
	"sync"

	appoutbox "staybook/internal/app/outbox"
)

// Outbox buffers event records in memory until the worker drains them.
type Outbox struct {
	mu      sync.Mutex
	records []appoutbox.EventRecord
}

func NewOutbox() *Outbox {
	return &Outbox{}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records = append(o.records, record)
	return nil
}

// Next pops the oldest pending record. The second return is false when
// the outbox is empty.
func (o *Outbox) Next(ctx context.Context) (appoutbox.EventRecord, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.records) == 0 {
		return appoutbox.EventRecord{}, false
	}
	rec := o.records[0]
	o.records = o.records[1:]
	return rec, true
}

// Requeue puts a record back at the end of the queue after a publish failure.
func (o *Outbox) Requeue(record appoutbox.EventRecord) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records = append(o.records, record)
}

func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.records)
}

var _ appoutbox.Outbox = (*Outbox)(nil)
