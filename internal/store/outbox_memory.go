package store

import (
	"context"
	"sync"
	"time"
)

// MemoryOutbox is an in-memory OutboxStore for tests and single-process
// setups.
type MemoryOutbox struct {
	mu        sync.Mutex
	records   []outboxEntry
	nackDelay time.Duration
	clock     func() time.Time
}

type outboxEntry struct {
	rec         OutboxRecord
	availableAt time.Time
	acked       bool
}

func NewMemoryOutbox() *MemoryOutbox {
	return &MemoryOutbox{nackDelay: time.Second, clock: time.Now}
}

func (o *MemoryOutbox) Append(_ context.Context, rec OutboxRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = o.clock()
	}
	o.records = append(o.records, outboxEntry{rec: rec, availableAt: rec.CreatedAt})
	return nil
}

func (o *MemoryOutbox) Drain(_ context.Context, batchSize int) ([]OutboxRecord, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	now := o.clock()
	var out []OutboxRecord
	for _, e := range o.records {
		if e.acked || e.availableAt.After(now) {
			continue
		}
		out = append(out, e.rec)
		if len(out) == batchSize {
			break
		}
	}
	return out, nil
}

func (o *MemoryOutbox) Ack(_ context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	for i := range o.records {
		if o.records[i].rec.ID == id {
			o.records[i].acked = true
		}
	}
	return nil
}

func (o *MemoryOutbox) Nack(_ context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	for i := range o.records {
		if o.records[i].rec.ID == id {
			o.records[i].rec.Attempts++
			o.records[i].availableAt = o.clock().Add(o.nackDelay)
		}
	}
	return nil
}

// Pending returns the records not yet acked, oldest first.
func (o *MemoryOutbox) Pending() []OutboxRecord {
	o.mu.Lock()
	defer o.mu.Unlock()

	var out []OutboxRecord
	for _, e := range o.records {
		if !e.acked {
			out = append(out, e.rec)
		}
	}
	return out
}
