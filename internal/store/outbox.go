package store

import (
	"context"
	"encoding/json"
	"time"
)

// OutboxRecord is one pending notification in the durable outbox. Key is the
// bus partition key; Payload is the serialized event envelope.
type OutboxRecord struct {
	ID        string
	Key       string
	Payload   json.RawMessage
	CreatedAt time.Time
	Attempts  int
}

// OutboxStore is a durable, ordered staging log of pending notifications.
// Event processors Append alongside their projection writes; the relay
// Drains, publishes, and settles each record.
// Drain returns pending records oldest-first; records stay pending until
// acked, so delivery is at-least-once across relay restarts. Nack
// reschedules a record for a later drain and bumps its attempt count.
type OutboxStore interface {
	Append(ctx context.Context, rec OutboxRecord) error
	Drain(ctx context.Context, batchSize int) ([]OutboxRecord, error)
	Ack(ctx context.Context, id string) error
	Nack(ctx context.Context, id string) error
}
