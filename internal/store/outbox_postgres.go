package store

import (
	"context"
	"database/sql"
	"time"
)

// PostgresOutbox keeps pending notifications in a catalog_outbox table.
// Acked records are marked published rather than removed, which keeps the
// log auditable; a retention job can prune them out of band.
type PostgresOutbox struct {
	db        *sql.DB
	nackDelay time.Duration
}

func NewPostgresOutbox(db *sql.DB, nackDelay time.Duration) *PostgresOutbox {
	if nackDelay <= 0 {
		nackDelay = 5 * time.Second
	}
	return &PostgresOutbox{db: db, nackDelay: nackDelay}
}

func (o *PostgresOutbox) Append(ctx context.Context, rec OutboxRecord) error {
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := o.db.ExecContext(ctx,
		`INSERT INTO catalog_outbox (id, key, payload, attempts, created_at, available_at)
		 VALUES ($1, $2, $3, 0, $4, $4)
		 ON CONFLICT (id) DO NOTHING`,
		rec.ID, rec.Key, []byte(rec.Payload), createdAt,
	)
	return err
}

func (o *PostgresOutbox) Drain(ctx context.Context, batchSize int) ([]OutboxRecord, error) {
	rows, err := o.db.QueryContext(ctx,
		`SELECT id, key, payload, attempts, created_at
		 FROM catalog_outbox
		 WHERE published_at IS NULL AND available_at <= now()
		 ORDER BY created_at ASC
		 LIMIT $1`,
		batchSize,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OutboxRecord
	for rows.Next() {
		var rec OutboxRecord
		var payload []byte
		if err := rows.Scan(&rec.ID, &rec.Key, &payload, &rec.Attempts, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Payload = payload
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (o *PostgresOutbox) Ack(ctx context.Context, id string) error {
	_, err := o.db.ExecContext(ctx,
		`UPDATE catalog_outbox SET published_at = now() WHERE id = $1`,
		id,
	)
	return err
}

func (o *PostgresOutbox) Nack(ctx context.Context, id string) error {
	_, err := o.db.ExecContext(ctx,
		`UPDATE catalog_outbox
		 SET attempts = attempts + 1, available_at = now() + $2 * interval '1 millisecond'
		 WHERE id = $1`,
		id, o.nackDelay.Milliseconds(),
	)
	return err
}
