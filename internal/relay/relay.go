package relay

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"

	"github.com/example/catalog-sync/internal/event"
	"github.com/example/catalog-sync/internal/store"
)

// Publisher is the message-bus publish contract the relay depends on.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, value []byte) error
}

// Config tunes the relay's poll loop and retry policy.
type Config struct {
	PollInterval    time.Duration
	BatchSize       int
	PublishTimeout  time.Duration
	RetryMaxElapsed time.Duration
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = time.Second
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 50
	}
	if c.PublishTimeout <= 0 {
		c.PublishTimeout = 5 * time.Second
	}
	if c.RetryMaxElapsed <= 0 {
		c.RetryMaxElapsed = 30 * time.Second
	}
	return c
}

// Relay drains the durable outbox and publishes pending catalog-change
// notifications to the bus. Delivery is at-least-once: a record is acked
// only after a successful publish, so failures and restarts redeliver.
type Relay struct {
	outbox store.OutboxStore
	bus    Publisher
	cfg    Config

	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

func New(outbox store.OutboxStore, bus Publisher, cfg Config) *Relay {
	return &Relay{
		outbox: outbox,
		bus:    bus,
		cfg:    cfg.withDefaults(),
	}
}

var errAlreadyStarted = errors.New("relay already started")

// Start launches the background worker.
func (r *Relay) Start() error {
	if r.started {
		return errAlreadyStarted
	}
	r.started = true

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.done = make(chan struct{})

	go r.run(ctx)
	return nil
}

// Stop requests cancellation and blocks until in-flight publish attempts
// finish, or until ctx expires.
func (r *Relay) Stop(ctx context.Context) error {
	if !r.started {
		return nil
	}
	r.cancel()
	select {
	case <-r.done:
		r.started = false
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Relay) run(ctx context.Context) {
	defer close(r.done)

	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	for {
		r.drainOnce(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (r *Relay) drainOnce(ctx context.Context) {
	records, err := r.outbox.Drain(ctx, r.cfg.BatchSize)
	if err != nil {
		if ctx.Err() == nil {
			log.WithError(err).Error("outbox drain failed")
		}
		return
	}

	for _, rec := range records {
		if ctx.Err() != nil {
			return
		}
		r.deliver(ctx, rec)
	}
}

func (r *Relay) deliver(ctx context.Context, rec store.OutboxRecord) {
	topic, err := r.topicFor(rec)
	if err != nil {
		r.deadLetter(ctx, rec, err)
		return
	}

	if err := r.publishWithRetry(ctx, topic, rec); err != nil {
		if ctx.Err() != nil {
			return
		}
		log.WithError(err).WithFields(log.Fields{
			"record":   rec.ID,
			"topic":    topic,
			"attempts": rec.Attempts,
		}).Error("publish retries exhausted, nacking record")
		if err := r.outbox.Nack(ctx, rec.ID); err != nil {
			log.WithError(err).WithField("record", rec.ID).Error("outbox nack failed")
		}
		return
	}

	if err := r.outbox.Ack(ctx, rec.ID); err != nil {
		// The event went out; the record will be redelivered and consumers
		// must dedupe, which at-least-once already demands.
		log.WithError(err).WithField("record", rec.ID).Error("outbox ack failed")
	}
}

func (r *Relay) topicFor(rec store.OutboxRecord) (string, error) {
	var env event.Envelope
	if err := json.Unmarshal(rec.Payload, &env); err != nil {
		return "", event.ErrMalformedEvent
	}
	return event.TopicFor(env.Type)
}

func (r *Relay) publishWithRetry(ctx context.Context, topic string, rec store.OutboxRecord) error {
	operation := func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, r.cfg.PublishTimeout)
		defer cancel()
		return r.bus.Publish(attemptCtx, topic, rec.Key, rec.Payload)
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = r.cfg.RetryMaxElapsed
	return backoff.Retry(operation, backoff.WithContext(policy, ctx))
}

// deadLetter routes an unpublishable record to the dead-letter topic and
// acks it so it cannot block the batch.
func (r *Relay) deadLetter(ctx context.Context, rec store.OutboxRecord, cause error) {
	log.WithError(cause).WithField("record", rec.ID).Warn("routing malformed outbox record to dead letter")

	attemptCtx, cancel := context.WithTimeout(ctx, r.cfg.PublishTimeout)
	defer cancel()
	if err := r.bus.Publish(attemptCtx, event.TopicDeadLetter, rec.Key, rec.Payload); err != nil {
		log.WithError(err).WithField("record", rec.ID).Error("dead letter publish failed, nacking record")
		if err := r.outbox.Nack(ctx, rec.ID); err != nil {
			log.WithError(err).WithField("record", rec.ID).Error("outbox nack failed")
		}
		return
	}
	if err := r.outbox.Ack(ctx, rec.ID); err != nil {
		log.WithError(err).WithField("record", rec.ID).Error("outbox ack failed")
	}
}
