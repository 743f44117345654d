package sync

import (
	"context"
	"encoding/json"
	"errors"

	log "github.com/sirupsen/logrus"

	"github.com/example/catalog-sync/internal/event"
)

// BulkProcessor applies one bulk-update event.
type BulkProcessor interface {
	Process(ctx context.Context, ev event.BulkUpdate) error
}

// TopologyProcessor applies one topology event.
type TopologyProcessor interface {
	Process(ctx context.Context, ev event.Topology) error
}

// Handler unwraps consumed envelopes and dispatches them to the right
// processor. Malformed messages are logged and dropped so they cannot wedge
// the consumer group; processor errors propagate, leaving the message
// uncommitted for redelivery.
type Handler struct {
	bulk     BulkProcessor
	topology TopologyProcessor
}

func NewHandler(bulk BulkProcessor, topology TopologyProcessor) *Handler {
	return &Handler{bulk: bulk, topology: topology}
}

func (h *Handler) HandleMessage(ctx context.Context, key, value []byte) error {
	var env event.Envelope
	if err := json.Unmarshal(value, &env); err != nil {
		log.WithError(err).WithField("key", string(key)).Warn("dropping undecodable message")
		return nil
	}

	err := h.dispatch(ctx, env)
	if errors.Is(err, event.ErrMalformedEvent) {
		log.WithError(err).WithFields(log.Fields{
			"event": env.ID,
			"type":  env.Type,
		}).Warn("dropping malformed event")
		return nil
	}
	return err
}

func (h *Handler) dispatch(ctx context.Context, env event.Envelope) error {
	switch env.Type {
	case event.TypeBrandBulkUpdate, event.TypeOptionBulkUpdate, event.TypeAttributeBulkUpdate,
		event.TypeAttributeSKUBulkUpdate, event.TypeAttributeCategoryBulkUpdate:
		var ev event.BulkUpdate
		if err := json.Unmarshal(env.Payload, &ev); err != nil {
			return errors.Join(event.ErrMalformedEvent, err)
		}
		return h.bulk.Process(ctx, ev)

	case event.TypeCategoryLinked, event.TypeCategoryUnlinked,
		event.TypeCategoryIncluded, event.TypeCategoryExcluded:
		var ev event.Topology
		if err := json.Unmarshal(env.Payload, &ev); err != nil {
			return errors.Join(event.ErrMalformedEvent, err)
		}
		return h.topology.Process(ctx, ev)
	}

	log.WithFields(log.Fields{
		"event": env.ID,
		"type":  env.Type,
	}).Debug("ignoring event type")
	return nil
}
