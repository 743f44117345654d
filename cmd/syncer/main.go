package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/example/catalog-sync/internal/bulk"
	"github.com/example/catalog-sync/internal/config"
	"github.com/example/catalog-sync/internal/event"
	"github.com/example/catalog-sync/internal/kafka"
	"github.com/example/catalog-sync/internal/reference"
	"github.com/example/catalog-sync/internal/store"
	syncer "github.com/example/catalog-sync/internal/sync"
	"github.com/example/catalog-sync/internal/topology"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	log.WithFields(log.Fields{
		"brokers": cfg.Kafka.Brokers,
		"group":   cfg.Kafka.ConsumerGroup,
		"workers": cfg.Sync.Workers,
	}).Info("starting catalog syncer")

	db, err := store.ConnectPostgres(cfg.Database.URL)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to postgres")
	}
	defer db.Close()

	projections := store.NewPostgresStore(db)
	outbox := store.NewPostgresOutbox(db, cfg.Relay.NackDelay)
	refs := reference.NewStoreReader(projections)

	propagator := bulk.NewPropagator(projections, outbox, refs, bulk.Config{
		Workers:   cfg.Sync.Workers,
		OpTimeout: cfg.Sync.OpTimeout,
	})

	graph := topology.NewPostgresGraph(db)
	source := topology.NewProjectionSource(projections, cfg.Sync.MasterStore)
	coordinator := topology.NewCoordinator(projections, outbox, graph, source, topology.Config{
		OpTimeout: cfg.Sync.OpTimeout,
	})

	handler := syncer.NewHandler(propagator, coordinator)

	for _, topic := range []string{event.TopicBulkUpdate, event.TopicTopology} {
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, topic, cfg.Kafka.ConsumerGroup)
		defer consumer.Close()

		go func() {
			log.WithField("topic", topic).Info("starting consumer")
			if err := consumer.Consume(ctx, handler.HandleMessage); err != nil && ctx.Err() == nil {
				log.WithError(err).WithField("topic", topic).Error("consumer stopped")
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")
	cancel()
}
