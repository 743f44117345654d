package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/example/catalog-sync/internal/config"
	"github.com/example/catalog-sync/internal/kafka"
	"github.com/example/catalog-sync/internal/relay"
	"github.com/example/catalog-sync/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	log.WithFields(log.Fields{
		"brokers": cfg.Kafka.Brokers,
		"poll":    cfg.Relay.PollInterval,
		"batch":   cfg.Relay.BatchSize,
	}).Info("starting outbox relay")

	db, err := store.ConnectPostgres(cfg.Database.URL)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to postgres")
	}
	defer db.Close()

	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	outbox := store.NewPostgresOutbox(db, cfg.Relay.NackDelay)

	r := relay.New(outbox, producer, relay.Config{
		PollInterval:    cfg.Relay.PollInterval,
		BatchSize:       cfg.Relay.BatchSize,
		PublishTimeout:  cfg.Relay.PublishTimeout,
		RetryMaxElapsed: cfg.Relay.RetryMaxElapsed,
	})
	if err := r.Start(); err != nil {
		log.WithError(err).Fatal("failed to start relay")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := r.Stop(shutdownCtx); err != nil {
		log.WithError(err).Error("relay did not stop cleanly")
	}
}
