package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/example/catalog-sync/internal/api"
	"github.com/example/catalog-sync/internal/auth"
	"github.com/example/catalog-sync/internal/config"
	"github.com/example/catalog-sync/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}
	if len(cfg.API.JWTSecret) < 32 {
		log.Fatal("api.jwt_secret must be at least 32 characters long")
	}

	db, err := store.ConnectPostgres(cfg.Database.URL)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to postgres")
	}
	defer db.Close()

	projections := store.NewPostgresStore(db)
	tokens := auth.NewTokenService(cfg.API.JWTSecret, cfg.API.TokenExpiry)
	handlers := api.NewHandlers(projections)

	server := &http.Server{
		Addr:    cfg.API.Addr,
		Handler: api.NewRouter(handlers, tokens),
	}

	go func() {
		log.WithField("addr", cfg.API.Addr).Info("starting read api")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server did not stop cleanly")
	}
}
