package api

import (
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/example/catalog-sync/internal/api/middleware"
	"github.com/example/catalog-sync/internal/auth"
)

func NewRouter(handlers *Handlers, tokens *auth.TokenService) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /projections/{store}/{type}", handlers.ListProjections)
	mux.HandleFunc("GET /projections/{store}/{type}/{code}", handlers.GetProjection)

	// Logging sits inside auth so the caller claims are on the context.
	return middleware.AuthMiddleware(tokens)(withLogging(mux))
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.WithFields(log.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
			"caller": middleware.GetCallerService(r.Context()),
		}).Debug("handling request")
		next.ServeHTTP(w, r)
	})
}
