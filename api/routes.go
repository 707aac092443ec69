package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"scavengarr/handlers"
)

// corsMiddleware sets permissive CORS headers on every response. Stremio
// clients and browser extensions fetch from foreign origins, including the
// error responses of /play.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Register mounts all endpoints onto the provided router.
func Register(
	r *mux.Router,
	stremioHandler *handlers.StremioHandler,
	torznabHandler *handlers.TorznabHandler,
	playHandler *handlers.PlayHandler,
	healthHandler *handlers.HealthHandler,
) {
	r.Use(corsMiddleware)

	// Stremio addon surface
	r.HandleFunc("/manifest.json", stremioHandler.Manifest).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/stream/{type}/{id}", stremioHandler.Stream).Methods(http.MethodGet, http.MethodOptions)

	// Torznab indexer surface
	r.HandleFunc("/torznab/api", torznabHandler.API).Methods(http.MethodGet, http.MethodOptions)

	// Proxy-play
	r.HandleFunc("/play/{id}", playHandler.Play).Methods(http.MethodGet, http.MethodHead, http.MethodOptions)

	// Operational endpoints
	r.HandleFunc("/health", healthHandler.Health).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
}
