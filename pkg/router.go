package pkg

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter serves the health endpoints and upgrades every other path to a
// relay connection.
func NewRouter(manager *Manager) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/health", manager.HealthHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/health", manager.HealthHandler).Methods(http.MethodGet)
	router.PathPrefix("/").HandlerFunc(manager.SocketHandler)
	return router
}

// NewMetricsRouter serves Prometheus metrics, plus the room snapshot when
// config.ExposeRooms is set. The snapshot is never served on the relay
// listener.
func NewMetricsRouter(manager *Manager, config *Config) *mux.Router {
	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.Handler())
	if config.ExposeRooms {
		router.HandleFunc("/api/v1/rooms", manager.RoomsHandler).
			Methods(http.MethodGet)
	}
	return router
}
