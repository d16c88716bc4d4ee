// Package rest exposes uploads, job status and the stored statistics over
// HTTP.
package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/cors"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Server represents the REST API server
type Server struct {
	server *http.Server
	log    *logrus.Entry
}

// NewRouter builds the API routes.
func NewRouter(h *Handler, jh *JobsHandler, gatherer prometheus.Gatherer, corsOrigins []string, log *logrus.Entry) http.Handler {
	router := mux.NewRouter()

	router.Use(RecoveryMiddleware(log))
	router.Use(LoggingMiddleware(log))

	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
	router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods("GET")

	api := router.PathPrefix("/api/v1").Subrouter()

	// Uploads and jobs
	api.HandleFunc("/games", jh.UploadGame).Methods("POST")
	api.HandleFunc("/games/{gameKey}/reprocess", jh.ReprocessGame).Methods("POST")
	api.HandleFunc("/jobs/status", jh.JobStatus).Methods("GET")
	api.HandleFunc("/jobs/{jobID}", jh.GetJob).Methods("GET")

	// Games
	api.HandleFunc("/games/{gameKey}", h.GetGame).Methods("GET")

	// Teams
	api.HandleFunc("/teams/{team}/players", h.GetTeamPlayers).Methods("GET")
	api.HandleFunc("/teams/{team}/seasons/{season:[0-9]+}", h.GetTeamSeason).Methods("GET")

	// Players
	api.HandleFunc("/players/{team}/{jersey:[0-9]+}", h.GetPlayer).Methods("GET")
	api.HandleFunc("/players/{team}/{jersey:[0-9]+}/seasons/{season:[0-9]+}", h.GetPlayerSeason).Methods("GET")
	api.HandleFunc("/players/{team}/{jersey:[0-9]+}/games/{gameKey}", h.GetPlayerGame).Methods("GET")

	// Admin
	api.HandleFunc("/admin/players/{team}/{jersey:[0-9]+}", h.ResetPlayer).Methods("DELETE")

	// CORS wraps the router so preflight requests are answered before
	// method matching.
	return cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	})(router)
}

// NewServer creates a new REST API server
func NewServer(port string, handler http.Handler, log *logrus.Entry) *Server {
	return &Server{
		log: log,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%s", port),
			Handler: handler,
		},
	}
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.log.WithField("addr", s.server.Addr).Info("rest server listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
