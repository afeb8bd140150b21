package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Streamer serves live event streams
type Streamer interface {
	ServeHTTP(w http.ResponseWriter, r *http.Request)
	ServeWS(w http.ResponseWriter, r *http.Request)
}

// RouterOptions wires the optional parts of the API
type RouterOptions struct {
	// Hub serves /events and /ws; nil disables streaming
	Hub Streamer
	// Metrics serves /metrics; nil disables it
	Metrics http.Handler
	// CORSOrigins defaults to any origin
	CORSOrigins []string
	Logger      *zap.Logger
}

// NewRouter configures all routes and middleware
func NewRouter(h *APIHandler, opts RouterOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(Logger(logger.Named("http")))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	router.Get("/healthz", h.Healthz)

	router.Route("/api", func(r chi.Router) {
		r.Get("/graph", h.GetGraph)
		r.Get("/graph/export", h.ExportGraph)
		r.Get("/logs", h.GetLogs)
		r.Get("/status", h.GetStatus)
		r.Get("/archive", h.GetArchive)
		r.Post("/commands", h.SendCommand)

		r.Route("/kernel", func(r chi.Router) {
			r.Post("/launch", h.LaunchKernel)
			r.Post("/stop", h.StopKernel)
		})
	})

	if opts.Hub != nil {
		router.Get("/events", opts.Hub.ServeHTTP)
		router.Get("/ws", opts.Hub.ServeWS)
	}
	if opts.Metrics != nil {
		router.Handle("/metrics", opts.Metrics)
	}

	return router
}
