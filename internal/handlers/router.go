package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

// Router wires the endpoints and serves stored uploads and outputs under
// UploadsPrefix and OutputsPrefix.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.Health)
	r.Post("/process", h.Process)
	r.Get("/api/gallery", h.Gallery)
	r.Handle("/metrics", promhttp.Handler())
	r.Handle(UploadsPrefix+"*", http.StripPrefix(UploadsPrefix, http.FileServer(http.Dir(h.uploadDir))))
	r.Handle(OutputsPrefix+"*", http.StripPrefix(OutputsPrefix, http.FileServer(http.Dir(h.outputDir))))

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(r)
}
