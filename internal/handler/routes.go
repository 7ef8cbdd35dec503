package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/dmorgan81/imagestudio/internal/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

func (h *Handler) Routes(ctx context.Context) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log.FromContextOrDiscard(ctx)))
	r.Use(recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: h.config.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         86400,
	}).Handler)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, &statusError{http.StatusNotFound, msgNotFound})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, &statusError{http.StatusMethodNotAllowed, msgMethod})
	})

	r.Get("/healthz", wrap(h.health))
	r.Get("/feed.xml", h.serveFeed)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RequestSize(maxBodyBytes))
		if h.config.RateLimit > 0 {
			r.Use(rateLimiter(h.config.RateLimit))
		}
		r.Post("/generate-image", wrap(h.generateImage))
		r.Post("/share", wrap(h.shareImage))
		r.Get("/prompts/random", wrap(h.randomPrompt))
	})

	// Shared images live in a local directory when no bucket is configured.
	if h.config.Share.Enabled() && h.config.Share.Bucket == "" {
		files := http.FileServer(http.Dir(h.config.Share.Dir))
		r.Get("/{name}", func(w http.ResponseWriter, r *http.Request) {
			name := chi.URLParam(r, "name")
			if !strings.HasSuffix(name, ".png") && !strings.HasSuffix(name, ".html") {
				writeError(w, r, &statusError{http.StatusNotFound, msgNotFound})
				return
			}
			files.ServeHTTP(w, r)
		})
	}

	return r
}
