package chi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/ryu-qqq/FileFlow-sub002/internal/adapters/handlers/http/chi/auth"
	"github.com/ryu-qqq/FileFlow-sub002/internal/adapters/handlers/http/chi/v1/upload"
	"github.com/ryu-qqq/FileFlow-sub002/internal/config"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter mounts the upload api behind bearer auth. /health stays public.
func NewRouter(logger *slog.Logger, uploadHandler *upload.HandlerV1, authCfg config.AuthConfig, env string) http.Handler {
	r := chi.NewRouter()

	// X-Request-ID is reused when present
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggerMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.RequestSize(1 << 20)) // json only, file bytes go to storage

	if env != "prod" {
		r.Use(cors.Handler(devCORS()))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.RequireAuth(authCfg.JWTSecret, authCfg.Issuer, logger))
		r.Mount("/upload", uploadHandler.Routes())
	})

	r.Get("/health", health(env, time.Now()))

	return r
}

func devCORS() cors.Options {
	return cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Env       string    `json:"env"`
	Uptime    string    `json:"uptime"`
	Timestamp time.Time `json:"timestamp"`
}

func health(env string, startedAt time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(HealthResponse{
			Status:    "ok",
			Env:       env,
			Uptime:    now.Sub(startedAt).Round(time.Second).String(),
			Timestamp: now,
		})
	}
}
