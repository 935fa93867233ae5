package upload

import (
	"log/slog"

	"github.com/ryu-qqq/FileFlow-sub002/internal/core/port"

	"github.com/go-chi/chi/v5"
)

// HandlerV1 is the handler for v1 upload routes
type HandlerV1 struct {
	uploadService port.UploadService
	logger        *slog.Logger
}

// NewUploadHandlerV1 creates HandlerV1
func NewUploadHandlerV1(service port.UploadService, logger *slog.Logger) *HandlerV1 {
	return &HandlerV1{
		uploadService: service,
		logger:        logger,
	}
}

// Routes exposes handler routes
func (h *HandlerV1) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/sessions", h.CreateSessionV1)
	router.Get("/sessions/{sessionID}", h.GetStatusV1)
	router.Delete("/sessions/{sessionID}", h.CancelSessionV1)
	router.Post("/sessions/{sessionID}/parts/{partNumber}/url", h.GeneratePartURLV1)
	router.Put("/sessions/{sessionID}/parts/{partNumber}", h.MarkPartCompleteV1)
	router.Post("/sessions/{sessionID}/complete", h.CompleteMultipartV1)
	router.Post("/sessions/{sessionID}/confirm", h.ConfirmUploadV1)

	return router
}
