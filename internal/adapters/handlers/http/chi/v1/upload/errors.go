package upload

import (
	"errors"
	"net/http"

	"github.com/ryu-qqq/FileFlow-sub002/internal/core/domain"
)

// StatusOf maps a service error to its http status
func StatusOf(err error) int {
	if errors.Is(err, domain.ErrRateLimitExceeded) {
		return http.StatusTooManyRequests
	}

	switch domain.KindOf(err) {
	case domain.KindValidation, domain.KindCapacity:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindInvalidState:
		return http.StatusConflict
	case domain.KindIntegrity:
		return http.StatusUnprocessableEntity
	case domain.KindDependency:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *HandlerV1) writeError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status := StatusOf(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(msg, "error", err, "path", r.URL.Path)
		http.Error(w, http.StatusText(status), status)
		return
	}

	h.logger.Warn(msg, "error", err, "status", status)
	http.Error(w, err.Error(), status)
}
