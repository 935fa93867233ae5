package upload

import (
	"encoding/json"
	"net/http"

	"github.com/ryu-qqq/FileFlow-sub002/internal/core/domain"
)

// V1MarkPartRequest reports a part stored by the provider
type V1MarkPartRequest struct {
	ETag      string `json:"etag"`
	SizeBytes int64  `json:"size_bytes"`
}

func (h *HandlerV1) MarkPartCompleteV1(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	sessionID, err := sessionIDParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	partNumber, err := partNumberParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req V1MarkPartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("error decoding mark part request", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.ETag == "" {
		http.Error(w, "etag is required", http.StatusBadRequest)
		return
	}

	status, err := h.uploadService.MarkPartComplete(r.Context(), id.TenantID, sessionID, domain.UploadedPart{
		PartNumber: partNumber,
		ETag:       req.ETag,
		SizeBytes:  req.SizeBytes,
	})
	if err != nil {
		h.writeError(w, r, "error marking part complete", err)
		return
	}
	h.writeJSON(w, http.StatusOK, toV1Status(status))
}
