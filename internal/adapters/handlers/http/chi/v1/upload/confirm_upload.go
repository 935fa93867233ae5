package upload

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// V1ConfirmUploadRequest optionally carries the etag storage returned to the client
type V1ConfirmUploadRequest struct {
	ETag string `json:"etag"`
}

func (h *HandlerV1) ConfirmUploadV1(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	sessionID, err := sessionIDParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req V1ConfirmUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Error("error decoding confirm upload request", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.uploadService.ConfirmUpload(r.Context(), id.TenantID, sessionID, req.ETag)
	if err != nil {
		h.writeError(w, r, "error confirming upload", err)
		return
	}
	h.writeJSON(w, http.StatusOK, toV1Completion(result))
}
