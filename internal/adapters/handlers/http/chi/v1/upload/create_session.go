package upload

import (
	"encoding/json"
	"net/http"

	"github.com/ryu-qqq/FileFlow-sub002/internal/core/domain"
	"github.com/ryu-qqq/FileFlow-sub002/internal/core/port"
)

// V1CreateSessionRequest declares the file about to be uploaded
type V1CreateSessionRequest struct {
	FileName       string      `json:"file_name"`
	FileSizeBytes  int64       `json:"file_size_bytes"`
	ContentType    string      `json:"content_type"`
	Checksum       *V1Checksum `json:"checksum"`
	IdempotencyKey string      `json:"idempotency_key"`
}

// V1CreateSessionResponse holds the session and its upload grants.
// Single uploads get UploadURL, multipart uploads get Parts.
type V1CreateSessionResponse struct {
	Session   V1Session `json:"session"`
	UploadURL *V1Grant  `json:"upload_url,omitempty"`
	Parts     []V1Part  `json:"parts,omitempty"`
	Reused    bool      `json:"reused"`
}

func (h *HandlerV1) CreateSessionV1(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	var req V1CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("error decoding create session request", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.FileName == "" || req.ContentType == "" || req.FileSizeBytes == 0 {
		http.Error(w, "missing param", http.StatusBadRequest)
		return
	}

	var checksum *domain.Checksum
	if req.Checksum != nil {
		var err error
		checksum, err = domain.NewChecksum(req.Checksum.Algorithm, req.Checksum.Value)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	idempotencyKey := req.IdempotencyKey
	if idempotencyKey == "" {
		idempotencyKey = r.Header.Get("Idempotency-Key")
	}

	grant, err := h.uploadService.CreateSession(r.Context(), port.CreateSessionCommand{
		TenantID:       id.TenantID,
		UploaderID:     id.UploaderID,
		FileName:       req.FileName,
		FileSizeBytes:  req.FileSizeBytes,
		ContentType:    req.ContentType,
		Checksum:       checksum,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		h.writeError(w, r, "error creating upload session", err)
		return
	}

	resp := V1CreateSessionResponse{
		Session:   toV1Session(grant.Session),
		UploadURL: toV1Grant(grant.UploadURL),
		Reused:    grant.Reused,
	}
	for _, part := range grant.Parts {
		resp.Parts = append(resp.Parts, toV1Part(part))
	}

	status := http.StatusCreated
	if grant.Reused {
		status = http.StatusOK
	}
	h.writeJSON(w, status, resp)
}
