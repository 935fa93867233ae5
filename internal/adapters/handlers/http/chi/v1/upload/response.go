package upload

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ryu-qqq/FileFlow-sub002/internal/adapters/handlers/http/chi/auth"
	"github.com/ryu-qqq/FileFlow-sub002/internal/core/domain"
	"github.com/ryu-qqq/FileFlow-sub002/internal/core/port"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// V1Checksum is a declared checksum
type V1Checksum struct {
	Algorithm string `json:"algorithm"`
	Value     string `json:"value"`
}

// V1Grant is a pre-signed request the client sends to storage as is
type V1Grant struct {
	URL       string            `json:"url"`
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers"`
	ExpiresAt time.Time         `json:"expires_at"`
}

// V1Part is the byte range of one part
type V1Part struct {
	PartNumber int   `json:"part_number"`
	StartByte  int64 `json:"start_byte"`
	EndByte    int64 `json:"end_byte"`
	SizeBytes  int64 `json:"size_bytes"`
}

type V1Session struct {
	ID            uuid.UUID   `json:"id"`
	Status        string      `json:"status"`
	UploadType    string      `json:"upload_type"`
	FileName      string      `json:"file_name"`
	FileSizeBytes int64       `json:"file_size_bytes"`
	ContentType   string      `json:"content_type"`
	Checksum      *V1Checksum `json:"checksum,omitempty"`
	StorageKey    string      `json:"storage_key"`
	ExpiresAt     time.Time   `json:"expires_at"`
	FileAssetID   *uuid.UUID  `json:"file_asset_id,omitempty"`
	FailureReason string      `json:"failure_reason,omitempty"`
	CompletedAt   *time.Time  `json:"completed_at,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
}

// V1StatusResponse is the status view of a session
type V1StatusResponse struct {
	Session             V1Session `json:"session"`
	TotalParts          int       `json:"total_parts"`
	UploadedParts       int       `json:"uploaded_parts"`
	UploadedPartNumbers []int     `json:"uploaded_part_numbers,omitempty"`
	Progress            int       `json:"progress"`
}

// V1CompletionResponse is the outcome of complete and confirm
type V1CompletionResponse struct {
	SessionID        uuid.UUID `json:"session_id"`
	FileAssetID      uuid.UUID `json:"file_asset_id"`
	Status           string    `json:"status"`
	ETag             string    `json:"etag"`
	AlreadyCompleted bool      `json:"already_completed"`
}

func toV1Grant(grant *domain.PresignedGrant) *V1Grant {
	if grant == nil {
		return nil
	}
	return &V1Grant{URL: grant.URL, Method: grant.Method, Headers: grant.Headers, ExpiresAt: grant.ExpiresAt}
}

func toV1Part(part domain.PartSpec) V1Part {
	return V1Part{PartNumber: part.PartNumber, StartByte: part.StartByte, EndByte: part.EndByte, SizeBytes: part.SizeBytes}
}

func toV1Session(session *domain.UploadSession) V1Session {
	resp := V1Session{
		ID:            session.ID,
		Status:        string(session.Status),
		UploadType:    string(session.UploadType),
		FileName:      session.FileName,
		FileSizeBytes: session.FileSizeBytes,
		ContentType:   session.ContentType,
		StorageKey:    session.StorageKey,
		ExpiresAt:     session.ExpiresAt,
		FileAssetID:   session.FileAssetID,
		FailureReason: session.FailureReason,
		CompletedAt:   session.CompletedAt,
		CreatedAt:     session.CreatedAt,
	}
	if session.Checksum != nil {
		resp.Checksum = &V1Checksum{Algorithm: string(session.Checksum.Algorithm), Value: session.Checksum.Value}
	}
	return resp
}

func toV1Status(status *port.SessionStatus) V1StatusResponse {
	return V1StatusResponse{
		Session:             toV1Session(status.Session),
		TotalParts:          status.TotalParts,
		UploadedParts:       status.UploadedParts,
		UploadedPartNumbers: status.UploadedPartNumbers,
		Progress:            status.Progress,
	}
}

func toV1Completion(result *port.CompletionResult) V1CompletionResponse {
	return V1CompletionResponse{
		SessionID:        result.SessionID,
		FileAssetID:      result.FileAssetID,
		Status:           string(result.Status),
		ETag:             result.ETag,
		AlreadyCompleted: result.AlreadyCompleted,
	}
}

func (h *HandlerV1) writeJSON(w http.ResponseWriter, status int, resp any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("error encoding response", "error", err)
	}
}

// identity returns the caller tenant, or writes a 401
func identity(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
	}
	return id, ok
}

func sessionIDParam(r *http.Request) (uuid.UUID, error) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		return uuid.Nil, fmt.Errorf("session id is required")
	}
	return uuid.Parse(sessionID)
}

func partNumberParam(r *http.Request) (int, error) {
	partNumber, err := strconv.Atoi(chi.URLParam(r, "partNumber"))
	if err != nil {
		return 0, fmt.Errorf("invalid part number: %w", err)
	}
	return partNumber, nil
}
