package domain

import (
	"time"

	"github.com/google/uuid"
)

// FileAsset is the durable record of a file whose upload completed
type FileAsset struct {
	ID          uuid.UUID
	SessionID   uuid.UUID
	TenantID    string
	UploaderID  string
	FileName    string
	ContentType string
	SizeBytes   int64
	StorageKey  string
	ETag        string
	Checksum    *Checksum
	CreatedAt   time.Time
}

// NewFileAsset builds the file record of a session from what storage reported
func NewFileAsset(id uuid.UUID, session *UploadSession, object ObjectMetadata, now time.Time) FileAsset {
	contentType := object.ContentType
	if contentType == "" {
		contentType = session.ContentType
	}
	return FileAsset{
		ID:          id,
		SessionID:   session.ID,
		TenantID:    session.TenantID,
		UploaderID:  session.UploaderID,
		FileName:    session.FileName,
		ContentType: contentType,
		SizeBytes:   object.ContentLength,
		StorageKey:  session.StorageKey,
		ETag:        NormalizeETag(object.ETag),
		Checksum:    session.Checksum,
		CreatedAt:   now,
	}
}
