package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// UploadSessionStatus represents the status of an upload session
type UploadSessionStatus string

const (
	UploadSessionStatusPending   UploadSessionStatus = "PENDING"
	UploadSessionStatusUploading UploadSessionStatus = "UPLOADING"
	UploadSessionStatusCompleted UploadSessionStatus = "COMPLETED"
	UploadSessionStatusFailed    UploadSessionStatus = "FAILED"
	UploadSessionStatusExpired   UploadSessionStatus = "EXPIRED"
	UploadSessionStatusCancelled UploadSessionStatus = "CANCELLED"
)

// IsTerminal reports whether no further transition is possible
func (s UploadSessionStatus) IsTerminal() bool {
	switch s {
	case UploadSessionStatusCompleted, UploadSessionStatusFailed, UploadSessionStatusExpired, UploadSessionStatusCancelled:
		return true
	default:
		return false
	}
}

// IsActive reports whether the session still accepts uploads
func (s UploadSessionStatus) IsActive() bool {
	return s == UploadSessionStatusPending || s == UploadSessionStatusUploading
}

// UploadType represents how the object is sent to storage
type UploadType string

const (
	UploadTypeSingle    UploadType = "SINGLE"
	UploadTypeMultipart UploadType = "MULTIPART"
)

// UploadSession represents one upload attempt. It is never deleted.
type UploadSession struct {
	ID             uuid.UUID
	IdempotencyKey string
	TenantID       string
	UploaderID     string
	FileName       string
	FileSizeBytes  int64
	ContentType    string
	Checksum       *Checksum
	StorageKey     string
	UploadType     UploadType
	Status         UploadSessionStatus
	ExpiresAt      time.Time
	FileAssetID    *uuid.UUID
	FailureReason  string
	CompletedAt    *time.Time
	EndedAt        *time.Time
	Version        int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewUploadSession creates a PENDING session
func NewUploadSession(id uuid.UUID, tenantID, uploaderID, fileName string, sizeBytes int64, contentType string, checksum *Checksum, storageKey string, uploadType UploadType, expiresAt time.Time, now time.Time) *UploadSession {
	return &UploadSession{
		ID:            id,
		TenantID:      tenantID,
		UploaderID:    uploaderID,
		FileName:      fileName,
		FileSizeBytes: sizeBytes,
		ContentType:   contentType,
		Checksum:      checksum,
		StorageKey:    storageKey,
		UploadType:    uploadType,
		Status:        UploadSessionStatusPending,
		ExpiresAt:     expiresAt,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// IsMultipart reports whether the session uploads in parts
func (s *UploadSession) IsMultipart() bool {
	return s.UploadType == UploadTypeMultipart
}

// IsExpiredAt reports whether the deadline passed at now
func (s *UploadSession) IsExpiredAt(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

func (s *UploadSession) invalidTransition(to UploadSessionStatus) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidStateTransition, s.Status, to)
}

// StartUploading moves a PENDING session to UPLOADING
func (s *UploadSession) StartUploading(now time.Time) error {
	switch s.Status {
	case UploadSessionStatusUploading:
		return nil
	case UploadSessionStatusPending:
		s.Status = UploadSessionStatusUploading
		s.UpdatedAt = now
		return nil
	default:
		return s.invalidTransition(UploadSessionStatusUploading)
	}
}

// Complete records the created file asset. Completing again with the same asset is a no-op.
func (s *UploadSession) Complete(fileAssetID uuid.UUID, now time.Time) error {
	switch s.Status {
	case UploadSessionStatusCompleted:
		if s.FileAssetID != nil && *s.FileAssetID == fileAssetID {
			return nil
		}
		return s.invalidTransition(UploadSessionStatusCompleted)
	case UploadSessionStatusPending, UploadSessionStatusUploading:
		id := fileAssetID
		s.FileAssetID = &id
		s.Status = UploadSessionStatusCompleted
		s.CompletedAt = &now
		s.EndedAt = &now
		s.UpdatedAt = now
		return nil
	default:
		return s.invalidTransition(UploadSessionStatusCompleted)
	}
}

// CanConfirm checks that the client confirmation path may run
func (s *UploadSession) CanConfirm() error {
	if s.Status != UploadSessionStatusPending {
		return fmt.Errorf("%w: confirm requires %s, got %s", ErrInvalidStateTransition, UploadSessionStatusPending, s.Status)
	}
	return nil
}

// ConfirmUpload completes a session from the client confirmation path
func (s *UploadSession) ConfirmUpload(fileAssetID uuid.UUID, now time.Time) error {
	if s.Status == UploadSessionStatusCompleted {
		return s.Complete(fileAssetID, now)
	}
	if err := s.CanConfirm(); err != nil {
		return err
	}
	return s.Complete(fileAssetID, now)
}

// Fail marks the session as FAILED. No-op on terminal sessions.
func (s *UploadSession) Fail(reason string, now time.Time) bool {
	if s.Status.IsTerminal() {
		return false
	}
	s.Status = UploadSessionStatusFailed
	s.FailureReason = reason
	s.EndedAt = &now
	s.UpdatedAt = now
	return true
}

// Expire marks the session as EXPIRED. No-op on terminal sessions.
func (s *UploadSession) Expire(now time.Time) bool {
	if s.Status.IsTerminal() {
		return false
	}
	s.Status = UploadSessionStatusExpired
	s.FailureReason = "session expired"
	s.EndedAt = &now
	s.UpdatedAt = now
	return true
}

// Cancel marks a PENDING session as CANCELLED. Returns false on terminal sessions.
func (s *UploadSession) Cancel(now time.Time) (bool, error) {
	if s.Status.IsTerminal() {
		return false, nil
	}
	if s.Status != UploadSessionStatusPending {
		return false, s.invalidTransition(UploadSessionStatusCancelled)
	}
	s.Status = UploadSessionStatusCancelled
	s.FailureReason = "cancelled by client"
	s.EndedAt = &now
	s.UpdatedAt = now
	return true, nil
}
