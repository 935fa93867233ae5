package domain

import (
	"time"

	"github.com/google/uuid"
)

// StorageNotification is an S3 compatible bucket notification, as sent by MinIO and AWS S3
type StorageNotification struct {
	EventName string `json:"EventName"`
	Key       string `json:"Key"`
	Event     string `json:"Event"`
	Records   []struct {
		EventName string `json:"eventName"`
		S3        struct {
			Bucket struct {
				Name string `json:"name"`
			} `json:"bucket"`
			Object struct {
				Key  string `json:"key"`
				Size int64  `json:"size"`
				ETag string `json:"eTag"`
			} `json:"object"`
		} `json:"s3"`
		EventTime string `json:"eventTime"`
	} `json:"Records"`
}

// StorageEventType is the normalized type of a storage notification
type StorageEventType string

const (
	StorageEventObjectCreated      StorageEventType = "ObjectCreated"
	StorageEventMultipartCompleted StorageEventType = "MultipartUploadCompleted"
	StorageEventUnknown            StorageEventType = "Unknown"
)

// ObjectCreatedEvent is a storage notification reduced to what completion needs
type ObjectCreatedEvent struct {
	EventName  string
	EventType  StorageEventType
	BucketName string
	ObjectKey  string
	ObjectSize int64
	ObjectETag string
}

// UploadEventType is the type of an outbound upload event
type UploadEventType string

const (
	UploadEventCompleted UploadEventType = "upload.completed"
	UploadEventFailed    UploadEventType = "upload.failed"
	UploadEventCancelled UploadEventType = "upload.cancelled"
	UploadEventExpired   UploadEventType = "upload.expired"
)

// UploadEvent notifies downstream consumers about a terminal session
type UploadEvent struct {
	Type        UploadEventType `json:"type"`
	SessionID   uuid.UUID       `json:"session_id"`
	TenantID    string          `json:"tenant_id"`
	StorageKey  string          `json:"storage_key"`
	FileAssetID *uuid.UUID      `json:"file_asset_id,omitempty"`
	Reason      string          `json:"reason,omitempty"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

// NewUploadEvent builds the event describing the current state of a session
func NewUploadEvent(eventType UploadEventType, session *UploadSession, now time.Time) UploadEvent {
	return UploadEvent{
		Type:        eventType,
		SessionID:   session.ID,
		TenantID:    session.TenantID,
		StorageKey:  session.StorageKey,
		FileAssetID: session.FileAssetID,
		Reason:      session.FailureReason,
		OccurredAt:  now,
	}
}
