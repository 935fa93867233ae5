package storageevent

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/ryu-qqq/FileFlow-sub002/internal/core/domain"

	"github.com/google/uuid"
)

// ParseNotification reduces a bucket notification to its object created records
func ParseNotification(data []byte) ([]domain.ObjectCreatedEvent, error) {
	var notification domain.StorageNotification
	if err := json.Unmarshal(data, &notification); err != nil {
		return nil, fmt.Errorf("could not unmarshal storage notification: %w", err)
	}

	events := make([]domain.ObjectCreatedEvent, 0, len(notification.Records))
	for _, record := range notification.Records {
		eventType := eventTypeOf(record.EventName)
		if eventType == domain.StorageEventUnknown {
			continue
		}

		key, err := url.QueryUnescape(record.S3.Object.Key)
		if err != nil {
			return nil, fmt.Errorf("invalid object key %q: %w", record.S3.Object.Key, err)
		}

		events = append(events, domain.ObjectCreatedEvent{
			EventName:  record.EventName,
			EventType:  eventType,
			BucketName: record.S3.Bucket.Name,
			ObjectKey:  key,
			ObjectSize: record.S3.Object.Size,
			ObjectETag: record.S3.Object.ETag,
		})
	}
	return events, nil
}

func eventTypeOf(eventName string) domain.StorageEventType {
	name := strings.TrimPrefix(eventName, "s3:")
	switch {
	case name == "ObjectCreated:CompleteMultipartUpload":
		return domain.StorageEventMultipartCompleted
	case strings.HasPrefix(name, "ObjectCreated:"):
		return domain.StorageEventObjectCreated
	default:
		return domain.StorageEventUnknown
	}
}

// SessionIDFromKey returns the session id stored as the last segment of an object key
func SessionIDFromKey(key string) (uuid.UUID, error) {
	id := key
	if index := strings.LastIndex(key, "/"); index != -1 {
		id = key[index+1:]
	}
	return uuid.Parse(id)
}
