package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// PresignedGrant is a time limited capability to perform one storage operation
type PresignedGrant struct {
	URL       string
	Method    string
	Headers   map[string]string
	ExpiresAt time.Time
}

// ObjectMetadata is what storage reports about a stored object
type ObjectMetadata struct {
	Key           string
	ETag          string
	ContentLength int64
	ContentType   string
	Checksum      *Checksum
	UserMetadata  map[string]string
}

// CompletedObject is the result of a completed multipart upload
type CompletedObject struct {
	ETag     string
	Location string
}

// User metadata keys written on stored objects
const (
	MetadataSessionID         = "session-id"
	MetadataTenantID          = "tenant-id"
	MetadataChecksumAlgorithm = "checksum-algorithm"
	MetadataChecksumValue     = "checksum-value"
)

// ObjectUserMetadata is the user metadata attached to the object of a session.
// The declared checksum travels with the object so that storage reports it back on HEAD.
func ObjectUserMetadata(sessionID uuid.UUID, tenantID string, checksum *Checksum) map[string]string {
	metadata := map[string]string{
		MetadataSessionID: sessionID.String(),
		MetadataTenantID:  tenantID,
	}
	if checksum != nil {
		metadata[MetadataChecksumAlgorithm] = string(checksum.Algorithm)
		metadata[MetadataChecksumValue] = checksum.Value
	}
	return metadata
}

// ChecksumFromUserMetadata reads back the checksum written by ObjectUserMetadata.
// Providers differ in key casing, so keys are matched case-insensitively.
func ChecksumFromUserMetadata(metadata map[string]string) *Checksum {
	var algorithm, value string
	for k, v := range metadata {
		switch strings.TrimPrefix(strings.ToLower(k), "x-amz-meta-") {
		case MetadataChecksumAlgorithm:
			algorithm = v
		case MetadataChecksumValue:
			value = v
		}
	}
	if algorithm == "" || value == "" {
		return nil
	}
	return &Checksum{Algorithm: ChecksumAlgorithm(strings.ToUpper(algorithm)), Value: value}
}
