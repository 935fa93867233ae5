package upload

import (
	"fmt"
	"mime"
	"net/url"
	"strings"

	"github.com/ryu-qqq/FileFlow-sub002/internal/core/domain"
	"github.com/ryu-qqq/FileFlow-sub002/internal/core/port"

	"github.com/cespare/xxhash/v2"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

func (s *uploadService) validateCommand(cmd port.CreateSessionCommand) (string, error) {
	if strings.TrimSpace(cmd.TenantID) == "" {
		return "", fmt.Errorf("%w: tenant is required", domain.ErrInvalidArgument)
	}
	if strings.TrimSpace(cmd.FileName) == "" {
		return "", domain.ErrInvalidFileName
	}
	if cmd.FileSizeBytes <= 0 {
		return "", fmt.Errorf("%w: %d", domain.ErrInvalidFileSize, cmd.FileSizeBytes)
	}
	if cmd.FileSizeBytes > s.cfg.MaxFileSize {
		return "", fmt.Errorf("%w: %d bytes, maximum %d", domain.ErrFileSizeTooBig, cmd.FileSizeBytes, s.cfg.MaxFileSize)
	}
	if cmd.Checksum != nil {
		if _, err := domain.NewChecksum(string(cmd.Checksum.Algorithm), cmd.Checksum.Value); err != nil {
			return "", err
		}
	}
	return normalizeContentType(cmd.ContentType)
}

// normalizeContentType parses the declared content type and checks it against the known MIME registry
func normalizeContentType(contentType string) (string, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidContentType, contentType)
	}
	if mimetype.Lookup(mediaType) == nil {
		return "", fmt.Errorf("%w: unknown type %s", domain.ErrInvalidContentType, mediaType)
	}
	return mediaType, nil
}

// storageKey spreads the objects of a tenant over 256 prefixes. The last segment is the session id.
func storageKey(tenantID string, sessionID uuid.UUID) string {
	shard := xxhash.Sum64String(sessionID.String()) & 0xff
	return fmt.Sprintf("uploads/%s/%02x/%s", url.PathEscape(tenantID), shard, sessionID)
}

func (s *uploadService) uploadTypeFor(sizeBytes int64) domain.UploadType {
	if sizeBytes >= s.cfg.MultipartThreshold {
		return domain.UploadTypeMultipart
	}
	return domain.UploadTypeSingle
}
