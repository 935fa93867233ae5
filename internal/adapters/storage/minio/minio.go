package minio

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ryu-qqq/FileFlow-sub002/internal/config"
	"github.com/ryu-qqq/FileFlow-sub002/internal/core/domain"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Adapter is an adapter for minio
type Adapter struct {
	client *minio.Client
	core   *minio.Core
	config config.MinioConfig
	logger *slog.Logger
}

// NewAdapter returns Adapter. The bucket is created if missing.
func NewAdapter(ctx context.Context, cfg config.MinioConfig, logger *slog.Logger) (*Adapter, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check if bucket exists: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	core := minio.Core{Client: client}
	return &Adapter{client: client, config: cfg, core: &core, logger: logger}, nil
}

// GeneratePresignedUploadURL signs a single PUT. The returned headers are signed and must be sent as is.
func (a *Adapter) GeneratePresignedUploadURL(ctx context.Context, key string, contentType string, checksum *domain.Checksum) (*domain.PresignedGrant, error) {
	requestHeaders := make(http.Header)
	requestHeaders.Set("Content-Type", contentType)
	if checksum != nil {
		requestHeaders.Set("X-Amz-Meta-"+domain.MetadataChecksumAlgorithm, string(checksum.Algorithm))
		requestHeaders.Set("X-Amz-Meta-"+domain.MetadataChecksumValue, checksum.Value)
	}

	presignedURL, err := a.client.PresignHeader(ctx, http.MethodPut, a.config.BucketName, key, a.config.SimplePresignedDuration, nil, requestHeaders)
	if err != nil {
		return nil, domain.NewDependencyError("presign upload", err)
	}

	return &domain.PresignedGrant{
		URL:       presignedURL.String(),
		Method:    http.MethodPut,
		Headers:   headerToMap(requestHeaders),
		ExpiresAt: time.Now().Add(a.config.SimplePresignedDuration),
	}, nil
}

// InitiateMultipartUpload inits a multi part upload
func (a *Adapter) InitiateMultipartUpload(ctx context.Context, key string, contentType string, metadata map[string]string) (string, error) {
	opts := minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: metadata,
	}
	uploadID, err := a.core.NewMultipartUpload(ctx, a.config.BucketName, key, opts)
	if err != nil {
		return "", domain.NewDependencyError("initiate multipart upload", err)
	}
	return uploadID, nil
}

// GeneratePresignedPartURL generates presigned url for a part
func (a *Adapter) GeneratePresignedPartURL(ctx context.Context, key string, uploadID string, partNumber int) (*domain.PresignedGrant, error) {
	reqParams := make(url.Values)
	reqParams.Set("partNumber", strconv.Itoa(partNumber))
	reqParams.Set("uploadId", uploadID)

	presignedURL, err := a.core.PresignHeader(ctx, http.MethodPut, a.config.BucketName, key, a.config.MultiPartPresignedDuration, reqParams, nil)
	if err != nil {
		return nil, domain.NewDependencyError("presign part", err)
	}

	return &domain.PresignedGrant{
		URL:       presignedURL.String(),
		Method:    http.MethodPut,
		Headers:   map[string]string{},
		ExpiresAt: time.Now().Add(a.config.MultiPartPresignedDuration),
	}, nil
}

// CompleteMultipartUpload assembles the uploaded parts. parts must be sorted by part number.
func (a *Adapter) CompleteMultipartUpload(ctx context.Context, key string, uploadID string, parts []domain.UploadedPart) (*domain.CompletedObject, error) {
	completeParts := make([]minio.CompletePart, 0, len(parts))
	for _, part := range parts {
		completeParts = append(completeParts, minio.CompletePart{
			PartNumber: part.PartNumber,
			ETag:       domain.NormalizeETag(part.ETag),
		})
	}

	info, err := a.core.CompleteMultipartUpload(ctx, a.config.BucketName, key, uploadID, completeParts, minio.PutObjectOptions{})
	if err != nil {
		return nil, mapError("complete multipart upload", err)
	}

	return &domain.CompletedObject{ETag: info.ETag, Location: info.Location}, nil
}

// HeadObject reports the stored object, with the checksum declared at upload time
func (a *Adapter) HeadObject(ctx context.Context, key string) (*domain.ObjectMetadata, error) {
	info, err := a.client.StatObject(ctx, a.config.BucketName, key, minio.StatObjectOptions{})
	if err != nil {
		return nil, mapError("head object", err)
	}

	return &domain.ObjectMetadata{
		Key:           key,
		ETag:          info.ETag,
		ContentLength: info.Size,
		ContentType:   info.ContentType,
		Checksum:      domain.ChecksumFromUserMetadata(info.UserMetadata),
		UserMetadata:  info.UserMetadata,
	}, nil
}

func (a *Adapter) AbortMultipartUpload(ctx context.Context, key string, uploadID string) error {
	err := a.core.AbortMultipartUpload(ctx, a.config.BucketName, key, uploadID)
	if err != nil {
		return mapError("abort multipart upload", err)
	}

	a.logger.Info("multipart upload aborted",
		slog.String("key", key),
		slog.String("uploadID", uploadID))

	return nil
}

// mapError turns minio not found codes into domain errors
func mapError(op string, err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey":
		return fmt.Errorf("%s: %w", op, domain.ErrFileNotFoundInStorage)
	case "NoSuchUpload":
		return fmt.Errorf("%s: %w", op, domain.ErrMultipartNotFound)
	default:
		return domain.NewDependencyError(op, err)
	}
}

func headerToMap(headers http.Header) map[string]string {
	result := make(map[string]string)
	for key, values := range headers {
		if len(values) > 0 {
			result[key] = values[0]
		}
	}
	return result
}
