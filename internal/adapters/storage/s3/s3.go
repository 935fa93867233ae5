package s3

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ryu-qqq/FileFlow-sub002/internal/config"
	"github.com/ryu-qqq/FileFlow-sub002/internal/core/domain"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// Adapter is an adapter for AWS S3 and S3 compatible stores
type Adapter struct {
	client    *s3.Client
	presigner *s3.PresignClient
	config    config.S3Config
	logger    *slog.Logger
}

// NewAdapter builds the S3 client from the default AWS credential chain
func NewAdapter(ctx context.Context, cfg config.S3Config, logger *slog.Logger) (*Adapter, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
		// presigned grants are replayed by clients that do not compute flexible checksums
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
	})
	return NewAdapterWithClient(client, cfg, logger), nil
}

// NewAdapterWithClient returns an Adapter using an already configured client
func NewAdapterWithClient(client *s3.Client, cfg config.S3Config, logger *slog.Logger) *Adapter {
	return &Adapter{
		client:    client,
		presigner: s3.NewPresignClient(client),
		config:    cfg,
		logger:    logger,
	}
}

func (a *Adapter) GeneratePresignedUploadURL(ctx context.Context, key string, contentType string, checksum *domain.Checksum) (*domain.PresignedGrant, error) {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(a.config.BucketName),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}
	if checksum != nil {
		input.Metadata = map[string]string{
			domain.MetadataChecksumAlgorithm: string(checksum.Algorithm),
			domain.MetadataChecksumValue:     checksum.Value,
		}
	}

	presigned, err := a.presigner.PresignPutObject(ctx, input, s3.WithPresignExpires(a.config.PresignedDuration))
	if err != nil {
		return nil, domain.NewDependencyError("presign upload", err)
	}

	return &domain.PresignedGrant{
		URL:       presigned.URL,
		Method:    presigned.Method,
		Headers:   signedHeaders(presigned.SignedHeader),
		ExpiresAt: time.Now().Add(a.config.PresignedDuration),
	}, nil
}

func (a *Adapter) InitiateMultipartUpload(ctx context.Context, key string, contentType string, metadata map[string]string) (string, error) {
	out, err := a.client.CreateMultipartUpload(ctx, &s3.CreateMultipartUploadInput{
		Bucket:      aws.String(a.config.BucketName),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
		Metadata:    metadata,
	})
	if err != nil {
		return "", domain.NewDependencyError("initiate multipart upload", err)
	}
	return aws.ToString(out.UploadId), nil
}

func (a *Adapter) GeneratePresignedPartURL(ctx context.Context, key string, uploadID string, partNumber int) (*domain.PresignedGrant, error) {
	presigned, err := a.presigner.PresignUploadPart(ctx, &s3.UploadPartInput{
		Bucket:     aws.String(a.config.BucketName),
		Key:        aws.String(key),
		UploadId:   aws.String(uploadID),
		PartNumber: aws.Int32(int32(partNumber)),
	}, s3.WithPresignExpires(a.config.PresignedDuration))
	if err != nil {
		return nil, domain.NewDependencyError("presign part", err)
	}

	return &domain.PresignedGrant{
		URL:       presigned.URL,
		Method:    presigned.Method,
		Headers:   signedHeaders(presigned.SignedHeader),
		ExpiresAt: time.Now().Add(a.config.PresignedDuration),
	}, nil
}

func (a *Adapter) CompleteMultipartUpload(ctx context.Context, key string, uploadID string, parts []domain.UploadedPart) (*domain.CompletedObject, error) {
	completedParts := make([]types.CompletedPart, 0, len(parts))
	for _, part := range parts {
		completedParts = append(completedParts, types.CompletedPart{
			ETag:       aws.String(domain.NormalizeETag(part.ETag)),
			PartNumber: aws.Int32(int32(part.PartNumber)),
		})
	}

	out, err := a.client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:   aws.String(a.config.BucketName),
		Key:      aws.String(key),
		UploadId: aws.String(uploadID),
		MultipartUpload: &types.CompletedMultipartUpload{
			Parts: completedParts,
		},
	})
	if err != nil {
		return nil, mapError("complete multipart upload", err)
	}

	return &domain.CompletedObject{ETag: aws.ToString(out.ETag), Location: aws.ToString(out.Location)}, nil
}

func (a *Adapter) HeadObject(ctx context.Context, key string) (*domain.ObjectMetadata, error) {
	out, err := a.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(a.config.BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, mapError("head object", err)
	}

	return &domain.ObjectMetadata{
		Key:           key,
		ETag:          aws.ToString(out.ETag),
		ContentLength: aws.ToInt64(out.ContentLength),
		ContentType:   aws.ToString(out.ContentType),
		Checksum:      domain.ChecksumFromUserMetadata(out.Metadata),
		UserMetadata:  out.Metadata,
	}, nil
}

func (a *Adapter) AbortMultipartUpload(ctx context.Context, key string, uploadID string) error {
	_, err := a.client.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(a.config.BucketName),
		Key:      aws.String(key),
		UploadId: aws.String(uploadID),
	})
	if err != nil {
		return mapError("abort multipart upload", err)
	}

	a.logger.Info("multipart upload aborted", "key", key, "upload_id", uploadID)
	return nil
}

// mapError turns S3 not found codes into domain errors
func mapError(op string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return fmt.Errorf("%s: %w", op, domain.ErrFileNotFoundInStorage)
		case "NoSuchUpload":
			return fmt.Errorf("%s: %w", op, domain.ErrMultipartNotFound)
		}
	}
	return domain.NewDependencyError(op, err)
}

// signedHeaders returns the headers a client must replay, without the host header set by its http client
func signedHeaders(headers http.Header) map[string]string {
	result := make(map[string]string, len(headers))
	for key, values := range headers {
		if http.CanonicalHeaderKey(key) == "Host" || len(values) == 0 {
			continue
		}
		result[key] = values[0]
	}
	return result
}
