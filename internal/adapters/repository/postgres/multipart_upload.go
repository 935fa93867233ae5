package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ryu-qqq/FileFlow-sub002/internal/core/domain"
	"github.com/ryu-qqq/FileFlow-sub002/internal/core/port"

	"github.com/google/uuid"
)

type sqlMultipartUploadRepository struct {
	db SQLQuerier
}

// NewSQLMultipartUploadRepository creates sqlMultipartUploadRepository that implements port.MultipartUploadRepository
func NewSQLMultipartUploadRepository(db SQLQuerier) port.MultipartUploadRepository {
	return &sqlMultipartUploadRepository{db: db}
}

// Create creates the multipart upload of a session with its already uploaded parts
func (s *sqlMultipartUploadRepository) Create(ctx context.Context, multipart *domain.MultipartUpload) error {
	query := `
		INSERT INTO multipart_upload (session_id, provider_upload_id, total_parts, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := s.db.ExecContext(
		ctx,
		query,
		multipart.SessionID,
		multipart.ProviderUploadID,
		multipart.TotalParts,
		multipart.Status,
		multipart.CreatedAt,
		multipart.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("multipart upload of session %s: %w", multipart.SessionID, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("error inserting multipart upload: %w", err)
	}

	for _, part := range multipart.UploadedParts() {
		if err := s.UpsertPart(ctx, multipart.SessionID, part); err != nil {
			return err
		}
	}
	return nil
}

// FindBySessionID loads a multipart upload, rebuilding its part plan from the declared file size
func (s *sqlMultipartUploadRepository) FindBySessionID(ctx context.Context, sessionID uuid.UUID) (*domain.MultipartUpload, error) {
	query := `
		SELECT m.provider_upload_id, m.total_parts, m.status, m.created_at, m.updated_at, u.file_size_bytes
		FROM multipart_upload m
		JOIN upload_session u ON u.id = m.session_id
		WHERE m.session_id = $1`

	var (
		providerUploadID string
		totalParts       int
		status           string
		createdAt        time.Time
		updatedAt        time.Time
		fileSizeBytes    int64
	)
	err := s.db.QueryRowContext(ctx, query, sessionID).Scan(
		&providerUploadID,
		&totalParts,
		&status,
		&createdAt,
		&updatedAt,
		&fileSizeBytes,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrMultipartNotFound
		}
		return nil, err
	}

	plan, err := domain.PlanParts(fileSizeBytes)
	if err != nil {
		return nil, fmt.Errorf("could not rebuild part plan of session %s: %w", sessionID, err)
	}
	if len(plan) != totalParts {
		return nil, fmt.Errorf("session %s: stored %d parts, planned %d", sessionID, totalParts, len(plan))
	}

	multipart := domain.NewMultipartUpload(sessionID, providerUploadID, plan, createdAt)
	multipart.Status = domain.MultipartStatus(status)
	multipart.UpdatedAt = updatedAt

	parts, err := s.findParts(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	for _, part := range parts {
		multipart.AddPart(part)
	}

	return multipart, nil
}

func (s *sqlMultipartUploadRepository) findParts(ctx context.Context, sessionID uuid.UUID) ([]domain.UploadedPart, error) {
	query := `SELECT part_number, etag, size_bytes FROM multipart_part WHERE session_id = $1 ORDER BY part_number`

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var parts []domain.UploadedPart
	for rows.Next() {
		var part domain.UploadedPart
		if err := rows.Scan(&part.PartNumber, &part.ETag, &part.SizeBytes); err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return parts, nil
}

// UpsertPart records a part. A re-uploaded part overwrites the previous etag.
func (s *sqlMultipartUploadRepository) UpsertPart(ctx context.Context, sessionID uuid.UUID, part domain.UploadedPart) error {
	query := `
		INSERT INTO multipart_part (session_id, part_number, etag, size_bytes, uploaded_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (session_id, part_number)
		DO UPDATE SET etag = EXCLUDED.etag, size_bytes = EXCLUDED.size_bytes, uploaded_at = EXCLUDED.uploaded_at`

	_, err := s.db.ExecContext(ctx, query, sessionID, part.PartNumber, part.ETag, part.SizeBytes)
	if err != nil {
		return fmt.Errorf("error upserting part %d: %w", part.PartNumber, err)
	}
	return nil
}

// UpdateStatus updates status
func (s *sqlMultipartUploadRepository) UpdateStatus(ctx context.Context, sessionID uuid.UUID, status domain.MultipartStatus) error {
	query := `UPDATE multipart_upload SET status = $1, updated_at = now() WHERE session_id = $2`

	result, err := s.db.ExecContext(ctx, query, status, sessionID)
	if err != nil {
		return fmt.Errorf("error updating multipart upload: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking rows affected: %w", err)
	}

	if rows == 0 {
		return domain.ErrMultipartNotFound
	}

	return nil
}
