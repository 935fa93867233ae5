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

const uploadSessionColumns = `
	id, COALESCE(idempotency_key, ''), tenant_id, uploader_id, file_name, file_size_bytes, content_type,
	checksum_algorithm, checksum_value, storage_key, upload_type, status, expires_at, file_asset_id,
	failure_reason, completed_at, ended_at, version, created_at, updated_at`

type sqlUploadSessionRepository struct {
	db SQLQuerier
}

// NewSQLUploadSessionRepository Creates a new sqlUploadSessionRepository
func NewSQLUploadSessionRepository(db SQLQuerier) port.UploadSessionRepository {
	return &sqlUploadSessionRepository{db: db}
}

// Create creates an upload session
func (s *sqlUploadSessionRepository) Create(ctx context.Context, session *domain.UploadSession) error {
	query := `
		INSERT INTO upload_session (
			id, idempotency_key, tenant_id, uploader_id, file_name, file_size_bytes, content_type,
			checksum_algorithm, checksum_value, storage_key, upload_type, status, expires_at,
			version, created_at, updated_at
		) VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	algorithm, value := checksumColumns(session.Checksum)
	_, err := s.db.ExecContext(
		ctx,
		query,
		session.ID,
		session.IdempotencyKey,
		session.TenantID,
		session.UploaderID,
		session.FileName,
		session.FileSizeBytes,
		session.ContentType,
		algorithm,
		value,
		session.StorageKey,
		session.UploadType,
		session.Status,
		session.ExpiresAt,
		session.Version,
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("upload session %s: %w", session.ID, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("error inserting upload session: %w", err)
	}
	return nil
}

func (s *sqlUploadSessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.UploadSession, error) {
	query := `SELECT ` + uploadSessionColumns + ` FROM upload_session WHERE id = $1`

	return s.findOne(ctx, query, id)
}

// FindByIdempotencyKey finds the session a tenant created with key
func (s *sqlUploadSessionRepository) FindByIdempotencyKey(ctx context.Context, tenantID string, key string) (*domain.UploadSession, error) {
	query := `SELECT ` + uploadSessionColumns + ` FROM upload_session WHERE tenant_id = $1 AND idempotency_key = $2`

	return s.findOne(ctx, query, tenantID, key)
}

// Update persists the mutable fields of a session when its version did not move
func (s *sqlUploadSessionRepository) Update(ctx context.Context, session *domain.UploadSession) error {
	query := `
		UPDATE upload_session
		SET status = $1, expires_at = $2, file_asset_id = $3, failure_reason = $4,
			completed_at = $5, ended_at = $6, version = version + 1, updated_at = $7
		WHERE id = $8 AND version = $9`

	result, err := s.db.ExecContext(
		ctx,
		query,
		session.Status,
		session.ExpiresAt,
		session.FileAssetID,
		session.FailureReason,
		session.CompletedAt,
		session.EndedAt,
		session.UpdatedAt,
		session.ID,
		session.Version,
	)
	if err != nil {
		return fmt.Errorf("error updating upload session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking rows affected: %w", err)
	}

	if rows == 0 {
		if _, err := s.FindByID(ctx, session.ID); err != nil {
			return err
		}
		return fmt.Errorf("upload session %s at version %d: %w", session.ID, session.Version, domain.ErrConcurrentUpdate)
	}

	session.Version++
	return nil
}

// CountActiveByTenant counts the PENDING and UPLOADING sessions of a tenant
func (s *sqlUploadSessionRepository) CountActiveByTenant(ctx context.Context, tenantID string) (int64, error) {
	query := `SELECT COUNT(*) FROM upload_session WHERE tenant_id = $1 AND status IN ('PENDING', 'UPLOADING')`

	var count int64
	if err := s.db.QueryRowContext(ctx, query, tenantID).Scan(&count); err != nil {
		return 0, fmt.Errorf("error counting active sessions: %w", err)
	}
	return count, nil
}

// FindAllExpired returns up to limit active sessions whose deadline passed, oldest first
func (s *sqlUploadSessionRepository) FindAllExpired(ctx context.Context, now time.Time, limit int) ([]domain.UploadSession, error) {
	query := `
		SELECT ` + uploadSessionColumns + `
		FROM upload_session
		WHERE status IN ('PENDING', 'UPLOADING') AND expires_at <= $1
		ORDER BY expires_at
		LIMIT $2`

	rows, err := s.db.QueryContext(ctx, query, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []domain.UploadSession
	for rows.Next() {
		var row dbUploadSession
		if err := row.scan(rows); err != nil {
			return nil, err
		}
		sessions = append(sessions, *row.ToDomain())
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

func (s *sqlUploadSessionRepository) findOne(ctx context.Context, query string, args ...any) (*domain.UploadSession, error) {
	var row dbUploadSession
	if err := row.scan(s.db.QueryRowContext(ctx, query, args...)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}
	return row.ToDomain(), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

type dbUploadSession struct {
	ID                uuid.UUID      `db:"id"`
	IdempotencyKey    string         `db:"idempotency_key"`
	TenantID          string         `db:"tenant_id"`
	UploaderID        string         `db:"uploader_id"`
	FileName          string         `db:"file_name"`
	FileSizeBytes     int64          `db:"file_size_bytes"`
	ContentType       string         `db:"content_type"`
	ChecksumAlgorithm sql.NullString `db:"checksum_algorithm"`
	ChecksumValue     sql.NullString `db:"checksum_value"`
	StorageKey        string         `db:"storage_key"`
	UploadType        string         `db:"upload_type"`
	Status            string         `db:"status"`
	ExpiresAt         time.Time      `db:"expires_at"`
	FileAssetID       uuid.NullUUID  `db:"file_asset_id"`
	FailureReason     string         `db:"failure_reason"`
	CompletedAt       sql.NullTime   `db:"completed_at"`
	EndedAt           sql.NullTime   `db:"ended_at"`
	Version           int            `db:"version"`
	CreatedAt         time.Time      `db:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at"`
}

func (s *dbUploadSession) scan(row rowScanner) error {
	return row.Scan(
		&s.ID,
		&s.IdempotencyKey,
		&s.TenantID,
		&s.UploaderID,
		&s.FileName,
		&s.FileSizeBytes,
		&s.ContentType,
		&s.ChecksumAlgorithm,
		&s.ChecksumValue,
		&s.StorageKey,
		&s.UploadType,
		&s.Status,
		&s.ExpiresAt,
		&s.FileAssetID,
		&s.FailureReason,
		&s.CompletedAt,
		&s.EndedAt,
		&s.Version,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
}

// ToDomain converts db obj to domain
func (s *dbUploadSession) ToDomain() *domain.UploadSession {
	session := &domain.UploadSession{
		ID:             s.ID,
		IdempotencyKey: s.IdempotencyKey,
		TenantID:       s.TenantID,
		UploaderID:     s.UploaderID,
		FileName:       s.FileName,
		FileSizeBytes:  s.FileSizeBytes,
		ContentType:    s.ContentType,
		Checksum:       checksumFromColumns(s.ChecksumAlgorithm, s.ChecksumValue),
		StorageKey:     s.StorageKey,
		UploadType:     domain.UploadType(s.UploadType),
		Status:         domain.UploadSessionStatus(s.Status),
		ExpiresAt:      s.ExpiresAt,
		FailureReason:  s.FailureReason,
		Version:        s.Version,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
	if s.FileAssetID.Valid {
		id := s.FileAssetID.UUID
		session.FileAssetID = &id
	}
	if s.CompletedAt.Valid {
		t := s.CompletedAt.Time
		session.CompletedAt = &t
	}
	if s.EndedAt.Valid {
		t := s.EndedAt.Time
		session.EndedAt = &t
	}
	return session
}
