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

const fileAssetColumns = `
	id, session_id, tenant_id, uploader_id, file_name, content_type, size_bytes, storage_key, etag,
	checksum_algorithm, checksum_value, created_at`

type sqlFileAssetRepository struct {
	db SQLQuerier
}

// NewSQLFileAssetRepository creates sqlFileAssetRepository that implements port.FileAssetRepository
func NewSQLFileAssetRepository(db SQLQuerier) port.FileAssetRepository {
	return &sqlFileAssetRepository{
		db: db,
	}
}

// Create creates the file record of a completed session
func (s *sqlFileAssetRepository) Create(ctx context.Context, asset domain.FileAsset) error {
	query := `
		INSERT INTO file_asset (` + fileAssetColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	algorithm, value := checksumColumns(asset.Checksum)
	_, err := s.db.ExecContext(
		ctx,
		query,
		asset.ID,
		asset.SessionID,
		asset.TenantID,
		asset.UploaderID,
		asset.FileName,
		asset.ContentType,
		asset.SizeBytes,
		asset.StorageKey,
		asset.ETag,
		algorithm,
		value,
		asset.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("file asset of session %s: %w", asset.SessionID, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("error inserting file asset: %w", err)
	}
	return nil
}

// FindByID finds by id
func (s *sqlFileAssetRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.FileAsset, error) {
	query := `SELECT ` + fileAssetColumns + ` FROM file_asset WHERE id = $1`

	return s.findOne(ctx, query, id)
}

// FindBySessionID finds the file record created by a session
func (s *sqlFileAssetRepository) FindBySessionID(ctx context.Context, sessionID uuid.UUID) (*domain.FileAsset, error) {
	query := `SELECT ` + fileAssetColumns + ` FROM file_asset WHERE session_id = $1`

	return s.findOne(ctx, query, sessionID)
}

func (s *sqlFileAssetRepository) findOne(ctx context.Context, query string, arg any) (*domain.FileAsset, error) {
	var (
		asset     domain.FileAsset
		algorithm sql.NullString
		value     sql.NullString
		createdAt time.Time
	)
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&asset.ID,
		&asset.SessionID,
		&asset.TenantID,
		&asset.UploaderID,
		&asset.FileName,
		&asset.ContentType,
		&asset.SizeBytes,
		&asset.StorageKey,
		&asset.ETag,
		&algorithm,
		&value,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrFileAssetNotFound
		}
		return nil, err
	}

	asset.Checksum = checksumFromColumns(algorithm, value)
	asset.CreatedAt = createdAt
	return &asset, nil
}
