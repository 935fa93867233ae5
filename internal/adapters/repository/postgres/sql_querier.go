package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ryu-qqq/FileFlow-sub002/internal/core/domain"

	"github.com/lib/pq"
)

// SQLQuerier is implemented by both *sql.DB and *sql.Tx
type SQLQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const uniqueViolation = "23505"

// isUniqueViolation reports whether err is a postgres unique constraint violation
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func checksumColumns(checksum *domain.Checksum) (sql.NullString, sql.NullString) {
	if checksum == nil {
		return sql.NullString{}, sql.NullString{}
	}
	return sql.NullString{String: string(checksum.Algorithm), Valid: true},
		sql.NullString{String: checksum.Value, Valid: true}
}

func checksumFromColumns(algorithm, value sql.NullString) *domain.Checksum {
	if !algorithm.Valid {
		return nil
	}
	return &domain.Checksum{Algorithm: domain.ChecksumAlgorithm(algorithm.String), Value: value.String}
}
