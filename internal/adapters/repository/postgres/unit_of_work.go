package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ryu-qqq/FileFlow-sub002/internal/core/port"
)

type sqlUnitOfWork struct {
	db *sql.DB
	tx *sql.Tx
}

func NewUnitOfWork(db *sql.DB) port.UnitOfWork {
	return &sqlUnitOfWork{db: db}
}

func (u *sqlUnitOfWork) querier() SQLQuerier {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

func (u *sqlUnitOfWork) UploadSessionRepo() port.UploadSessionRepository {
	return NewSQLUploadSessionRepository(u.querier())
}

func (u *sqlUnitOfWork) MultipartRepo() port.MultipartUploadRepository {
	return NewSQLMultipartUploadRepository(u.querier())
}

func (u *sqlUnitOfWork) FileAssetRepo() port.FileAssetRepository {
	return NewSQLFileAssetRepository(u.querier())
}

// Execute runs fn inside a single transaction. Repositories taken from the
// UnitOfWork passed to fn share that transaction; fn's error rolls it back.
func (u *sqlUnitOfWork) Execute(ctx context.Context, fn func(uow port.UnitOfWork) error) (err error) {
	if u.tx != nil {
		// already inside a transaction
		return fn(u)
	}

	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			err = errors.Join(err, fmt.Errorf("failed to rollback transaction: %w", rbErr))
		}
	}()

	if err := fn(&sqlUnitOfWork{db: u.db, tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true
	return nil
}
