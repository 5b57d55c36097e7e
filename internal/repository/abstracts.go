package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oncopipe/drug-detective/internal/common"
	"github.com/oncopipe/drug-detective/internal/entity"
)

type AbstractRepository interface {
	// InsertAbstract stores one abstract. Fails with common.ErrDuplicate when
	// the filename is already present; the ledger check in front of it makes
	// this a defense-in-depth path, not the normal one.
	InsertAbstract(ctx context.Context, filename, text string, processedAt time.Time) (int64, error)
	ListAbstracts(ctx context.Context) ([]*entity.Abstract, error)
}

type abstractRepo struct {
	db     *sql.DB
	driver string
	logger *slog.Logger
}

func NewAbstractRepository(db *sql.DB, driver string, logger *slog.Logger) AbstractRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &abstractRepo{db: db, driver: driver, logger: logger}
}

func (r *abstractRepo) InsertAbstract(ctx context.Context, filename, text string, processedAt time.Time) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var existing int64
	err = tx.QueryRowContext(ctx,
		rebind(r.driver, `SELECT id FROM abstracts WHERE filename = ?`), filename,
	).Scan(&existing)
	switch {
	case err == nil:
		return 0, fmt.Errorf("%w: abstract %q already inserted as id %d", common.ErrDuplicate, filename, existing)
	case !errors.Is(err, sql.ErrNoRows):
		return 0, fmt.Errorf("check filename: %w", err)
	}

	var id int64
	err = tx.QueryRowContext(ctx,
		rebind(r.driver, `INSERT INTO abstracts (filename, text, processed_date) VALUES (?, ?, ?) RETURNING id`),
		filename, text, processedAt.UTC(),
	).Scan(&id)
	if err != nil {
		r.logger.Error("failed to insert abstract", "filename", filename, "error", err)
		return 0, fmt.Errorf("insert abstract: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	r.logger.Info("inserted abstract", "id", id, "filename", filename)
	return id, nil
}

func (r *abstractRepo) ListAbstracts(ctx context.Context) ([]*entity.Abstract, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, filename, text, processed_date FROM abstracts ORDER BY id`)
	if err != nil {
		r.logger.Error("failed to list abstracts", "error", err)
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []*entity.Abstract
	for rows.Next() {
		var a entity.Abstract
		if err := rows.Scan(&a.ID, &a.Filename, &a.Text, &a.ProcessedDate); err != nil {
			return nil, fmt.Errorf("scan abstract: %w", err)
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}
