package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oncopipe/drug-detective/constants"
)

type LedgerRepository interface {
	// IsProcessed reports whether filename is recorded with status "success".
	IsProcessed(ctx context.Context, filename string) (bool, error)
	// MarkProcessed upserts the filename's status; calling twice overwrites
	// rather than erroring.
	MarkProcessed(ctx context.Context, filename string, status constants.FileStatus) error
	// LoadLedger returns the full filename -> status set, read once at startup.
	LoadLedger(ctx context.Context) (map[string]constants.FileStatus, error)
	// Counts returns row counts per status for operational visibility.
	Counts(ctx context.Context) (map[constants.FileStatus]int, error)
}

type ledgerRepo struct {
	db     *sql.DB
	driver string
	logger *slog.Logger
}

func NewLedgerRepository(db *sql.DB, driver string, logger *slog.Logger) LedgerRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &ledgerRepo{db: db, driver: driver, logger: logger}
}

func (r *ledgerRepo) IsProcessed(ctx context.Context, filename string) (bool, error) {
	var status string
	err := r.db.QueryRowContext(ctx,
		rebind(r.driver, `SELECT status FROM processed_files WHERE filename = ?`), filename,
	).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("ledger lookup: %w", err)
	}
	return constants.FileStatus(status) == constants.StatusSuccess, nil
}

func (r *ledgerRepo) MarkProcessed(ctx context.Context, filename string, status constants.FileStatus) error {
	_, err := r.db.ExecContext(ctx,
		rebind(r.driver, `INSERT INTO processed_files (filename, status, updated_at) VALUES (?, ?, ?)
			ON CONFLICT (filename) DO UPDATE SET status = excluded.status, updated_at = excluded.updated_at`),
		filename, string(status), time.Now().UTC(),
	)
	if err != nil {
		r.logger.Error("failed to mark processed", "filename", filename, "status", status, "error", err)
		return fmt.Errorf("mark processed: %w", err)
	}
	r.logger.Info("ledger updated", "filename", filename, "status", status)
	return nil
}

func (r *ledgerRepo) LoadLedger(ctx context.Context) (map[string]constants.FileStatus, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT filename, status FROM processed_files`)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	out := make(map[string]constants.FileStatus)
	for rows.Next() {
		var filename, status string
		if err := rows.Scan(&filename, &status); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		out[filename] = constants.FileStatus(status)
	}
	return out, rows.Err()
}

func (r *ledgerRepo) Counts(ctx context.Context) (map[constants.FileStatus]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM processed_files GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("ledger counts: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	out := make(map[constants.FileStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan ledger count: %w", err)
		}
		out[constants.FileStatus(status)] = n
	}
	return out, rows.Err()
}
