package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/oncopipe/drug-detective/internal/common"
	"github.com/oncopipe/drug-detective/internal/entity"
)

type DrugRepository interface {
	// InsertDrug and InsertAttribute verify the parent row inside the same
	// transaction as the insert and fail with common.ErrForeignKey when it is
	// missing. Referential integrity is enforced at write time only.
	InsertDrug(ctx context.Context, abstractID int64, name string) (int64, error)
	InsertAttribute(ctx context.Context, drugID int64, name, value string) error
	DrugsByAbstract(ctx context.Context, abstractID int64) ([]*entity.Drug, error)
	AttributesByDrug(ctx context.Context, drugID int64) ([]*entity.Attribute, error)
}

type drugRepo struct {
	db     *sql.DB
	driver string
	logger *slog.Logger
}

func NewDrugRepository(db *sql.DB, driver string, logger *slog.Logger) DrugRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &drugRepo{db: db, driver: driver, logger: logger}
}

func (r *drugRepo) InsertDrug(ctx context.Context, abstractID int64, name string) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := parentExists(ctx, tx, r.driver, "abstracts", abstractID); err != nil {
		return 0, err
	}

	var id int64
	err = tx.QueryRowContext(ctx,
		rebind(r.driver, `INSERT INTO drugs (name, abstract_id) VALUES (?, ?) RETURNING id`),
		name, abstractID,
	).Scan(&id)
	if err != nil {
		r.logger.Error("failed to insert drug", "name", name, "abstract_id", abstractID, "error", err)
		return 0, fmt.Errorf("insert drug: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	r.logger.Debug("inserted drug", "id", id, "name", name, "abstract_id", abstractID)
	return id, nil
}

func (r *drugRepo) InsertAttribute(ctx context.Context, drugID int64, name, value string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := parentExists(ctx, tx, r.driver, "drugs", drugID); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		rebind(r.driver, `INSERT INTO attributes (drug_id, name, value) VALUES (?, ?, ?)`),
		drugID, name, value,
	)
	if err != nil {
		r.logger.Error("failed to insert attribute", "drug_id", drugID, "name", name, "error", err)
		return fmt.Errorf("insert attribute: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *drugRepo) DrugsByAbstract(ctx context.Context, abstractID int64) ([]*entity.Drug, error) {
	rows, err := r.db.QueryContext(ctx,
		rebind(r.driver, `SELECT id, name, abstract_id FROM drugs WHERE abstract_id = ? ORDER BY id`),
		abstractID,
	)
	if err != nil {
		r.logger.Error("failed to get drugs by abstract", "abstract_id", abstractID, "error", err)
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []*entity.Drug
	for rows.Next() {
		var d entity.Drug
		if err := rows.Scan(&d.ID, &d.Name, &d.AbstractID); err != nil {
			return nil, fmt.Errorf("scan drug: %w", err)
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}

func (r *drugRepo) AttributesByDrug(ctx context.Context, drugID int64) ([]*entity.Attribute, error) {
	rows, err := r.db.QueryContext(ctx,
		rebind(r.driver, `SELECT id, drug_id, name, value FROM attributes WHERE drug_id = ? ORDER BY id`),
		drugID,
	)
	if err != nil {
		r.logger.Error("failed to get attributes by drug", "drug_id", drugID, "error", err)
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []*entity.Attribute
	for rows.Next() {
		var a entity.Attribute
		if err := rows.Scan(&a.ID, &a.DrugID, &a.Name, &a.Value); err != nil {
			return nil, fmt.Errorf("scan attribute: %w", err)
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

func parentExists(ctx context.Context, tx *sql.Tx, driver, table string, id int64) error {
	var one int
	err := tx.QueryRowContext(ctx,
		rebind(driver, `SELECT 1 FROM `+table+` WHERE id = ?`), id,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s id %d", common.ErrForeignKey, table, id)
	}
	if err != nil {
		return fmt.Errorf("check %s parent: %w", table, err)
	}
	return nil
}
