package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/oncopipe/drug-detective/internal/common"
)

type Config struct {
	DSN         string
	DialTimeout time.Duration
}

// DriverFor picks the database/sql driver from the DSN. Postgres URLs go
// through pgx; everything else is treated as a sqlite path or file: URI.
func DriverFor(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return "pgx"
	}
	return "sqlite"
}

// Open connects, pings with the dial timeout, and creates the schema.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*sql.DB, string, error) {
	driver := DriverFor(cfg.DSN)
	logger.Info("connecting to database", "driver", driver)

	db, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, "", common.NewAppError("DB_OPEN", "failed to open database", err)
	}
	if driver == "sqlite" {
		// modernc serializes writes; a single connection avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}

	pingCtx := ctx
	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, "", common.NewAppError("DB_PING", "database unreachable", err)
	}

	if err := InitSchema(ctx, db, driver); err != nil {
		_ = db.Close()
		return nil, "", err
	}

	logger.Info("successfully connected to database")
	return db, driver, nil
}

// InitSchema creates the three tables and the processed-file ledger if absent.
func InitSchema(ctx context.Context, db *sql.DB, driver string) error {
	serial := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if driver == "pgx" {
		serial = "BIGSERIAL PRIMARY KEY"
	}

	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS abstracts (
			id %s,
			filename TEXT NOT NULL UNIQUE,
			text TEXT NOT NULL,
			processed_date TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`, serial),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS drugs (
			id %s,
			name TEXT NOT NULL,
			abstract_id INTEGER,
			FOREIGN KEY (abstract_id) REFERENCES abstracts (id)
		)`, serial),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS attributes (
			id %s,
			drug_id INTEGER,
			name TEXT NOT NULL,
			value TEXT NOT NULL,
			FOREIGN KEY (drug_id) REFERENCES drugs (id)
		)`, serial),
		`CREATE TABLE IF NOT EXISTS processed_files (
			filename TEXT PRIMARY KEY,
			status TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return common.NewAppError("DB_SCHEMA", "failed to initialize schema", err)
		}
	}
	return nil
}

// rebind converts ?-style placeholders to $N for the pgx driver.
func rebind(driver, query string) string {
	if driver != "pgx" {
		return query
	}
	var b strings.Builder
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}
