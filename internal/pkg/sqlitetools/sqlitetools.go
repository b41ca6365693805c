package sqlitetools

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Leopold1975/page_banners/internal/pkg/config"
	"github.com/Leopold1975/page_banners/migrations"
	"github.com/pressly/goose/v3"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const maxOpenConns = 4

// Open creates (if needed) and migrates the sqlite database at cfg.Path.
// Foreign keys are enforced on every pooled connection.
func Open(ctx context.Context, cfg config.SQLite) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil { //nolint:gomnd
		return nil, fmt.Errorf("create data dir error: %w", err)
	}

	dsn := "file:" + cfg.Path +
		"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite error: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxOpenConns)

	if err := db.PingContext(ctx); err != nil {
		db.Close()

		return nil, fmt.Errorf("ping sqlite error: %w", err)
	}

	if err := ApplyMigration(ctx, db, cfg.Version); err != nil {
		db.Close()

		return nil, err
	}

	return db, nil
}

func ApplyMigration(ctx context.Context, db *sql.DB, version int) error {
	goose.SetBaseFS(migrations.FS)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("goose set dialect error: %w", err)
	}

	if version == 0 {
		if err := goose.UpContext(ctx, db, migrations.SQLiteDir); err != nil {
			return fmt.Errorf("goose up error: %w", err)
		}

		return nil
	}

	if err := goose.UpToContext(ctx, db, migrations.SQLiteDir, int64(version)); err != nil {
		return fmt.Errorf("goose up error: %w", err)
	}

	return nil
}

func IsUniqueViolation(err error) bool {
	return isConstraint(err, sqlite3.SQLITE_CONSTRAINT_UNIQUE, "UNIQUE constraint failed")
}

func IsForeignKeyViolation(err error) bool {
	return isConstraint(err, sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY, "FOREIGN KEY constraint failed")
}

// isConstraint matches the extended result code, or the message when the
// connection reports only the primary SQLITE_CONSTRAINT code.
func isConstraint(err error, code int, msg string) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}

	return se.Code() == code || strings.Contains(se.Error(), msg)
}
