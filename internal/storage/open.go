package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"gemini-pool-go/internal/migrations"
)

func init() {
	sqlx.BindDriver(migrations.DialectSQLite, sqlx.QUESTION)
}

const sqlitePragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// Open connects to the ledger database, applies migrations and returns a
// ready SQLStore. driver is "postgres" or "sqlite".
func Open(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	db, err := OpenDB(ctx, driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := migrations.Up(db, driver); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewSQLStore(db, driver), nil
}

// OpenDB opens and pings a raw handle without running migrations.
func OpenDB(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	switch driver {
	case migrations.DialectSQLite:
		dsn = SQLiteDSN(dsn)
	case migrations.DialectPostgres:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == migrations.DialectSQLite {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(20)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(30 * time.Minute)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return db, nil
}

// SQLiteDSN appends the pragmas the ledger relies on unless the DSN already
// sets its own.
func SQLiteDSN(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&" + sqlitePragmas
	}
	return dsn + "?" + sqlitePragmas
}
