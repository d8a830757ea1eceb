package migrations

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed sql/postgres/*.sql sql/sqlite/*.sql
var sqlMigrations embed.FS

// Supported dialects; they match the database/sql driver names.
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

// migrator wraps a migrate instance. The caller's *sql.DB is never closed
// here: postgres runs on a dedicated connection released by closeDB, and the
// sqlite driver would close the whole handle, so it is left open.
type migrator struct {
	m       *migrate.Migrate
	src     source.Driver
	closeDB func() error
}

func newMigrator(db *sql.DB, dialect string) (*migrator, error) {
	var (
		driver  database.Driver
		closeDB = func() error { return nil }
	)
	switch dialect {
	case DialectPostgres:
		ctx := context.Background()
		conn, err := db.Conn(ctx)
		if err != nil {
			return nil, fmt.Errorf("postgres conn: %w", err)
		}
		pg, err := postgres.WithConnection(ctx, conn, &postgres.Config{})
		if err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("postgres driver: %w", err)
		}
		driver, closeDB = pg, pg.Close
	case DialectSQLite:
		lite, err := sqlite.WithInstance(db, &sqlite.Config{})
		if err != nil {
			return nil, fmt.Errorf("sqlite driver: %w", err)
		}
		driver = lite
	default:
		return nil, fmt.Errorf("unsupported migration dialect %q", dialect)
	}
	src, err := iofs.New(sqlMigrations, "sql/"+dialect)
	if err != nil {
		_ = closeDB()
		return nil, fmt.Errorf("migrations source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, dialect, driver)
	if err != nil {
		_ = src.Close()
		_ = closeDB()
		return nil, fmt.Errorf("migrate instance: %w", err)
	}
	return &migrator{m: m, src: src, closeDB: closeDB}, nil
}

func (mg *migrator) close() {
	if mg == nil {
		return
	}
	_ = mg.src.Close()
	_ = mg.closeDB()
}

// Up applies all pending migrations.
func Up(db *sql.DB, dialect string) error {
	mg, err := newMigrator(db, dialect)
	if err != nil {
		return err
	}
	defer mg.close()

	if err := mg.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrations up: %w", err)
	}
	return nil
}

// Down rolls back the given number of migrations (default 1 if steps <= 0).
func Down(db *sql.DB, dialect string, steps int) error {
	if steps <= 0 {
		steps = 1
	}
	mg, err := newMigrator(db, dialect)
	if err != nil {
		return err
	}
	defer mg.close()

	if err := mg.m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrations down: %w", err)
	}
	return nil
}

// Version returns the current migration version.
func Version(db *sql.DB, dialect string) (uint, bool, error) {
	mg, err := newMigrator(db, dialect)
	if err != nil {
		return 0, false, err
	}
	defer mg.close()

	version, dirty, err := mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, dirty, fmt.Errorf("migrations version: %w", err)
	}
	return version, dirty, nil
}
