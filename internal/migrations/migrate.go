package migrations

import (
	"database/sql"
	"embed"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"

	"github.com/Simplici0/cleanquote/internal/db"
)

//go:embed sqlite/*.sql postgres/*.sql
var files embed.FS

var gooseDialects = map[db.Dialect]string{
	db.SQLite:   "sqlite3",
	db.Postgres: "postgres",
}

// goose keeps its dialect and filesystem in package state.
var gooseMu sync.Mutex

// Up runs all pending migrations embedded for database's dialect.
func Up(database *db.DB) error {
	return run(database.DB, database.Dialect, goose.Up)
}

// Version reports the current schema version.
func Version(database *db.DB) (int64, error) {
	var version int64
	err := run(database.DB, database.Dialect, func(conn *sql.DB, dir string, _ ...goose.OptionsFunc) error {
		v, err := goose.GetDBVersion(conn)
		version = v
		return err
	})
	return version, err
}

func run(conn *sql.DB, dialect db.Dialect, fn func(*sql.DB, string, ...goose.OptionsFunc) error) error {
	name, ok := gooseDialects[dialect]
	if !ok {
		return fmt.Errorf("no migrations for dialect %q", dialect)
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(files)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(name); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if err := fn(conn, string(dialect)); err != nil {
		return fmt.Errorf("run goose migrations: %w", err)
	}

	return nil
}
