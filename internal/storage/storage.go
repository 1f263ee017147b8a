package storage

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// DB wraps a sql.DB for the raid event store.
type DB struct {
	conn   *sql.DB
	logger zerolog.Logger
}

// Open opens (or creates) the SQLite database at the given path and runs the
// embedded migrations.
func Open(path string, logger zerolog.Logger) (*DB, error) {
	logger.Debug().Str("path", path).Msg("opening database")

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// SQLite serialises writers anyway; one connection also keeps a
	// :memory: database alive across queries.
	conn.SetMaxOpenConns(1)

	if err := applyPragmas(conn, logger); err != nil {
		conn.Close()
		return nil, err
	}
	if err := runMigrations(conn, logger); err != nil {
		conn.Close()
		return nil, err
	}
	return &DB{conn: conn, logger: logger}, nil
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func applyPragmas(conn *sql.DB, logger zerolog.Logger) error {
	pragmas := []struct {
		name  string
		value string
	}{
		{"journal_mode", "WAL"},
		{"synchronous", "NORMAL"},
		{"busy_timeout", "5000"},
		{"foreign_keys", "ON"},
		{"temp_store", "MEMORY"},
	}
	for _, p := range pragmas {
		if _, err := conn.Exec(fmt.Sprintf("PRAGMA %s = %s", p.name, p.value)); err != nil {
			return fmt.Errorf("set pragma %s: %w", p.name, err)
		}
		logger.Debug().Str("pragma", p.name).Str("value", p.value).Msg("sqlite pragma set")
	}
	return nil
}

func runMigrations(conn *sql.DB, logger zerolog.Logger) error {
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(gooseLogger{logger})
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.Up(conn, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// gooseLogger routes goose output through zerolog at debug level.
type gooseLogger struct {
	log zerolog.Logger
}

func (l gooseLogger) Printf(format string, v ...any) {
	l.log.Debug().Msgf(format, v...)
}

func (l gooseLogger) Fatalf(format string, v ...any) {
	l.log.Fatal().Msgf(format, v...)
}
