// Package sqlstore keeps session blobs in a single SQL table. SQLite serves
// single-device hosts; Postgres serves shared deployments.
package sqlstore

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"identhub/pkg/platform/sentinel"
)

const defaultDirPermissions = 0o755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

//go:embed migrations_postgres.sql
var postgresMigrations string

// dialect holds the statements that differ between drivers.
type dialect struct {
	driver string
	load   string
	upsert string
	delete string
	clear  string
}

var (
	sqliteDialect = dialect{
		driver: "sqlite3",
		load:   `SELECT blob FROM session_state WHERE key = ?`,
		upsert: `INSERT INTO session_state (key, blob, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		         ON CONFLICT(key) DO UPDATE SET blob = excluded.blob, updated_at = excluded.updated_at`,
		delete: `DELETE FROM session_state WHERE key = ?`,
		clear:  `DELETE FROM session_state`,
	}
	postgresDialect = dialect{
		driver: "postgres",
		load:   `SELECT blob FROM session_state WHERE key = $1`,
		upsert: `INSERT INTO session_state (key, blob, updated_at) VALUES ($1, $2, NOW())
		         ON CONFLICT (key) DO UPDATE SET blob = EXCLUDED.blob, updated_at = EXCLUDED.updated_at`,
		delete: `DELETE FROM session_state WHERE key = $1`,
		clear:  `DELETE FROM session_state`,
	}
)

// Store implements the session storage backend over database/sql.
type Store struct {
	db      *sql.DB
	dialect dialect
	logger  *slog.Logger
}

// OpenSQLite opens (creating if needed) the database file at path.
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path not set")
	}
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, defaultDirPermissions); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	return open(ctx, sqliteDialect, path, sqliteMigrations, logger)
}

// OpenPostgres connects using a lib/pq DSN.
func OpenPostgres(ctx context.Context, dsn string, logger *slog.Logger) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN not set")
	}
	return open(ctx, postgresDialect, dsn, postgresMigrations, logger)
}

func open(ctx context.Context, d dialect, dsn, migrations string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.driver, err)
	}
	if d.driver == sqliteDialect.driver {
		// One writer keeps SQLite from returning SQLITE_BUSY under concurrent saves.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", d.driver, err)
	}
	if _, err := db.ExecContext(ctx, migrations); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Debug("session store ready", "driver", d.driver)
	return &Store{db: db, dialect: d, logger: logger}, nil
}

func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, s.dialect.load, key).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	return blob, nil
}

func (s *Store) Save(ctx context.Context, key string, blob []byte) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.upsert, key, blob); err != nil {
		s.logger.ErrorContext(ctx, "session store save failed", "error", err, "key", key)
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.delete, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.clear); err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
