package terraindb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	_ "modernc.org/sqlite"

	"worldweaver.ai/internal/protocol"
)

const SchemaVersion = 1

// DB persists one terrain world: its config row, chunk blobs and river
// segments.
type DB struct {
	db     *sql.DB
	config *configValidator
}

func Open(path string) (*DB, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	v, err := newConfigValidator()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &DB{db: db, config: v}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS terrain_config (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS terrain_chunks (
			chunk_x INTEGER NOT NULL,
			chunk_z INTEGER NOT NULL,
			lod INTEGER NOT NULL DEFAULT 0,
			data BLOB NOT NULL,
			flow_data BLOB,
			biome_data BLOB,
			modified_at INTEGER NOT NULL,
			PRIMARY KEY (chunk_x, chunk_z, lod)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_modified ON terrain_chunks(modified_at);`,
		`CREATE TABLE IF NOT EXISTS river_segments (
			id INTEGER PRIMARY KEY,
			path BLOB NOT NULL,
			strahler_order INTEGER NOT NULL,
			width_meters REAL NOT NULL
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	_, err := db.Exec(`INSERT OR IGNORE INTO meta(key, value) VALUES('schema_version', ?)`, strconv.Itoa(SchemaVersion))
	return err
}

func (d *DB) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func setMeta(ctx context.Context, x execer, key, value string) error {
	_, err := x.ExecContext(ctx, `INSERT OR REPLACE INTO meta(key, value) VALUES(?, ?)`, key, value)
	return err
}

func (d *DB) Meta(ctx context.Context, key string) (string, error) {
	var v string
	err := d.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", protocol.Errorf(protocol.ErrNotFound, "meta %q not found", key)
	}
	if err != nil {
		return "", protocol.Wrap(protocol.ErrInternal, err, "read meta %q", key)
	}
	return v, nil
}

// withTx runs fn in one transaction, rolling back on error.
func (d *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return protocol.Wrap(protocol.ErrInternal, err, "begin tx")
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return protocol.Wrap(protocol.ErrInternal, err, "commit")
	}
	return nil
}
