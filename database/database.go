package database

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // postgres driver
	_ "github.com/mattn/go-sqlite3"    // sqlite3 driver
)

// Supported engines, selected from DATABASE_URL.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

// ErrStoreUnavailable marks store-level failures. The reconciler aborts the
// whole pass when it sees this; it is a retryable condition, not data
// corruption.
var ErrStoreUnavailable = errors.New("post store unavailable")

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}

// InitDB opens and verifies the database selected by databaseURL and ensures
// the schema exists. A postgres:// URL selects postgres; anything else is a
// sqlite file path (optionally prefixed sqlite:///), defaulting to
// bookbot.db.
func InitDB(databaseURL string) (*sql.DB, string, error) {
	driver, dsn := detectEngine(databaseURL)

	if driver == DriverSQLite {
		// Ensure the directory for the database file exists.
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, "", fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open database: %w", err)
	}

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, "", fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createSchema(db, driver); err != nil {
		db.Close()
		return nil, "", fmt.Errorf("failed to create schema: %w", err)
	}

	log.Printf("Connected to %s database", driver)
	return db, driver, nil
}

func detectEngine(databaseURL string) (driver, dsn string) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return DriverPostgres, databaseURL
	case strings.HasPrefix(databaseURL, "sqlite:///"):
		return DriverSQLite, strings.TrimPrefix(databaseURL, "sqlite:///")
	case databaseURL == "":
		return DriverSQLite, "bookbot.db"
	default:
		return DriverSQLite, databaseURL
	}
}

// createSchema creates the posts and admins tables if they don't exist.
// Timestamps are integer unix seconds (UTC) so range queries behave the same
// on both engines.
func createSchema(db *sql.DB, driver string) error {
	idColumn := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if driver == DriverPostgres {
		idColumn = "BIGSERIAL PRIMARY KEY"
	}

	statements := []string{
		fmt.Sprintf(`
    CREATE TABLE IF NOT EXISTS posts (
        id %s,
        user_id BIGINT NOT NULL DEFAULT 0,
        message_id BIGINT NOT NULL DEFAULT 0,
        channel_message_ids TEXT NOT NULL DEFAULT '[]',
        text_content TEXT NOT NULL,
        file_ids TEXT NOT NULL DEFAULT '[]',
        created_at BIGINT NOT NULL,
        repost_count INTEGER NOT NULL DEFAULT 0,
        last_repost BIGINT,
        status TEXT NOT NULL DEFAULT 'active'
    );`, idColumn),
		`CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_posts_status_created ON posts(status, created_at);`,
		`
    CREATE TABLE IF NOT EXISTS admins (
        user_id BIGINT PRIMARY KEY,
        username TEXT,
        added_at BIGINT NOT NULL
    );`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
