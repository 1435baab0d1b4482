package database

import (
	"context"
	"database/sql"
	"time"
)

// AdminStore persists admin user ids alongside the ones seeded from
// configuration.
type AdminStore struct {
	db     *sql.DB
	driver string
}

// NewAdminStore wraps an initialized connection.
func NewAdminStore(db *sql.DB, driver string) *AdminStore {
	return &AdminStore{db: db, driver: driver}
}

// Add upserts an admin.
func (s *AdminStore) Add(ctx context.Context, userID int64, username string) error {
	var query string
	if s.driver == DriverPostgres {
		query = rebind(s.driver, `
    INSERT INTO admins (user_id, username, added_at) VALUES (?, ?, ?)
    ON CONFLICT (user_id) DO UPDATE SET username = EXCLUDED.username`)
	} else {
		query = `INSERT OR REPLACE INTO admins (user_id, username, added_at) VALUES (?, ?, ?)`
	}

	if _, err := s.db.ExecContext(ctx, query, userID, username, time.Now().UTC().Unix()); err != nil {
		return storeErr("failed to add admin", err)
	}
	return nil
}

// IsAdmin reports whether userID is in the admins table.
func (s *AdminStore) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	query := rebind(s.driver, `SELECT user_id FROM admins WHERE user_id = ?`)
	var id int64
	err := s.db.QueryRowContext(ctx, query, userID).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, storeErr("failed to check admin", err)
	}
	return true, nil
}
