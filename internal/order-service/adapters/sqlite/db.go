// Package sqlite is the SQLite-backed order repository.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	// Pure-Go driver, registered as "sqlite"; no CGO needed in the image.
	_ "modernc.org/sqlite"
)

// Open opens (or creates) the database at path with WAL journaling and a
// single connection, which serialises writers.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)", path)
	if path == ":memory:" {
		dsn = "file::memory:?_pragma=foreign_keys(on)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping %q: %w", path, err)
	}
	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS orders (
    order_id        TEXT PRIMARY KEY,
    user_id         TEXT NOT NULL,
    restaurant_id   TEXT NOT NULL,
    restaurant_name TEXT NOT NULL DEFAULT '',
    items_json      TEXT NOT NULL DEFAULT '[]',
    total           REAL NOT NULL DEFAULT 0,
    status          TEXT NOT NULL,
    created_at      TEXT NOT NULL,
    updated_at      TEXT
);

CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id, created_at);
CREATE INDEX IF NOT EXISTS idx_orders_restaurant ON orders(restaurant_id, created_at);
CREATE INDEX IF NOT EXISTS idx_orders_created ON orders(created_at);
`

// migrate applies the schema and adds columns introduced after the first
// release. Both steps are idempotent.
func migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("sqlite: apply orders schema: %w", err)
	}
	if _, err := db.ExecContext(ctx, `ALTER TABLE orders ADD COLUMN items_with_images_json TEXT`); err != nil {
		if !strings.Contains(err.Error(), "duplicate column") {
			return fmt.Errorf("sqlite: add items_with_images_json: %w", err)
		}
	}
	return nil
}
