package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"
)

// InitDB opens the database, checks connectivity and applies the schema.
func InitDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := migrateDB(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	slog.Info("Database connected and migrated")
	return db, nil
}

func migrateDB(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS products (
			id TEXT PRIMARY KEY,
			slug TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			base_price BIGINT NOT NULL DEFAULT 0,
			option_groups JSONB NOT NULL DEFAULT '[]',
			ring_sizes JSONB NOT NULL DEFAULT '[]',
			in_stock BOOLEAN,
			image_url TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS inventory_levels (
			product_slug TEXT NOT NULL,
			variant_key TEXT NOT NULL,
			remaining INT NOT NULL CHECK (remaining >= 0),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
			PRIMARY KEY (product_slug, variant_key)
		);

		CREATE TABLE IF NOT EXISTS orders (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL DEFAULT '',
			total_price BIGINT NOT NULL DEFAULT 0,
			currency TEXT NOT NULL DEFAULT 'gbp',
			status TEXT NOT NULL DEFAULT 'pending_payment',
			payment_session_id TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS order_items (
			id SERIAL PRIMARY KEY,
			order_id TEXT NOT NULL REFERENCES orders(id),
			line_id TEXT NOT NULL,
			product_slug TEXT NOT NULL,
			variant_key TEXT NOT NULL,
			label TEXT NOT NULL DEFAULT '',
			unit_price BIGINT NOT NULL DEFAULT 0,
			quantity INT NOT NULL DEFAULT 1,
			engraving TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS inquiries (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL,
			phone TEXT NOT NULL DEFAULT '',
			budget BIGINT NOT NULL DEFAULT 0,
			piece_type TEXT NOT NULL DEFAULT '',
			message TEXT NOT NULL DEFAULT '',
			attachments JSONB NOT NULL DEFAULT '[]',
			status TEXT NOT NULL DEFAULT 'new',
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			stream_id TEXT NOT NULL,
			stream_type TEXT NOT NULL,
			version INT NOT NULL,
			event_type TEXT NOT NULL,
			payload JSONB NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			UNIQUE (stream_id, version)
		);
	`)
	return err
}
