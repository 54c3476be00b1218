package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Schema is the DDL of the development shop database. It is idempotent.
const Schema = `
	CREATE TABLE IF NOT EXISTS categories (
		category_id SERIAL PRIMARY KEY,
		category_name VARCHAR(100) NOT NULL
	);

	CREATE TABLE IF NOT EXISTS products (
		product_id SERIAL PRIMARY KEY,
		product_name VARCHAR(255) NOT NULL,
		brief_description TEXT NOT NULL DEFAULT '',
		full_description TEXT NOT NULL DEFAULT '',
		technical_specifications TEXT NOT NULL DEFAULT '',
		price NUMERIC(12, 2) NOT NULL CHECK (price > 0),
		image_url TEXT NOT NULL DEFAULT '',
		category_id INTEGER REFERENCES categories(category_id) ON DELETE RESTRICT
	);
	CREATE INDEX IF NOT EXISTS idx_products_category_id ON products(category_id);

	CREATE TABLE IF NOT EXISTS store_locations (
		location_id SERIAL PRIMARY KEY,
		latitude DOUBLE PRECISION NOT NULL,
		longitude DOUBLE PRECISION NOT NULL,
		address TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS orders (
		order_id SERIAL PRIMARY KEY,
		user_id INTEGER NOT NULL DEFAULT 0,
		customer_name TEXT NOT NULL DEFAULT '',
		billing_address TEXT NOT NULL,
		payment_method TEXT NOT NULL DEFAULT '',
		order_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		total_amount NUMERIC(12, 2) NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_orders_order_date ON orders(order_date DESC);

	CREATE TABLE IF NOT EXISTS order_details (
		order_detail_id SERIAL PRIMARY KEY,
		order_id INTEGER NOT NULL REFERENCES orders(order_id) ON DELETE CASCADE,
		product_id INTEGER NOT NULL,
		product_name TEXT NOT NULL DEFAULT '',
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		unit_price NUMERIC(12, 2) NOT NULL CHECK (unit_price >= 0)
	);
	CREATE INDEX IF NOT EXISTS idx_order_details_order_id ON order_details(order_id);

	CREATE TABLE IF NOT EXISTS order_statuses (
		order_status_id SERIAL PRIMARY KEY,
		order_id INTEGER NOT NULL REFERENCES orders(order_id) ON DELETE CASCADE,
		status SMALLINT NOT NULL CHECK (status BETWEEN 1 AND 4),
		description VARCHAR(500) NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_order_statuses_order_id ON order_statuses(order_id, updated_at DESC);
`

// EnsureSchema creates any missing table or index.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, logger zerolog.Logger) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	logger.Info().Msg("database schema ensured")
	return nil
}

// IsEmpty reports whether the catalogue has no categories and no products.
func IsEmpty(ctx context.Context, pool *pgxpool.Pool) (bool, error) {
	var n int
	err := pool.QueryRow(ctx,
		"SELECT (SELECT COUNT(*) FROM categories) + (SELECT COUNT(*) FROM products)").Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to count catalogue rows: %w", err)
	}
	return n == 0, nil
}
