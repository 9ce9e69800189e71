package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	defaultConnTimeout     = 5 * time.Second
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 25
	defaultConnMaxLifetime = 30 * time.Minute
	defaultConnMaxIdleTime = 5 * time.Minute
)

// Store оборачивает SQL-подключение к PostgreSQL.
type Store struct {
	db *sql.DB
}

// Open открывает подключение к PostgreSQL и проверяет доступность базы.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}
	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetMaxIdleConns(defaultMaxIdleConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)
	db.SetConnMaxIdleTime(defaultConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Store{db: db}, nil
}

// DB возвращает raw SQL DB, когда нужен низкоуровневый доступ.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Ping проверяет доступность подключения.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("postgres store is not initialized")
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnTimeout)
	defer cancel()
	return s.db.PingContext(pingCtx)
}

// EnsureSchema создаёт таблицы витрины, если их нет.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("postgres store is not initialized")
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS stock_levels (
			product_id     TEXT PRIMARY KEY,
			current_stock  INTEGER NOT NULL DEFAULT 0 CHECK (current_stock >= 0),
			reserved_stock INTEGER NOT NULL DEFAULT 0 CHECK (reserved_stock >= 0),
			updated_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
			CHECK (reserved_stock <= current_stock)
		)`,
		`CREATE TABLE IF NOT EXISTS stock_reservations (
			id         TEXT PRIMARY KEY,
			product_id TEXT NOT NULL,
			qty        INTEGER NOT NULL CHECK (qty > 0),
			status     TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			expires_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_stock_reservations_held
			ON stock_reservations (expires_at) WHERE status = 'held'`,
		`CREATE TABLE IF NOT EXISTS sales (
			id             TEXT PRIMARY KEY,
			customer_id    TEXT NOT NULL DEFAULT '',
			subtotal       BIGINT NOT NULL,
			tax            BIGINT NOT NULL,
			delivery_fee   BIGINT NOT NULL,
			discount       BIGINT NOT NULL,
			total          BIGINT NOT NULL,
			loyalty_points INTEGER NOT NULL DEFAULT 0,
			committed_at   TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sales_customer
			ON sales (customer_id, committed_at DESC)`,
		`CREATE TABLE IF NOT EXISTS sale_lines (
			id         BIGSERIAL PRIMARY KEY,
			sale_id    TEXT NOT NULL REFERENCES sales(id) ON DELETE CASCADE,
			product_id TEXT NOT NULL,
			name       TEXT NOT NULL,
			unit_price BIGINT NOT NULL,
			qty        INTEGER NOT NULL,
			added_at   TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS outbox_messages (
			id             TEXT PRIMARY KEY,
			aggregate_type TEXT NOT NULL,
			aggregate_id   TEXT NOT NULL,
			event_type     TEXT NOT NULL,
			payload        JSONB NOT NULL,
			status         TEXT NOT NULL DEFAULT 'pending',
			attempts       INTEGER NOT NULL DEFAULT 0,
			created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_outbox_pending
			ON outbox_messages (created_at) WHERE status = 'pending'`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// Close закрывает подключение к БД.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
