package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const (
	opTimeout             = 5 * time.Second
	defaultReservationTTL = 5 * time.Minute
)

// StockLedger — PostgreSQL-реализация леджера стока. Отсутствие oversell
// гарантирует условный UPDATE: резерв проходит только если строка товара
// всё ещё содержит достаточный доступный остаток.
type StockLedger struct {
	db    *sql.DB
	ttl   time.Duration
	clock func() time.Time
}

// LedgerOption настраивает StockLedger.
type LedgerOption func(*StockLedger)

// WithReservationTTL задаёт срок жизни резерва.
func WithReservationTTL(ttl time.Duration) LedgerOption {
	return func(l *StockLedger) {
		if ttl > 0 {
			l.ttl = ttl
		}
	}
}

// WithClock подменяет источник времени (для тестов).
func WithClock(clock func() time.Time) LedgerOption {
	return func(l *StockLedger) {
		if clock != nil {
			l.clock = clock
		}
	}
}

// NewStockLedger создаёт PostgreSQL-реализацию StockLedger.
func NewStockLedger(store *Store, options ...LedgerOption) *StockLedger {
	ledger := &StockLedger{
		db:    store.DB(),
		ttl:   defaultReservationTTL,
		clock: func() time.Time { return time.Now().UTC() },
	}
	for _, option := range options {
		option(ledger)
	}
	return ledger
}

var _ domain.StockLedger = (*StockLedger)(nil)

// GetAvailable возвращает current - reserved или ErrProductNotFound.
func (l *StockLedger) GetAvailable(ctx context.Context, productID string) (int32, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var available int32
	err := l.db.QueryRowContext(ctx, `
		SELECT current_stock - reserved_stock
		FROM stock_levels
		WHERE product_id = $1
	`, productID).Scan(&available)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrProductNotFound
		}
		return 0, fmt.Errorf("select stock: %w", err)
	}
	return available, nil
}

// Reserve удерживает qty товара. Условие внутри UPDATE делает проверку и
// инкремент резерва одной атомарной операцией на стороне базы.
func (l *StockLedger) Reserve(ctx context.Context, productID string, qty int32) (domain.Reservation, error) {
	if qty <= 0 {
		return domain.Reservation{}, domain.ErrInvalidQuantity
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	result, err := tx.ExecContext(ctx, `
		UPDATE stock_levels
		SET reserved_stock = reserved_stock + $2, updated_at = now()
		WHERE product_id = $1 AND current_stock - reserved_stock >= $2
	`, productID, qty)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("reserve stock: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("reserve stock rows: %w", err)
	}
	if affected == 0 {
		var exists bool
		if err = tx.QueryRowContext(ctx, `
			SELECT EXISTS (SELECT 1 FROM stock_levels WHERE product_id = $1)
		`, productID).Scan(&exists); err != nil {
			return domain.Reservation{}, fmt.Errorf("check product: %w", err)
		}
		if !exists {
			err = domain.ErrProductNotFound
			return domain.Reservation{}, err
		}
		err = domain.ErrInsufficientStock
		return domain.Reservation{}, err
	}

	now := l.clock()
	res := domain.Reservation{
		ID:        uuid.NewString(),
		ProductID: productID,
		Qty:       qty,
		Status:    domain.ReservationStatusHeld,
		CreatedAt: now,
		ExpiresAt: now.Add(l.ttl),
	}
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO stock_reservations (id, product_id, qty, status, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, res.ID, res.ProductID, res.Qty, string(res.Status), res.CreatedAt, res.ExpiresAt); err != nil {
		return domain.Reservation{}, fmt.Errorf("insert reservation: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return domain.Reservation{}, fmt.Errorf("commit reserve: %w", err)
	}
	return res, nil
}

// Release снимает резерв. Идемпотентен: уже снятый или неизвестный резерв — no-op.
func (l *StockLedger) Release(ctx context.Context, res domain.Reservation) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var productID string
	var qty int32
	err = tx.QueryRowContext(ctx, `
		UPDATE stock_reservations
		SET status = 'released'
		WHERE id = $1 AND status = 'held'
		RETURNING product_id, qty
	`, res.ID).Scan(&productID, &qty)
	if errors.Is(err, sql.ErrNoRows) {
		err = nil
		return tx.Commit()
	}
	if err != nil {
		return fmt.Errorf("release reservation: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `
		UPDATE stock_levels
		SET reserved_stock = reserved_stock - $2, updated_at = now()
		WHERE product_id = $1
	`, productID, qty); err != nil {
		return fmt.Errorf("release stock: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit release: %w", err)
	}
	return nil
}

// Commit финализирует резерв: списывает сток и снимает удержание.
// Истёкший, снятый или уже закоммиченный резерв — ErrInvalidReservation.
func (l *StockLedger) Commit(ctx context.Context, res domain.Reservation) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var productID string
	var qty int32
	err = tx.QueryRowContext(ctx, `
		UPDATE stock_reservations
		SET status = 'committed'
		WHERE id = $1 AND status = 'held' AND expires_at > $2
		RETURNING product_id, qty
	`, res.ID, l.clock()).Scan(&productID, &qty)
	if errors.Is(err, sql.ErrNoRows) {
		err = domain.ErrInvalidReservation
		return err
	}
	if err != nil {
		return fmt.Errorf("commit reservation: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `
		UPDATE stock_levels
		SET current_stock = current_stock - $2,
		    reserved_stock = reserved_stock - $2,
		    updated_at = now()
		WHERE product_id = $1
	`, productID, qty); err != nil {
		return fmt.Errorf("commit stock: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// SetStock задаёт текущий остаток товара. Остаток ниже удержанного резерва
// не принимается.
func (l *StockLedger) SetStock(ctx context.Context, productID string, qty int32) error {
	if qty < 0 {
		return domain.ErrInvalidQuantity
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	result, err := l.db.ExecContext(ctx, `
		INSERT INTO stock_levels (product_id, current_stock, reserved_stock, updated_at)
		VALUES ($1, $2, 0, now())
		ON CONFLICT (product_id) DO UPDATE
		SET current_stock = EXCLUDED.current_stock, updated_at = now()
		WHERE stock_levels.reserved_stock <= EXCLUDED.current_stock
	`, productID, qty)
	if err != nil {
		return fmt.Errorf("set stock: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set stock rows: %w", err)
	}
	if affected == 0 {
		return domain.ErrInsufficientStock
	}
	return nil
}

// LowStock возвращает товары с доступным остатком на пороге или ниже.
func (l *StockLedger) LowStock(ctx context.Context, threshold int32) ([]domain.StockRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := l.db.QueryContext(ctx, `
		SELECT product_id, current_stock, reserved_stock
		FROM stock_levels
		WHERE current_stock - reserved_stock <= $1
		ORDER BY product_id
	`, threshold)
	if err != nil {
		return nil, fmt.Errorf("select low stock: %w", err)
	}
	defer rows.Close()

	var records []domain.StockRecord
	for rows.Next() {
		var rec domain.StockRecord
		if err := rows.Scan(&rec.ProductID, &rec.CurrentStock, &rec.ReservedStock); err != nil {
			return nil, fmt.Errorf("scan stock record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate low stock: %w", err)
	}
	return records, nil
}

// ReleaseExpired снимает до limit истёкших резервов, созданных до before.
// SKIP LOCKED позволяет нескольким sweep-воркерам работать без конфликтов.
func (l *StockLedger) ReleaseExpired(ctx context.Context, before time.Time, limit int) (int, error) {
	if limit <= 0 {
		limit = 100
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	rows, err := tx.QueryContext(ctx, `
		SELECT id, product_id, qty
		FROM stock_reservations
		WHERE status = 'held' AND expires_at <= $1
		ORDER BY expires_at
		LIMIT $2
		FOR UPDATE SKIP LOCKED
	`, before, limit)
	if err != nil {
		return 0, fmt.Errorf("select expired reservations: %w", err)
	}

	type expired struct {
		id        string
		productID string
		qty       int32
	}
	var batch []expired
	for rows.Next() {
		var e expired
		if err = rows.Scan(&e.id, &e.productID, &e.qty); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan expired reservation: %w", err)
		}
		batch = append(batch, e)
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return 0, fmt.Errorf("iterate expired reservations: %w", err)
	}

	for _, e := range batch {
		if _, err = tx.ExecContext(ctx, `
			UPDATE stock_reservations SET status = 'released' WHERE id = $1
		`, e.id); err != nil {
			return 0, fmt.Errorf("release expired reservation: %w", err)
		}
		if _, err = tx.ExecContext(ctx, `
			UPDATE stock_levels
			SET reserved_stock = reserved_stock - $2, updated_at = now()
			WHERE product_id = $1
		`, e.productID, e.qty); err != nil {
			return 0, fmt.Errorf("release expired stock: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit release expired: %w", err)
	}
	return len(batch), nil
}
