package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type saleRepository struct {
	db *sql.DB
}

// NewSaleRepository создаёт PostgreSQL-реализацию SaleRepository.
func NewSaleRepository(store *Store) domain.SaleRepository {
	return &saleRepository{db: store.DB()}
}

var _ domain.SaleRepository = (*saleRepository)(nil)

// Append записывает продажу и её позиции. Продажа неизменяема: повторная
// запись того же ID — ошибка.
func (r *saleRepository) Append(ctx context.Context, sale domain.Sale) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sales (
			id, customer_id, subtotal, tax, delivery_fee, discount, total, loyalty_points, committed_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		sale.ID, sale.CustomerID, sale.Subtotal, sale.Tax, sale.DeliveryFee,
		sale.Discount, sale.Total, sale.LoyaltyPoints, sale.CommittedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("sale %q already recorded", sale.ID)
		}
		return fmt.Errorf("insert sale: %w", err)
	}

	for _, line := range sale.Lines {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO sale_lines (sale_id, product_id, name, unit_price, qty, added_at)
			VALUES ($1,$2,$3,$4,$5,$6)
		`, sale.ID, line.ProductID, line.Name, line.UnitPrice, line.Qty, line.AddedAt); err != nil {
			return fmt.Errorf("insert sale line: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit append sale: %w", err)
	}
	return nil
}

// Get возвращает продажу по ID или ErrSaleNotFound.
func (r *saleRepository) Get(ctx context.Context, id string) (domain.Sale, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var sale domain.Sale
	err := r.db.QueryRowContext(ctx, `
		SELECT id, customer_id, subtotal, tax, delivery_fee, discount, total, loyalty_points, committed_at
		FROM sales
		WHERE id = $1
	`, id).Scan(
		&sale.ID, &sale.CustomerID, &sale.Subtotal, &sale.Tax, &sale.DeliveryFee,
		&sale.Discount, &sale.Total, &sale.LoyaltyPoints, &sale.CommittedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Sale{}, domain.ErrSaleNotFound
		}
		return domain.Sale{}, fmt.Errorf("select sale: %w", err)
	}

	lines, err := r.loadLines(ctx, sale.ID)
	if err != nil {
		return domain.Sale{}, err
	}
	sale.Lines = lines
	return sale, nil
}

// ListByCustomer возвращает продажи покупателя от новых к старым.
func (r *saleRepository) ListByCustomer(ctx context.Context, customerID string, limit int) ([]domain.Sale, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	query := `
		SELECT id, customer_id, subtotal, tax, delivery_fee, discount, total, loyalty_points, committed_at
		FROM sales
		WHERE customer_id = $1
		ORDER BY committed_at DESC, id DESC
	`

	var (
		rows *sql.Rows
		err  error
	)
	if limit > 0 {
		rows, err = r.db.QueryContext(ctx, query+" LIMIT $2", customerID, limit)
	} else {
		rows, err = r.db.QueryContext(ctx, query, customerID)
	}
	if err != nil {
		return nil, fmt.Errorf("select sales: %w", err)
	}
	defer rows.Close()

	var sales []domain.Sale
	for rows.Next() {
		var sale domain.Sale
		if err := rows.Scan(
			&sale.ID, &sale.CustomerID, &sale.Subtotal, &sale.Tax, &sale.DeliveryFee,
			&sale.Discount, &sale.Total, &sale.LoyaltyPoints, &sale.CommittedAt,
		); err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sales: %w", err)
	}

	for i := range sales {
		lines, err := r.loadLines(ctx, sales[i].ID)
		if err != nil {
			return nil, err
		}
		sales[i].Lines = lines
	}
	return sales, nil
}

// TotalRevenue возвращает суммарную выручку и число продаж.
func (r *saleRepository) TotalRevenue(ctx context.Context) (int64, int, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var total int64
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(total), 0), COUNT(*)
		FROM sales
	`).Scan(&total, &count)
	if err != nil {
		return 0, 0, fmt.Errorf("select revenue: %w", err)
	}
	return total, count, nil
}

func (r *saleRepository) loadLines(ctx context.Context, saleID string) ([]domain.CartLine, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT product_id, name, unit_price, qty, added_at
		FROM sale_lines
		WHERE sale_id = $1
		ORDER BY id
	`, saleID)
	if err != nil {
		return nil, fmt.Errorf("select sale lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.CartLine
	for rows.Next() {
		var line domain.CartLine
		if err := rows.Scan(&line.ProductID, &line.Name, &line.UnitPrice, &line.Qty, &line.AddedAt); err != nil {
			return nil, fmt.Errorf("scan sale line: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sale lines: %w", err)
	}
	return lines, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
