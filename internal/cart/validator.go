package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Validator сверяет запрошенные количества корзины с живым стоком.
// Операция read-only: ничего не резервирует и носит рекомендательный
// характер — доступность может измениться между показом и оплатой,
// поэтому перед коммитом валидация выполняется повторно.
type Validator struct {
	ledger domain.StockLedger
}

// NewValidator создаёт валидатор поверх StockLedger.
func NewValidator(ledger domain.StockLedger) *Validator {
	return &Validator{ledger: ledger}
}

// Validate возвращает скорректированную копию корзины и список предупреждений.
// Количество позиции никогда не увеличивается: только сохраняется, урезается
// до доступного или позиция удаляется целиком.
func (v *Validator) Validate(ctx context.Context, c domain.Cart) (domain.Cart, []domain.StockAdjustmentWarning, error) {
	corrected := c
	corrected.Lines = make([]domain.CartLine, 0, len(c.Lines))
	var warnings []domain.StockAdjustmentWarning

	for _, line := range c.Lines {
		available, err := v.ledger.GetAvailable(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, domain.ErrProductNotFound) {
				// Товар исчез из стока: позиция снимается как out-of-stock.
				warnings = append(warnings, domain.StockAdjustmentWarning{
					ProductID:   line.ProductID,
					ProductName: line.Name,
					Requested:   line.Qty,
					Granted:     0,
					Reason:      domain.StockWarningOutOfStock,
				})
				continue
			}
			return domain.Cart{}, nil, fmt.Errorf("check stock for %q: %w", line.ProductID, err)
		}

		switch {
		case available >= line.Qty:
			corrected.Lines = append(corrected.Lines, line)
		case available > 0:
			warnings = append(warnings, domain.StockAdjustmentWarning{
				ProductID:   line.ProductID,
				ProductName: line.Name,
				Requested:   line.Qty,
				Granted:     available,
				Reason:      domain.StockWarningPartialStock,
			})
			line.Qty = available
			corrected.Lines = append(corrected.Lines, line)
		default:
			warnings = append(warnings, domain.StockAdjustmentWarning{
				ProductID:   line.ProductID,
				ProductName: line.Name,
				Requested:   line.Qty,
				Granted:     0,
				Reason:      domain.StockWarningOutOfStock,
			})
		}
	}

	return corrected, warnings, nil
}
