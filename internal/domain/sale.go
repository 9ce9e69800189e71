package domain

import "time"

// Totals — результат расчёта стоимости корзины. Все суммы в целых единицах валюты.
type Totals struct {
	Subtotal    int64
	Tax         int64
	DeliveryFee int64
	Discount    int64
	Total       int64
	ItemCount   int32
}

// Sale — финализированная продажа. Запись append-only: после создания не меняется.
type Sale struct {
	ID string
	// Lines — снапшот позиций корзины на момент коммита.
	Lines       []CartLine
	Subtotal    int64
	Tax         int64
	DeliveryFee int64
	Discount    int64
	Total       int64
	// CustomerID пуст для гостевых покупок.
	CustomerID string
	// LoyaltyPoints — начисленные баллы; 0 для гостей.
	LoyaltyPoints int64
	CommittedAt   time.Time
}

// ValidateInvariants сверяет суммы продажи с позициями и возвращает список замечаний.
func (s *Sale) ValidateInvariants() []error {
	var errs []error

	if len(s.Lines) == 0 {
		errs = append(errs, ErrEmptyCart)
	}

	var calc int64
	for _, line := range s.Lines {
		if line.Qty <= 0 {
			errs = append(errs, ErrInvalidQuantity)
		}
		calc += int64(line.Qty) * line.UnitPrice
	}
	if calc != s.Subtotal {
		errs = append(errs, ErrSaleAmountMismatch)
	}
	if s.Total < 0 {
		errs = append(errs, ErrSaleAmountMismatch)
	}

	return errs
}
