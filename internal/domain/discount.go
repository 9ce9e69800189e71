package domain

import "strings"

// DiscountKind определяет способ расчёта скидки.
type DiscountKind string

const (
	// DiscountPercentage — процент от подытога.
	DiscountPercentage DiscountKind = "percentage"
	// DiscountFixedAmount — фиксированная сумма.
	DiscountFixedAmount DiscountKind = "fixed"
	// DiscountFreeDelivery — обнуление стоимости доставки; Value игнорируется.
	DiscountFreeDelivery DiscountKind = "free_delivery"
)

// DiscountRule — неизменяемые справочные данные одного промокода.
type DiscountRule struct {
	Code string
	Kind DiscountKind
	// Value — процент для percentage, сумма для fixed.
	Value int64
	// MinimumSubtotal — минимальный подытог для применения кода.
	MinimumSubtotal int64
}

// DiscountCatalog — отображение кода в правило. Коды хранятся в верхнем регистре.
type DiscountCatalog map[string]DiscountRule

// Lookup находит правило по коду без учёта регистра.
func (c DiscountCatalog) Lookup(code string) (DiscountRule, bool) {
	rule, ok := c[strings.ToUpper(code)]
	return rule, ok
}

// DefaultDiscountCatalog возвращает стартовый набор промокодов магазина.
// Конкретные значения — конфигурация, а не контракт движка.
func DefaultDiscountCatalog() DiscountCatalog {
	return DiscountCatalog{
		"SAVE10":   {Code: "SAVE10", Kind: DiscountPercentage, Value: 10, MinimumSubtotal: 50000},
		"NEWUSER":  {Code: "NEWUSER", Kind: DiscountFixedAmount, Value: 10000, MinimumSubtotal: 20000},
		"FREESHIP": {Code: "FREESHIP", Kind: DiscountFreeDelivery, Value: 0, MinimumSubtotal: 0},
	}
}
