package cart

import "github.com/vladislavdragonenkov/storefront/internal/domain"

// Merge объединяет две корзины в одну: объединение по товарам, для общих
// позиций берётся максимум количеств, а не сумма — две сессии одного
// покупателя обычно выражают одно и то же намерение, и суммирование
// удваивало бы его. Результат наследует более поздний из двух ExpiresAt
// и владельца primary. Порядок: позиции primary, затем новые из secondary.
func Merge(primary, secondary domain.Cart) domain.Cart {
	merged := primary
	merged.Lines = make([]domain.CartLine, len(primary.Lines))
	copy(merged.Lines, primary.Lines)

	for _, line := range secondary.Lines {
		existing, ok := merged.Line(line.ProductID)
		if !ok {
			merged.Lines = append(merged.Lines, line)
			continue
		}
		if line.Qty > existing.Qty {
			merged.SetQuantity(line.ProductID, line.Qty)
		}
	}

	if secondary.ExpiresAt.After(merged.ExpiresAt) {
		merged.ExpiresAt = secondary.ExpiresAt
	}
	return merged
}
