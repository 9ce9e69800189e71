package domain

import "errors"

var (
	// ErrInvalidQuantity возвращается при попытке добавить в корзину неположительное количество.
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")
	// ErrProductNotFound возвращается, если товар отсутствует в каталоге или в стоке.
	ErrProductNotFound = errors.New("product not found")
	// ErrInsufficientStock — доступного остатка не хватает для резервирования.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInvalidReservation — резерв уже закоммичен, снят или истёк.
	ErrInvalidReservation = errors.New("invalid reservation")
	// ErrDiscountNotFound — неизвестный промокод.
	ErrDiscountNotFound = errors.New("discount code not found")
	// ErrDiscountMinimumNotMet — подытог меньше минимальной суммы промокода.
	ErrDiscountMinimumNotMet = errors.New("discount minimum subtotal not met")
	// ErrValidationRequired — корзина разошлась со стоком, нужно явное подтверждение перед оплатой.
	ErrValidationRequired = errors.New("cart requires re-validation before commit")
	// ErrCartNotFound возвращается репозиторием, если у владельца нет сохранённой корзины.
	ErrCartNotFound = errors.New("cart not found")
	// ErrEmptyCart — попытка оформить заказ по пустой (или истёкшей) корзине.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrSaleNotFound возвращается, если продажа не найдена в репозитории.
	ErrSaleNotFound = errors.New("sale not found")
	// ErrSaleAmountMismatch — суммы продажи не сходятся с её позициями.
	ErrSaleAmountMismatch = errors.New("sale totals do not match lines")
	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// IsInsufficientStock проверяет, является ли ошибка нехваткой стока.
func IsInsufficientStock(err error) bool {
	return errors.Is(err, ErrInsufficientStock)
}

// IsValidationRequired проверяет, требует ли ошибка повторной валидации корзины.
func IsValidationRequired(err error) bool {
	return errors.Is(err, ErrValidationRequired)
}
