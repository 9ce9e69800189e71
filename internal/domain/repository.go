package domain

import "context"

// CartRepository описывает требования к хранилищу корзин.
// Корзины принадлежат одному владельцу, поэтому межпользовательская
// сериализация не требуется.
type CartRepository interface {
	// Get возвращает корзину владельца или ErrCartNotFound.
	Get(ctx context.Context, ownerKey string) (Cart, error)
	// Save перезаписывает корзину владельца целиком.
	Save(ctx context.Context, cart Cart) error
	// Delete удаляет корзину. Отсутствие корзины ошибкой не считается.
	Delete(ctx context.Context, ownerKey string) error
}

// SaleRepository — append-only журнал продаж.
type SaleRepository interface {
	// Append сохраняет новую продажу. Возвращает ошибку, если ID уже занят.
	Append(ctx context.Context, sale Sale) error
	// Get возвращает продажу по идентификатору или ErrSaleNotFound.
	Get(ctx context.Context, id string) (Sale, error)
	// ListByCustomer возвращает продажи покупателя, новые первыми,
	// с опциональным ограничением на количество.
	ListByCustomer(ctx context.Context, customerID string, limit int) ([]Sale, error)
	// TotalRevenue возвращает сумму и количество всех продаж для сводки.
	TotalRevenue(ctx context.Context) (int64, int, error)
}
