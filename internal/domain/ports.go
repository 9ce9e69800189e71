package domain

import (
	"context"
	"time"
)

// StockLedger — единственный разделяемый мутируемый ресурс движка.
// Все мутации сериализуются по товару; операции над разными товарами независимы.
type StockLedger interface {
	// GetAvailable возвращает current - reserved или ErrProductNotFound.
	GetAvailable(ctx context.Context, productID string) (int32, error)
	// Reserve атомарно удерживает qty, если available >= qty, иначе ErrInsufficientStock.
	Reserve(ctx context.Context, productID string, qty int32) (Reservation, error)
	// Release снимает резерв. Идемпотентен: повторное снятие — no-op.
	Release(ctx context.Context, res Reservation) error
	// Commit финализирует резерв в списание стока.
	// ErrInvalidReservation, если резерв уже закоммичен, снят или истёк.
	Commit(ctx context.Context, res Reservation) error
	// SetStock задаёт текущий остаток товара (заведение/пополнение).
	SetStock(ctx context.Context, productID string, qty int32) error
	// LowStock возвращает записи с доступным остатком на пороге или ниже.
	LowStock(ctx context.Context, threshold int32) ([]StockRecord, error)
	// ReleaseExpired снимает до limit истёкших резервов, созданных до before.
	// Возвращает количество снятых. Используется фоновым sweep-воркером.
	ReleaseExpired(ctx context.Context, before time.Time, limit int) (int, error)
}

// ProductCatalog — внешний коллаборатор для чтения карточек товаров.
type ProductCatalog interface {
	// Get возвращает карточку товара или ErrProductNotFound.
	Get(ctx context.Context, productID string) (Product, error)
}

// NotificationFeed принимает события операционной ленты.
type NotificationFeed interface {
	// Append добавляет событие; low-stock события дедуплицируются,
	// пока предыдущее не подтверждено.
	Append(event NotificationEvent)
}

// OutboxPublisher публикует события из transactional outbox.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(event OutboxMessage) error
}

// OutboxRepository позволяет сохранять события для последующей публикации.
type OutboxRepository interface {
	Enqueue(msg OutboxMessage) (OutboxMessage, error)
	PullPending(limit int) ([]OutboxMessage, error)
	MarkSent(id string) error
	MarkFailed(id string) error
}

// OutboxMessage хранит данные для публикуемого события.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// OutboxStats — срез backlog-а outbox для метрик публикации.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}
