package domain

import "time"

// NotificationCategory группирует события ленты по источнику.
type NotificationCategory string

const (
	NotificationCategoryInventory NotificationCategory = "inventory"
	NotificationCategoryCustomer  NotificationCategory = "customer"
	NotificationCategorySystem    NotificationCategory = "system"
)

// NotificationSeverity задаёт важность события.
type NotificationSeverity string

const (
	NotificationSeverityInfo    NotificationSeverity = "info"
	NotificationSeveritySuccess NotificationSeverity = "success"
	NotificationSeverityWarning NotificationSeverity = "warning"
)

// NotificationKind уточняет правило генерации события; по нему работает дедупликация.
type NotificationKind string

const (
	// NotificationKindLowStock — сток товара на пороге или ниже.
	NotificationKindLowStock NotificationKind = "low_stock"
	// NotificationKindLoyaltyAward — покупателю начислены баллы лояльности.
	NotificationKindLoyaltyAward NotificationKind = "loyalty_award"
	// NotificationKindEntityCreated — в систему добавлена новая сущность.
	NotificationKindEntityCreated NotificationKind = "entity_created"
	// NotificationKindEntityUpdated — сущность обновлена.
	NotificationKindEntityUpdated NotificationKind = "entity_updated"
)

// NotificationEvent — одно событие операционной ленты.
type NotificationEvent struct {
	ID        string
	Category  NotificationCategory
	Severity  NotificationSeverity
	Kind      NotificationKind
	Message   string
	Timestamp time.Time
	// Acknowledged снимает событие из дедупликации low-stock.
	Acknowledged bool
}
