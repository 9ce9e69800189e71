package kafka

import "time"

// EventType определяет тип события
type EventType string

const (
	// Sale события
	EventTypeSaleCommitted EventType = "sale.committed"

	// Stock события
	EventTypeStockReserved EventType = "stock.reserved"
	EventTypeStockReleased EventType = "stock.released"
	EventTypeStockLow      EventType = "stock.low"

	// Customer события
	EventTypeLoyaltyAwarded EventType = "loyalty.awarded"
)

// Topics для Kafka
const (
	TopicSaleEvents  = "storefront.sale.events"
	TopicStockEvents = "storefront.stock.events"
)

// SaleEvent представляет событие продажи
type SaleEvent struct {
	EventType  EventType              `json:"event_type"`
	SaleID     string                 `json:"sale_id"`
	CustomerID string                 `json:"customer_id,omitempty"`
	Total      int64                  `json:"total"`
	Timestamp  time.Time              `json:"timestamp"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// StockEvent представляет событие движения стока
type StockEvent struct {
	EventType EventType              `json:"event_type"`
	ProductID string                 `json:"product_id"`
	Quantity  int32                  `json:"quantity"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewSaleEvent создает новое событие продажи
func NewSaleEvent(eventType EventType, saleID, customerID string, total int64, metadata map[string]interface{}) *SaleEvent {
	return &SaleEvent{
		EventType:  eventType,
		SaleID:     saleID,
		CustomerID: customerID,
		Total:      total,
		Timestamp:  time.Now(),
		Metadata:   metadata,
	}
}

// NewStockEvent создает новое событие стока
func NewStockEvent(eventType EventType, productID string, quantity int32, metadata map[string]interface{}) *StockEvent {
	return &StockEvent{
		EventType: eventType,
		ProductID: productID,
		Quantity:  quantity,
		Timestamp: time.Now(),
		Metadata:  metadata,
	}
}
