package http

import (
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// cartLineResponse — позиция корзины в ответе API.
type cartLineResponse struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	Qty       int32  `json:"qty"`
	LineTotal int64  `json:"line_total"`
}

// cartResponse — корзина в ответе API.
type cartResponse struct {
	OwnerKey  string             `json:"owner_key"`
	Lines     []cartLineResponse `json:"lines"`
	ItemCount int32              `json:"item_count"`
	ExpiresAt time.Time          `json:"expires_at,omitempty"`
}

func toCartResponse(c domain.Cart) cartResponse {
	resp := cartResponse{
		OwnerKey:  c.OwnerKey,
		Lines:     make([]cartLineResponse, 0, len(c.Lines)),
		ItemCount: c.ItemCount(),
		ExpiresAt: c.ExpiresAt,
	}
	for _, line := range c.Lines {
		resp.Lines = append(resp.Lines, cartLineResponse{
			ProductID: line.ProductID,
			Name:      line.Name,
			UnitPrice: line.UnitPrice,
			Qty:       line.Qty,
			LineTotal: line.UnitPrice * int64(line.Qty),
		})
	}
	return resp
}

// totalsResponse — расчёт стоимости корзины.
type totalsResponse struct {
	Subtotal    int64 `json:"subtotal"`
	Tax         int64 `json:"tax"`
	DeliveryFee int64 `json:"delivery_fee"`
	Discount    int64 `json:"discount"`
	Total       int64 `json:"total"`
	ItemCount   int32 `json:"item_count"`
}

func toTotalsResponse(t domain.Totals) totalsResponse {
	return totalsResponse{
		Subtotal:    t.Subtotal,
		Tax:         t.Tax,
		DeliveryFee: t.DeliveryFee,
		Discount:    t.Discount,
		Total:       t.Total,
		ItemCount:   t.ItemCount,
	}
}

// warningResponse — предупреждение валидатора о расхождении со стоком.
type warningResponse struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Requested   int32  `json:"requested"`
	Granted     int32  `json:"granted"`
	Reason      string `json:"reason"`
}

func toWarningResponses(warnings []domain.StockAdjustmentWarning) []warningResponse {
	out := make([]warningResponse, 0, len(warnings))
	for _, w := range warnings {
		out = append(out, warningResponse{
			ProductID:   w.ProductID,
			ProductName: w.ProductName,
			Requested:   w.Requested,
			Granted:     w.Granted,
			Reason:      string(w.Reason),
		})
	}
	return out
}

// saleResponse — подтверждённая продажа.
type saleResponse struct {
	ID            string             `json:"id"`
	Lines         []cartLineResponse `json:"lines"`
	Subtotal      int64              `json:"subtotal"`
	Tax           int64              `json:"tax"`
	DeliveryFee   int64              `json:"delivery_fee"`
	Discount      int64              `json:"discount"`
	Total         int64              `json:"total"`
	CustomerID    string             `json:"customer_id,omitempty"`
	LoyaltyPoints int64              `json:"loyalty_points"`
	CommittedAt   time.Time          `json:"committed_at"`
}

func toSaleResponse(s domain.Sale) saleResponse {
	resp := saleResponse{
		ID:            s.ID,
		Lines:         make([]cartLineResponse, 0, len(s.Lines)),
		Subtotal:      s.Subtotal,
		Tax:           s.Tax,
		DeliveryFee:   s.DeliveryFee,
		Discount:      s.Discount,
		Total:         s.Total,
		CustomerID:    s.CustomerID,
		LoyaltyPoints: s.LoyaltyPoints,
		CommittedAt:   s.CommittedAt,
	}
	for _, line := range s.Lines {
		resp.Lines = append(resp.Lines, cartLineResponse{
			ProductID: line.ProductID,
			Name:      line.Name,
			UnitPrice: line.UnitPrice,
			Qty:       line.Qty,
			LineTotal: line.UnitPrice * int64(line.Qty),
		})
	}
	return resp
}

// notificationResponse — событие операционной ленты.
type notificationResponse struct {
	ID           string    `json:"id"`
	Category     string    `json:"category"`
	Severity     string    `json:"severity"`
	Kind         string    `json:"kind"`
	Message      string    `json:"message"`
	Timestamp    time.Time `json:"timestamp"`
	Acknowledged bool      `json:"acknowledged"`
}

func toNotificationResponses(events []domain.NotificationEvent) []notificationResponse {
	out := make([]notificationResponse, 0, len(events))
	for _, e := range events {
		out = append(out, notificationResponse{
			ID:           e.ID,
			Category:     string(e.Category),
			Severity:     string(e.Severity),
			Kind:         string(e.Kind),
			Message:      e.Message,
			Timestamp:    e.Timestamp,
			Acknowledged: e.Acknowledged,
		})
	}
	return out
}

// stockResponse — доступный остаток товара.
type stockResponse struct {
	ProductID string `json:"product_id"`
	Available int32  `json:"available"`
}
