package pricing

import (
	"fmt"
	"math"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Значения по умолчанию для розничной конфигурации (целые единицы UGX).
const (
	DefaultTaxRate               = 0.18
	DefaultDeliveryFee           = int64(5000)
	DefaultFreeDeliveryThreshold = int64(100000)
)

// Config задаёт параметры расчёта итогов. Нулевые поля заменяются
// значениями по умолчанию в NewEngine.
type Config struct {
	TaxRate               float64
	DeliveryFee           int64
	FreeDeliveryThreshold int64
	Discounts             domain.DiscountCatalog
}

// Engine вычисляет итоги корзины. Расчёт детерминирован: один и тот же
// набор позиций, код скидки и конфигурация всегда дают один результат.
type Engine struct {
	cfg Config
}

// NewEngine создаёт движок расчёта с заполнением значений по умолчанию.
func NewEngine(cfg Config) *Engine {
	if cfg.TaxRate <= 0 {
		cfg.TaxRate = DefaultTaxRate
	}
	if cfg.DeliveryFee <= 0 {
		cfg.DeliveryFee = DefaultDeliveryFee
	}
	if cfg.FreeDeliveryThreshold <= 0 {
		cfg.FreeDeliveryThreshold = DefaultFreeDeliveryThreshold
	}
	if cfg.Discounts == nil {
		cfg.Discounts = domain.DefaultDiscountCatalog()
	}
	return &Engine{cfg: cfg}
}

// ComputeTotals считает итоги по позициям корзины. Пустой discountCode
// означает отсутствие скидки; неизвестный код — ошибка ErrDiscountNotFound.
func (e *Engine) ComputeTotals(lines []domain.CartLine, discountCode string) (domain.Totals, error) {
	var subtotal int64
	var itemCount int32
	for _, line := range lines {
		subtotal += line.UnitPrice * int64(line.Qty)
		itemCount += line.Qty
	}

	tax := int64(math.Round(float64(subtotal) * e.cfg.TaxRate))

	deliveryFee := e.cfg.DeliveryFee
	if subtotal >= e.cfg.FreeDeliveryThreshold {
		deliveryFee = 0
	}

	var discount int64
	if discountCode != "" {
		rule, ok := e.cfg.Discounts.Lookup(discountCode)
		if !ok {
			return domain.Totals{}, fmt.Errorf("discount %q: %w", discountCode, domain.ErrDiscountNotFound)
		}
		var err error
		discount, err = applyDiscount(subtotal, deliveryFee, rule)
		if err != nil {
			return domain.Totals{}, err
		}
	}

	total := subtotal + tax + deliveryFee - discount
	if total < 0 {
		total = 0
	}

	return domain.Totals{
		Subtotal:    subtotal,
		Tax:         tax,
		DeliveryFee: deliveryFee,
		Discount:    discount,
		Total:       total,
		ItemCount:   itemCount,
	}, nil
}

// applyDiscount вычисляет размер скидки по правилу. FreeDelivery компенсирует
// стоимость доставки целиком; при уже бесплатной доставке скидка нулевая.
func applyDiscount(subtotal, deliveryFee int64, rule domain.DiscountRule) (int64, error) {
	if subtotal < rule.MinimumSubtotal {
		return 0, fmt.Errorf("discount %s requires subtotal %d: %w",
			rule.Code, rule.MinimumSubtotal, domain.ErrDiscountMinimumNotMet)
	}

	switch rule.Kind {
	case domain.DiscountPercentage:
		return int64(math.Round(float64(subtotal) * float64(rule.Value) / 100)), nil
	case domain.DiscountFixedAmount:
		return rule.Value, nil
	case domain.DiscountFreeDelivery:
		return deliveryFee, nil
	default:
		return 0, fmt.Errorf("discount %s has unknown kind %q: %w",
			rule.Code, rule.Kind, domain.ErrDiscountNotFound)
	}
}
