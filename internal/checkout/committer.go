package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/cart"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/pricing"
)

const (
	defaultLoyaltyRate       = 0.01
	defaultLowStockThreshold = int32(10)
)

// Stage — этап конвейера оформления; попадает в метрики и логи.
type Stage string

const (
	StageValidating Stage = "validating"
	StageReserving  Stage = "reserving"
	StageCommitting Stage = "committing"
	StageCommitted  Stage = "committed"
	StageRejected   Stage = "rejected"
)

// Request описывает одну попытку оформления заказа.
type Request struct {
	OwnerKey     string
	CustomerID   string
	DiscountCode string
	// AcceptAdjustments подтверждает скорректированные валидатором количества.
	// Без подтверждения попытка с предупреждениями отклоняется.
	AcceptAdjustments bool
}

// Result — исход успешной (или отклонённой с предупреждениями) попытки.
type Result struct {
	Sale     domain.Sale
	Warnings []domain.StockAdjustmentWarning
}

// CommitterOptions задаёт зависимости и параметры конвейера оформления.
type CommitterOptions struct {
	Logger            *log.Entry
	Feed              domain.NotificationFeed
	Outbox            domain.OutboxRepository
	Metrics           *metrics.CheckoutMetrics
	Clock             func() time.Time
	LoyaltyRate       float64
	LowStockThreshold int32
}

// CommitterOption настраивает Committer.
type CommitterOption func(*CommitterOptions)

// WithLogger задаёт logger для конвейера.
func WithLogger(logger *log.Entry) CommitterOption {
	return func(opts *CommitterOptions) {
		opts.Logger = logger
	}
}

// WithFeed задаёт операционную ленту для post-commit уведомлений.
func WithFeed(feed domain.NotificationFeed) CommitterOption {
	return func(opts *CommitterOptions) {
		opts.Feed = feed
	}
}

// WithOutbox задаёт transactional outbox для событий продажи и стока.
func WithOutbox(outbox domain.OutboxRepository) CommitterOption {
	return func(opts *CommitterOptions) {
		opts.Outbox = outbox
	}
}

// WithMetrics задаёт метрики конвейера.
func WithMetrics(m *metrics.CheckoutMetrics) CommitterOption {
	return func(opts *CommitterOptions) {
		opts.Metrics = m
	}
}

// WithClock подменяет источник времени (для тестов).
func WithClock(clock func() time.Time) CommitterOption {
	return func(opts *CommitterOptions) {
		opts.Clock = clock
	}
}

// WithLoyaltyRate задаёт долю итога, начисляемую баллами лояльности.
func WithLoyaltyRate(rate float64) CommitterOption {
	return func(opts *CommitterOptions) {
		opts.LoyaltyRate = rate
	}
}

// WithLowStockThreshold задаёт порог низкого остатка для post-commit проверки.
func WithLowStockThreshold(threshold int32) CommitterOption {
	return func(opts *CommitterOptions) {
		opts.LowStockThreshold = threshold
	}
}

// Committer проводит попытку оформления через этапы
// Validating → Reserving → Committing → Committed. Любой отказ до первого
// Commit снимает уже удержанные резервы; после первого Commit попытка
// доводится до конца без отката.
type Committer struct {
	carts             *cart.Service
	validator         *cart.Validator
	pricing           *pricing.Engine
	ledger            domain.StockLedger
	sales             domain.SaleRepository
	feed              domain.NotificationFeed
	outbox            domain.OutboxRepository
	metrics           *metrics.CheckoutMetrics
	logger            *log.Entry
	clock             func() time.Time
	loyaltyRate       float64
	lowStockThreshold int32
}

// NewCommitter создаёт конвейер оформления заказа.
func NewCommitter(
	carts *cart.Service,
	validator *cart.Validator,
	pricingEngine *pricing.Engine,
	ledger domain.StockLedger,
	sales domain.SaleRepository,
	options ...CommitterOption,
) *Committer {
	opts := CommitterOptions{
		Clock:             func() time.Time { return time.Now().UTC() },
		LoyaltyRate:       defaultLoyaltyRate,
		LowStockThreshold: defaultLowStockThreshold,
	}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "order-committer")
	}
	if opts.LoyaltyRate < 0 {
		opts.LoyaltyRate = 0
	}
	if opts.LowStockThreshold <= 0 {
		opts.LowStockThreshold = defaultLowStockThreshold
	}

	return &Committer{
		carts:             carts,
		validator:         validator,
		pricing:           pricingEngine,
		ledger:            ledger,
		sales:             sales,
		feed:              opts.Feed,
		outbox:            opts.Outbox,
		metrics:           opts.Metrics,
		logger:            logger,
		clock:             opts.Clock,
		loyaltyRate:       opts.LoyaltyRate,
		lowStockThreshold: opts.LowStockThreshold,
	}
}

// Commit проводит попытку оформления. При предупреждениях валидации без
// подтверждения возвращает ErrValidationRequired и сами предупреждения;
// повторный вызов с AcceptAdjustments проводит скорректированную корзину.
func (c *Committer) Commit(ctx context.Context, req Request) (Result, error) {
	start := time.Now()
	if c.metrics != nil {
		c.metrics.RecordCheckoutStarted()
	}
	defer func() {
		if c.metrics != nil {
			c.metrics.RecordCheckoutInFlightFinished()
			c.metrics.RecordCheckoutDuration(time.Since(start))
		}
	}()

	corrected, warnings, err := c.validate(ctx, req)
	if err != nil {
		c.recordRejected()
		return Result{Warnings: warnings}, err
	}

	totals, err := c.pricing.ComputeTotals(corrected.Lines, req.DiscountCode)
	if err != nil {
		c.recordRejected()
		return Result{Warnings: warnings}, fmt.Errorf("compute totals: %w", err)
	}

	reservations, err := c.reserve(ctx, corrected)
	if err != nil {
		c.recordRejected()
		return Result{Warnings: warnings}, err
	}

	sale, err := c.commit(ctx, req, corrected, totals, reservations)
	if err != nil {
		if c.metrics != nil {
			c.metrics.RecordCheckoutFailed()
		}
		return Result{Warnings: warnings}, err
	}

	if err := c.carts.Clear(ctx, req.OwnerKey); err != nil {
		c.logger.WithError(err).WithField("owner_key", req.OwnerKey).Warn("failed to clear cart after commit")
	}

	c.afterCommit(ctx, sale)

	if c.metrics != nil {
		c.metrics.RecordCheckoutCompleted()
	}
	c.logger.WithFields(log.Fields{
		"sale_id":  sale.ID,
		"total":    sale.Total,
		"customer": sale.CustomerID,
	}).Info("checkout completed")

	return Result{Sale: sale, Warnings: warnings}, nil
}

// validate загружает корзину и проверяет её против леджера.
func (c *Committer) validate(ctx context.Context, req Request) (domain.Cart, []domain.StockAdjustmentWarning, error) {
	defer c.recordStage(StageValidating, time.Now())

	current, err := c.carts.Get(ctx, req.OwnerKey)
	if err != nil {
		return domain.Cart{}, nil, fmt.Errorf("load cart: %w", err)
	}
	if current.IsEmpty() {
		return domain.Cart{}, nil, domain.ErrEmptyCart
	}

	corrected, warnings, err := c.validator.Validate(ctx, current)
	if err != nil {
		return domain.Cart{}, nil, fmt.Errorf("validate cart: %w", err)
	}

	if len(warnings) > 0 && !req.AcceptAdjustments {
		return domain.Cart{}, warnings, domain.ErrValidationRequired
	}
	if corrected.IsEmpty() {
		return domain.Cart{}, warnings, domain.ErrEmptyCart
	}
	return corrected, warnings, nil
}

// reserve удерживает сток под каждую позицию. Любой отказ снимает уже
// полученные резервы и завершает попытку.
func (c *Committer) reserve(ctx context.Context, corrected domain.Cart) ([]domain.Reservation, error) {
	defer c.recordStage(StageReserving, time.Now())

	reservations := make([]domain.Reservation, 0, len(corrected.Lines))
	for _, line := range corrected.Lines {
		res, err := c.ledger.Reserve(ctx, line.ProductID, line.Qty)
		if err != nil {
			c.releaseAll(ctx, reservations)
			return nil, fmt.Errorf("reserve product %q qty %d: %w", line.ProductID, line.Qty, err)
		}
		reservations = append(reservations, res)
		c.emitEvent("stock", res.ProductID, string(kafka.EventTypeStockReserved),
			kafka.NewStockEvent(kafka.EventTypeStockReserved, res.ProductID, res.Qty, map[string]interface{}{
				"reservation_id": res.ID,
			}))
	}
	return reservations, nil
}

// commit финализирует резервы и записывает продажу. До первого успешного
// Commit отказ откатывается release-ом оставшихся резервов; после — попытка
// доводится до конца, ошибки отдельных позиций только логируются.
func (c *Committer) commit(ctx context.Context, req Request, corrected domain.Cart, totals domain.Totals, reservations []domain.Reservation) (domain.Sale, error) {
	defer c.recordStage(StageCommitting, time.Now())

	committed := 0
	for i, res := range reservations {
		if err := c.ledger.Commit(ctx, res); err != nil {
			if committed == 0 {
				c.releaseAll(ctx, reservations[i:])
				return domain.Sale{}, fmt.Errorf("commit reservation %q: %w", res.ID, err)
			}
			c.logger.WithError(err).WithFields(log.Fields{
				"reservation_id": res.ID,
				"product_id":     res.ProductID,
			}).Error("commit failed after point of no return")
			continue
		}
		committed++
	}

	now := c.clock()
	sale := domain.Sale{
		ID:          uuid.NewString(),
		Lines:       append([]domain.CartLine(nil), corrected.Lines...),
		Subtotal:    totals.Subtotal,
		Tax:         totals.Tax,
		DeliveryFee: totals.DeliveryFee,
		Discount:    totals.Discount,
		Total:       totals.Total,
		CustomerID:  req.CustomerID,
		CommittedAt: now,
	}
	if req.CustomerID != "" {
		sale.LoyaltyPoints = int64(math.Floor(float64(totals.Total) * c.loyaltyRate))
	}

	if err := c.sales.Append(ctx, sale); err != nil {
		return domain.Sale{}, fmt.Errorf("append sale: %w", err)
	}
	return sale, nil
}

// afterCommit выполняет post-commit хвост: уведомления и события outbox.
// Ошибки здесь не отменяют уже записанную продажу.
func (c *Committer) afterCommit(ctx context.Context, sale domain.Sale) {
	c.emitEvent("sale", sale.ID, string(kafka.EventTypeSaleCommitted),
		kafka.NewSaleEvent(kafka.EventTypeSaleCommitted, sale.ID, sale.CustomerID, sale.Total, map[string]interface{}{
			"item_count": len(sale.Lines),
		}))

	if sale.LoyaltyPoints > 0 {
		c.appendNotification(domain.NotificationEvent{
			Category: domain.NotificationCategoryCustomer,
			Severity: domain.NotificationSeveritySuccess,
			Kind:     domain.NotificationKindLoyaltyAward,
			Message:  fmt.Sprintf("Customer earned %d loyalty points", sale.LoyaltyPoints),
		})
		c.emitEvent("customer", sale.CustomerID, string(kafka.EventTypeLoyaltyAwarded), map[string]interface{}{
			"customer_id": sale.CustomerID,
			"sale_id":     sale.ID,
			"points":      sale.LoyaltyPoints,
		})
	}

	lowStock, err := c.ledger.LowStock(ctx, c.lowStockThreshold)
	if err != nil {
		c.logger.WithError(err).Warn("low stock check failed after commit")
		return
	}
	if len(lowStock) == 0 {
		return
	}

	c.appendNotification(domain.NotificationEvent{
		Category: domain.NotificationCategoryInventory,
		Severity: domain.NotificationSeverityWarning,
		Kind:     domain.NotificationKindLowStock,
		Message:  fmt.Sprintf("%d product(s) at or below stock threshold %d", len(lowStock), c.lowStockThreshold),
	})
	for _, record := range lowStock {
		c.emitEvent("stock", record.ProductID, string(kafka.EventTypeStockLow),
			kafka.NewStockEvent(kafka.EventTypeStockLow, record.ProductID, record.Available(), map[string]interface{}{
				"threshold": c.lowStockThreshold,
			}))
	}
}

func (c *Committer) appendNotification(event domain.NotificationEvent) {
	if c.feed == nil {
		return
	}
	c.feed.Append(event)
	if c.metrics != nil {
		c.metrics.RecordNotification()
	}
}

func (c *Committer) emitEvent(aggregateType, aggregateID, eventType string, payload interface{}) {
	if c.outbox == nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		c.logger.WithError(err).WithField("event", eventType).Error("marshal event failed")
		return
	}

	msg := domain.OutboxMessage{
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       data,
	}
	if _, err := c.outbox.Enqueue(msg); err != nil {
		c.logger.WithError(err).WithField("event", eventType).Error("enqueue event failed")
		return
	}
	if c.metrics != nil {
		c.metrics.RecordOutboxEvent()
	}
}

func (c *Committer) releaseAll(ctx context.Context, reservations []domain.Reservation) {
	for _, res := range reservations {
		if err := c.ledger.Release(ctx, res); err != nil {
			c.logger.WithError(err).WithFields(log.Fields{
				"reservation_id": res.ID,
				"product_id":     res.ProductID,
			}).Warn("release failed during rollback")
			continue
		}
		c.emitEvent("stock", res.ProductID, string(kafka.EventTypeStockReleased),
			kafka.NewStockEvent(kafka.EventTypeStockReleased, res.ProductID, res.Qty, map[string]interface{}{
				"reservation_id": res.ID,
			}))
	}
}

func (c *Committer) recordStage(stage Stage, start time.Time) {
	if c.metrics != nil {
		c.metrics.RecordStageDuration(string(stage), time.Since(start))
	}
}

func (c *Committer) recordRejected() {
	if c.metrics != nil {
		c.metrics.RecordCheckoutRejected()
	}
}
