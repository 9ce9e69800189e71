package stock

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const defaultReservationTTL = 5 * time.Minute

// hold — активный незакоммиченный резерв внутри ledger.
type hold struct {
	qty       int32
	createdAt time.Time
	expiresAt time.Time
}

// productState хранит счётчики и активные резервы одного товара.
// Мьютекс сериализует все мутации по товару; разные товары независимы.
type productState struct {
	mu       sync.Mutex
	current  int32
	reserved int32
	holds    map[string]*hold
}

// Options задаёт параметры in-memory ledger.
type Options struct {
	Logger         *log.Entry
	ReservationTTL time.Duration
	Clock          func() time.Time
}

// Option настраивает Ledger.
type Option func(*Options)

// WithLogger задаёт logger для ledger.
func WithLogger(logger *log.Entry) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithReservationTTL задаёт срок жизни незакоммиченного резерва.
func WithReservationTTL(ttl time.Duration) Option {
	return func(opts *Options) {
		opts.ReservationTTL = ttl
	}
}

// WithClock подменяет источник времени (для тестов).
func WithClock(clock func() time.Time) Option {
	return func(opts *Options) {
		opts.Clock = clock
	}
}

// Ledger — in-memory реализация StockLedger с помодульной блокировкой
// по товару. Истёкшие резервы снимаются лениво при каждом чтении и
// фоновым sweep-воркером через ReleaseExpired.
type Ledger struct {
	mu       sync.RWMutex
	products map[string]*productState

	ttl    time.Duration
	clock  func() time.Time
	logger *log.Entry
}

// NewLedger создаёт пустой in-memory ledger.
func NewLedger(options ...Option) *Ledger {
	opts := Options{
		ReservationTTL: defaultReservationTTL,
		Clock:          func() time.Time { return time.Now().UTC() },
	}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "stock-ledger")
	}
	if opts.ReservationTTL <= 0 {
		opts.ReservationTTL = defaultReservationTTL
	}

	return &Ledger{
		products: make(map[string]*productState),
		ttl:      opts.ReservationTTL,
		clock:    opts.Clock,
		logger:   logger,
	}
}

func (l *Ledger) state(productID string) (*productState, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	st, ok := l.products[productID]
	return st, ok
}

// expireLocked снимает истёкшие резервы товара. Вызывается под state.mu.
func (l *Ledger) expireLocked(st *productState, now time.Time) int {
	released := 0
	for id, h := range st.holds {
		if now.After(h.expiresAt) {
			st.reserved -= h.qty
			delete(st.holds, id)
			released++
		}
	}
	return released
}

// GetAvailable возвращает доступный остаток товара.
func (l *Ledger) GetAvailable(ctx context.Context, productID string) (int32, error) {
	st, ok := l.state(productID)
	if !ok {
		return 0, domain.ErrProductNotFound
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	l.expireLocked(st, l.clock())
	return st.current - st.reserved, nil
}

// Reserve атомарно удерживает qty единиц товара.
// Compare-and-increment под замком товара исключает oversell
// при конкурентных попытках.
func (l *Ledger) Reserve(ctx context.Context, productID string, qty int32) (domain.Reservation, error) {
	if qty <= 0 {
		return domain.Reservation{}, domain.ErrInvalidQuantity
	}
	st, ok := l.state(productID)
	if !ok {
		return domain.Reservation{}, domain.ErrProductNotFound
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	now := l.clock()
	l.expireLocked(st, now)

	if st.current-st.reserved < qty {
		return domain.Reservation{}, domain.ErrInsufficientStock
	}

	res := domain.Reservation{
		ID:        uuid.NewString(),
		ProductID: productID,
		Qty:       qty,
		Status:    domain.ReservationStatusHeld,
		CreatedAt: now,
		ExpiresAt: now.Add(l.ttl),
	}
	st.reserved += qty
	st.holds[res.ID] = &hold{qty: qty, createdAt: now, expiresAt: res.ExpiresAt}
	return res, nil
}

// Release снимает резерв. Повторное снятие, снятие после коммита или после
// истечения TTL — no-op, не ошибка.
func (l *Ledger) Release(ctx context.Context, res domain.Reservation) error {
	st, ok := l.state(res.ProductID)
	if !ok {
		return nil
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	h, held := st.holds[res.ID]
	if !held {
		return nil
	}
	st.reserved -= h.qty
	delete(st.holds, res.ID)
	return nil
}

// Commit финализирует резерв: списывает current и reserved на его количество.
func (l *Ledger) Commit(ctx context.Context, res domain.Reservation) error {
	st, ok := l.state(res.ProductID)
	if !ok {
		return domain.ErrInvalidReservation
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	now := l.clock()
	l.expireLocked(st, now)

	h, held := st.holds[res.ID]
	if !held {
		// Резерв уже закоммичен, снят или истёк.
		return domain.ErrInvalidReservation
	}
	st.current -= h.qty
	st.reserved -= h.qty
	delete(st.holds, res.ID)
	return nil
}

// SetStock задаёт текущий остаток товара, создавая запись при первом обращении.
// Остаток нельзя опустить ниже уже удержанного количества.
func (l *Ledger) SetStock(ctx context.Context, productID string, qty int32) error {
	if qty < 0 {
		return domain.ErrInvalidQuantity
	}

	l.mu.Lock()
	st, ok := l.products[productID]
	if !ok {
		st = &productState{holds: make(map[string]*hold)}
		l.products[productID] = st
	}
	l.mu.Unlock()

	st.mu.Lock()
	defer st.mu.Unlock()

	l.expireLocked(st, l.clock())
	if qty < st.reserved {
		return domain.ErrInsufficientStock
	}
	st.current = qty
	return nil
}

// LowStock возвращает записи с доступным остатком на пороге или ниже,
// отсортированные по товару для стабильного вывода.
func (l *Ledger) LowStock(ctx context.Context, threshold int32) ([]domain.StockRecord, error) {
	l.mu.RLock()
	ids := make([]string, 0, len(l.products))
	for id := range l.products {
		ids = append(ids, id)
	}
	l.mu.RUnlock()
	sort.Strings(ids)

	now := l.clock()
	var result []domain.StockRecord
	for _, id := range ids {
		st, ok := l.state(id)
		if !ok {
			continue
		}
		st.mu.Lock()
		l.expireLocked(st, now)
		rec := domain.StockRecord{ProductID: id, CurrentStock: st.current, ReservedStock: st.reserved}
		st.mu.Unlock()
		if rec.Available() <= threshold {
			result = append(result, rec)
		}
	}
	return result, nil
}

// ReleaseExpired снимает до limit резервов, истёкших до before.
func (l *Ledger) ReleaseExpired(ctx context.Context, before time.Time, limit int) (int, error) {
	l.mu.RLock()
	states := make([]*productState, 0, len(l.products))
	for _, st := range l.products {
		states = append(states, st)
	}
	l.mu.RUnlock()

	released := 0
	for _, st := range states {
		if limit > 0 && released >= limit {
			break
		}
		st.mu.Lock()
		for id, h := range st.holds {
			if before.After(h.expiresAt) {
				st.reserved -= h.qty
				delete(st.holds, id)
				released++
				if limit > 0 && released >= limit {
					break
				}
			}
		}
		st.mu.Unlock()
	}
	return released, nil
}

var _ domain.StockLedger = (*Ledger)(nil)
