package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const defaultCapacity = 10

// FeedOptions задаёт параметры операционной ленты.
type FeedOptions struct {
	Logger   *log.Entry
	Capacity int
	Clock    func() time.Time
}

// FeedOption настраивает Feed.
type FeedOption func(*FeedOptions)

// WithLogger задаёт logger для ленты.
func WithLogger(logger *log.Entry) FeedOption {
	return func(opts *FeedOptions) {
		opts.Logger = logger
	}
}

// WithCapacity задаёт ёмкость ленты.
func WithCapacity(capacity int) FeedOption {
	return func(opts *FeedOptions) {
		opts.Capacity = capacity
	}
}

// WithClock подменяет источник времени (для тестов).
func WithClock(clock func() time.Time) FeedOption {
	return func(opts *FeedOptions) {
		opts.Clock = clock
	}
}

// Feed — кольцевая операционная лента фиксированной ёмкости. Новые события
// добавляются в начало, при переполнении вытесняется самое старое. Для
// low-stock действует дедупликация: пока в ленте есть неподтверждённое
// событие low_stock, новые такие события не добавляются.
type Feed struct {
	mu       sync.Mutex
	events   []domain.NotificationEvent
	capacity int
	clock    func() time.Time
	logger   *log.Entry
}

// NewFeed создаёт ленту уведомлений.
func NewFeed(options ...FeedOption) *Feed {
	opts := FeedOptions{
		Capacity: defaultCapacity,
		Clock:    func() time.Time { return time.Now().UTC() },
	}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "notification-feed")
	}
	if opts.Capacity <= 0 {
		opts.Capacity = defaultCapacity
	}

	return &Feed{
		events:   make([]domain.NotificationEvent, 0, opts.Capacity),
		capacity: opts.Capacity,
		clock:    opts.Clock,
		logger:   logger,
	}
}

var _ domain.NotificationFeed = (*Feed)(nil)

// Append добавляет событие в начало ленты. Пустые ID и Timestamp заполняются.
// Дублирующее low-stock событие при наличии неподтверждённого отбрасывается.
func (f *Feed) Append(event domain.NotificationEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if event.Kind == domain.NotificationKindLowStock && f.hasPendingLowStockLocked() {
		f.logger.WithField("kind", event.Kind).Debug("low-stock notification deduplicated")
		return
	}

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = f.clock()
	}

	f.events = append([]domain.NotificationEvent{event}, f.events...)
	if len(f.events) > f.capacity {
		f.events = f.events[:f.capacity]
	}
}

// Acknowledge подтверждает событие по ID. Возвращает false, если событие
// не найдено (в том числе уже вытеснено из ленты).
func (f *Feed) Acknowledge(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.events {
		if f.events[i].ID == id {
			f.events[i].Acknowledged = true
			return true
		}
	}
	return false
}

// List возвращает снимок ленты от новых событий к старым.
func (f *Feed) List() []domain.NotificationEvent {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]domain.NotificationEvent, len(f.events))
	copy(out, f.events)
	return out
}

func (f *Feed) hasPendingLowStockLocked() bool {
	for _, event := range f.events {
		if event.Kind == domain.NotificationKindLowStock && !event.Acknowledged {
			return true
		}
	}
	return false
}
