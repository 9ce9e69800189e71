package stock

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const (
	defaultSweepInterval  = 30 * time.Second
	defaultSweepBatchSize = 500
)

var (
	reservationSweepRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_reservation_sweep_runs_total",
		Help: "Total number of reservation sweep runs grouped by result.",
	}, []string{"result"})
	reservationSweepReleasedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_reservation_sweep_released_total",
		Help: "Total number of expired reservations released by the sweeper.",
	})
	reservationSweepLastReleased = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "storefront_reservation_sweep_last_released",
		Help: "Number of reservations released during the last sweep run.",
	})
)

// SweepOptions задаёт параметры воркера снятия истёкших резервов.
type SweepOptions struct {
	Logger    *log.Entry
	Interval  time.Duration
	BatchSize int
	Clock     func() time.Time
}

// SweepOption настраивает SweepWorker.
type SweepOption func(*SweepOptions)

// WithSweepLogger задаёт logger для воркера.
func WithSweepLogger(logger *log.Entry) SweepOption {
	return func(opts *SweepOptions) {
		opts.Logger = logger
	}
}

// WithSweepInterval задаёт интервал между sweep-циклами.
func WithSweepInterval(interval time.Duration) SweepOption {
	return func(opts *SweepOptions) {
		opts.Interval = interval
	}
}

// WithSweepBatchSize задаёт максимум резервов, снимаемых за один цикл.
func WithSweepBatchSize(batchSize int) SweepOption {
	return func(opts *SweepOptions) {
		opts.BatchSize = batchSize
	}
}

// WithSweepClock подменяет источник времени (для тестов).
func WithSweepClock(clock func() time.Time) SweepOption {
	return func(opts *SweepOptions) {
		opts.Clock = clock
	}
}

// SweepWorker периодически возвращает в доступный остаток количество
// из истёкших, но не закоммиченных резервов. Ленивое снятие в ledger
// покрывает горячие товары; sweep добивает те, которые никто не читает.
type SweepWorker struct {
	ledger    domain.StockLedger
	logger    *log.Entry
	interval  time.Duration
	batchSize int
	clock     func() time.Time
}

// NewSweepWorker создаёт воркер снятия истёкших резервов.
func NewSweepWorker(ledger domain.StockLedger, options ...SweepOption) *SweepWorker {
	opts := SweepOptions{
		Interval:  defaultSweepInterval,
		BatchSize: defaultSweepBatchSize,
		Clock:     func() time.Time { return time.Now().UTC() },
	}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "reservation-sweeper")
	}
	if opts.Interval <= 0 {
		opts.Interval = defaultSweepInterval
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultSweepBatchSize
	}

	return &SweepWorker{
		ledger:    ledger,
		logger:    logger,
		interval:  opts.Interval,
		batchSize: opts.BatchSize,
		clock:     opts.Clock,
	}
}

// Run запускает периодический sweep до отмены ctx.
func (w *SweepWorker) Run(ctx context.Context) {
	if w.ledger == nil {
		w.logger.Warn("reservation sweeper is disabled: ledger is nil")
		return
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.SweepOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.SweepOnce(ctx)
		}
	}
}

// SweepOnce выполняет один sweep-цикл.
func (w *SweepWorker) SweepOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	released, err := w.ledger.ReleaseExpired(ctx, w.clock(), w.batchSize)
	if err != nil {
		reservationSweepRunsTotal.WithLabelValues("error").Inc()
		w.logger.WithError(err).Warn("reservation sweep failed")
		return
	}

	reservationSweepRunsTotal.WithLabelValues("ok").Inc()
	reservationSweepLastReleased.Set(float64(released))
	if released > 0 {
		reservationSweepReleasedTotal.Add(float64(released))
		w.logger.WithField("released", released).Info("released expired reservations")
	}
}
