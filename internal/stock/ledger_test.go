package stock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

func newLedger(t *testing.T, options ...Option) *Ledger {
	t.Helper()
	return NewLedger(options...)
}

func seed(t *testing.T, l *Ledger, productID string, qty int32) {
	t.Helper()
	if err := l.SetStock(context.Background(), productID, qty); err != nil {
		t.Fatalf("seed stock failed: %v", err)
	}
}

func TestLedger_GetAvailableUnknownProduct(t *testing.T) {
	l := newLedger(t)
	if _, err := l.GetAvailable(context.Background(), "ghost"); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestLedger_ReserveAndCommit(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	seed(t, l, "p-1", 10)

	res, err := l.Reserve(ctx, "p-1", 4)
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}

	available, err := l.GetAvailable(ctx, "p-1")
	if err != nil {
		t.Fatalf("get available failed: %v", err)
	}
	if available != 6 {
		t.Fatalf("expected available 6 after reserve, got %d", available)
	}

	if err := l.Commit(ctx, res); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	available, _ = l.GetAvailable(ctx, "p-1")
	if available != 6 {
		t.Fatalf("expected available 6 after commit, got %d", available)
	}

	records, err := l.LowStock(ctx, 10)
	if err != nil {
		t.Fatalf("low stock failed: %v", err)
	}
	if len(records) != 1 || records[0].CurrentStock != 6 || records[0].ReservedStock != 0 {
		t.Fatalf("unexpected stock record: %+v", records)
	}
}

func TestLedger_ReserveInsufficient(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	seed(t, l, "p-1", 3)

	if _, err := l.Reserve(ctx, "p-1", 5); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	// Неудачная попытка не трогает счётчики.
	available, _ := l.GetAvailable(ctx, "p-1")
	if available != 3 {
		t.Fatalf("expected available 3, got %d", available)
	}
}

func TestLedger_ReleaseIdempotent(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	seed(t, l, "p-1", 5)

	res, err := l.Reserve(ctx, "p-1", 2)
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}

	if err := l.Release(ctx, res); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	// Повторное снятие — no-op.
	if err := l.Release(ctx, res); err != nil {
		t.Fatalf("second release must be no-op, got %v", err)
	}

	available, _ := l.GetAvailable(ctx, "p-1")
	if available != 5 {
		t.Fatalf("expected available 5 after double release, got %d", available)
	}
}

func TestLedger_CommitAfterReleaseFails(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	seed(t, l, "p-1", 5)

	res, _ := l.Reserve(ctx, "p-1", 2)
	_ = l.Release(ctx, res)

	if err := l.Commit(ctx, res); !errors.Is(err, domain.ErrInvalidReservation) {
		t.Fatalf("expected ErrInvalidReservation, got %v", err)
	}
}

func TestLedger_DoubleCommitFails(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	seed(t, l, "p-1", 5)

	res, _ := l.Reserve(ctx, "p-1", 2)
	if err := l.Commit(ctx, res); err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	if err := l.Commit(ctx, res); !errors.Is(err, domain.ErrInvalidReservation) {
		t.Fatalf("expected ErrInvalidReservation on double commit, got %v", err)
	}

	available, _ := l.GetAvailable(ctx, "p-1")
	if available != 3 {
		t.Fatalf("expected available 3, got %d", available)
	}
}

func TestLedger_ExpiredReservationReturnsStock(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	current := now
	l := newLedger(t,
		WithReservationTTL(time.Minute),
		WithClock(func() time.Time { return current }),
	)
	seed(t, l, "p-1", 5)

	res, err := l.Reserve(ctx, "p-1", 5)
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}

	available, _ := l.GetAvailable(ctx, "p-1")
	if available != 0 {
		t.Fatalf("expected available 0, got %d", available)
	}

	// Сдвигаем часы за TTL: резерв снимается лениво на следующем чтении.
	current = now.Add(2 * time.Minute)

	available, _ = l.GetAvailable(ctx, "p-1")
	if available != 5 {
		t.Fatalf("expected available 5 after expiry, got %d", available)
	}

	// Коммит истёкшего резерва недопустим.
	if err := l.Commit(ctx, res); !errors.Is(err, domain.ErrInvalidReservation) {
		t.Fatalf("expected ErrInvalidReservation for expired reservation, got %v", err)
	}
}

func TestLedger_ReleaseExpired(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	current := now
	l := newLedger(t,
		WithReservationTTL(time.Minute),
		WithClock(func() time.Time { return current }),
	)
	seed(t, l, "p-1", 10)
	seed(t, l, "p-2", 10)

	if _, err := l.Reserve(ctx, "p-1", 3); err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if _, err := l.Reserve(ctx, "p-2", 4); err != nil {
		t.Fatalf("reserve failed: %v", err)
	}

	released, err := l.ReleaseExpired(ctx, now.Add(2*time.Minute), 0)
	if err != nil {
		t.Fatalf("release expired failed: %v", err)
	}
	if released != 2 {
		t.Fatalf("expected 2 released reservations, got %d", released)
	}

	for _, id := range []string{"p-1", "p-2"} {
		available, _ := l.GetAvailable(ctx, id)
		if available != 10 {
			t.Fatalf("product %s: expected available 10, got %d", id, available)
		}
	}
}

func TestLedger_SetStockBelowReservedFails(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	seed(t, l, "p-1", 10)

	if _, err := l.Reserve(ctx, "p-1", 7); err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if err := l.SetStock(ctx, "p-1", 5); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
}

// Свойство "no oversell": сумма успешных резервов не превышает доступный
// остаток при любом числе конкурентных попыток.
func TestLedger_ConcurrentReserveNoOversell(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)

	const stockUnits = 50
	const workers = 200

	seed(t, l, "p-hot", stockUnits)

	var granted int64
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			if _, err := l.Reserve(ctx, "p-hot", 1); err == nil {
				atomic.AddInt64(&granted, 1)
			}
		}()
	}
	wg.Wait()

	if granted != stockUnits {
		t.Fatalf("expected exactly %d granted reservations, got %d", stockUnits, granted)
	}
	available, _ := l.GetAvailable(ctx, "p-hot")
	if available != 0 {
		t.Fatalf("expected available 0, got %d", available)
	}
}

// Операции над разными товарами не блокируют друг друга логически:
// параллельные резервы двух товаров оба успешны.
func TestLedger_IndependentProducts(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	seed(t, l, "p-1", 1)
	seed(t, l, "p-2", 1)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = l.Reserve(ctx, "p-1", 1)
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = l.Reserve(ctx, "p-2", 1)
	}()
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("reserve %d failed: %v", i, err)
		}
	}
}
