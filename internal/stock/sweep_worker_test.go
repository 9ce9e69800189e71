package stock

import (
	"context"
	"testing"
	"time"
)

func TestSweepWorker_SweepOnce(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	current := now

	ledger := NewLedger(
		WithReservationTTL(time.Minute),
		WithClock(func() time.Time { return current }),
	)
	seed(t, ledger, "p-1", 10)

	if _, err := ledger.Reserve(ctx, "p-1", 10); err != nil {
		t.Fatalf("reserve failed: %v", err)
	}

	current = now.Add(5 * time.Minute)
	worker := NewSweepWorker(ledger, WithSweepClock(func() time.Time { return current }))
	worker.SweepOnce(ctx)

	available, err := ledger.GetAvailable(ctx, "p-1")
	if err != nil {
		t.Fatalf("get available failed: %v", err)
	}
	if available != 10 {
		t.Fatalf("expected available 10 after sweep, got %d", available)
	}
}

func TestSweepWorker_RunStopsOnCancel(t *testing.T) {
	ledger := NewLedger()
	worker := NewSweepWorker(ledger, WithSweepInterval(10*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		worker.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after context cancel")
	}
}

func TestSweepWorker_NilLedger(t *testing.T) {
	worker := NewSweepWorker(nil)
	// Не должен паниковать и должен сразу вернуться.
	worker.Run(context.Background())
}
