package memory

import (
	"testing"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

func TestOutboxRepository_EnqueuePull(t *testing.T) {
	repo := NewOutboxRepository()

	msg, err := repo.Enqueue(domain.OutboxMessage{
		AggregateType: "sale",
		AggregateID:   "sale-1",
		EventType:     "SaleCommitted",
		Payload:       []byte(`{"total":25000}`),
	})
	if err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}
	if msg.ID == "" {
		t.Fatal("enqueue must assign an id")
	}

	pending, err := repo.PullPending(10)
	if err != nil {
		t.Fatalf("pull failed: %v", err)
	}
	if len(pending) != 1 || pending[0].EventType != "SaleCommitted" {
		t.Fatalf("unexpected pending set: %+v", pending)
	}
}

func TestOutboxRepository_MarkSent(t *testing.T) {
	repo := NewOutboxRepository()
	msg, _ := repo.Enqueue(domain.OutboxMessage{EventType: "SaleCommitted"})

	if err := repo.MarkSent(msg.ID); err != nil {
		t.Fatalf("mark sent failed: %v", err)
	}
	pending, _ := repo.PullPending(10)
	if len(pending) != 0 {
		t.Fatalf("expected empty pending set, got %d", len(pending))
	}
}

func TestOutboxRepository_MarkUnknownID(t *testing.T) {
	repo := NewOutboxRepository()
	if err := repo.MarkSent("ghost"); err == nil {
		t.Fatal("expected error for unknown id")
	}
	if err := repo.MarkFailed("ghost"); err == nil {
		t.Fatal("expected error for unknown id")
	}
}
