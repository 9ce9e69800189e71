package cart

import (
	"testing"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

func TestMerge_MaxNotSum(t *testing.T) {
	now := time.Now().UTC()

	primary := domain.NewCart("customer-1", now, 24*time.Hour)
	_ = primary.AddLine("p-1", "Rice 5kg", 25000, 2, now)

	secondary := domain.NewCart("guest-7", now, 24*time.Hour)
	_ = secondary.AddLine("p-1", "Rice 5kg", 25000, 5, now)

	merged := Merge(primary, secondary)

	line, ok := merged.Line("p-1")
	if !ok {
		t.Fatal("expected merged line for p-1")
	}
	if line.Qty != 5 {
		t.Fatalf("expected max quantity 5, got %d", line.Qty)
	}
}

func TestMerge_UnionOfProducts(t *testing.T) {
	now := time.Now().UTC()

	primary := domain.NewCart("customer-1", now, 24*time.Hour)
	_ = primary.AddLine("p-1", "Rice 5kg", 25000, 2, now)
	_ = primary.AddLine("p-2", "Sugar 1kg", 4500, 1, now)

	secondary := domain.NewCart("guest-7", now, 24*time.Hour)
	_ = secondary.AddLine("p-2", "Sugar 1kg", 4500, 1, now)
	_ = secondary.AddLine("p-3", "Tea 500g", 8000, 3, now)

	merged := Merge(primary, secondary)

	if len(merged.Lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(merged.Lines))
	}
	// Позиции primary идут первыми, новые из secondary — в конце.
	if merged.Lines[0].ProductID != "p-1" || merged.Lines[2].ProductID != "p-3" {
		t.Fatalf("unexpected line order: %+v", merged.Lines)
	}
	if merged.OwnerKey != "customer-1" {
		t.Fatalf("merged cart must keep primary owner, got %q", merged.OwnerKey)
	}
}

func TestMerge_KeepsNewerExpiry(t *testing.T) {
	now := time.Now().UTC()

	primary := domain.NewCart("customer-1", now, time.Hour)
	secondary := domain.NewCart("guest-7", now, 24*time.Hour)

	merged := Merge(primary, secondary)
	if !merged.ExpiresAt.Equal(secondary.ExpiresAt) {
		t.Fatalf("expected newer expiry %v, got %v", secondary.ExpiresAt, merged.ExpiresAt)
	}

	// И в обратную сторону.
	merged = Merge(secondary, primary)
	if !merged.ExpiresAt.Equal(secondary.ExpiresAt) {
		t.Fatalf("expected newer expiry %v, got %v", secondary.ExpiresAt, merged.ExpiresAt)
	}
}

func TestMerge_DoesNotMutateInputs(t *testing.T) {
	now := time.Now().UTC()

	primary := domain.NewCart("customer-1", now, 24*time.Hour)
	_ = primary.AddLine("p-1", "Rice 5kg", 25000, 2, now)

	secondary := domain.NewCart("guest-7", now, 24*time.Hour)
	_ = secondary.AddLine("p-1", "Rice 5kg", 25000, 9, now)

	_ = Merge(primary, secondary)

	if line, _ := primary.Line("p-1"); line.Qty != 2 {
		t.Fatalf("primary cart mutated: qty %d", line.Qty)
	}
	if line, _ := secondary.Line("p-1"); line.Qty != 9 {
		t.Fatalf("secondary cart mutated: qty %d", line.Qty)
	}
}
