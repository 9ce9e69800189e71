package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

func newCart(owner string) domain.Cart {
	now := time.Now().UTC()
	c := domain.NewCart(owner, now, 24*time.Hour)
	_ = c.AddLine("p-1", "Rice 5kg", 25000, 2, now)
	return c
}

func TestCartRepository_SaveGet(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewCartRepository()
	cart := newCart("guest-1")

	if err := repo.Save(ctx, cart); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	stored, err := repo.Get(ctx, "guest-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(stored.Lines) != 1 || stored.Lines[0].ProductID != "p-1" {
		t.Fatalf("unexpected cart: %+v", stored)
	}
}

func TestCartRepository_GetMissing(t *testing.T) {
	repo := memory.NewCartRepository()
	if _, err := repo.Get(context.Background(), "ghost"); !errors.Is(err, domain.ErrCartNotFound) {
		t.Fatalf("expected ErrCartNotFound, got %v", err)
	}
}

func TestCartRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewCartRepository()
	if err := repo.Save(ctx, newCart("guest-1")); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if err := repo.Delete(ctx, "guest-1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := repo.Get(ctx, "guest-1"); !errors.Is(err, domain.ErrCartNotFound) {
		t.Fatalf("expected ErrCartNotFound after delete, got %v", err)
	}
	// Повторное удаление — no-op.
	if err := repo.Delete(ctx, "guest-1"); err != nil {
		t.Fatalf("double delete must be no-op, got %v", err)
	}
}

func TestCartRepository_StoredCopyIsIsolated(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewCartRepository()
	cart := newCart("guest-1")
	if err := repo.Save(ctx, cart); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	// Мутация возвращённой корзины не должна просочиться в хранилище.
	stored, _ := repo.Get(ctx, "guest-1")
	stored.Lines[0].Qty = 99

	fresh, _ := repo.Get(ctx, "guest-1")
	if fresh.Lines[0].Qty != 2 {
		t.Fatalf("stored cart mutated externally: qty %d", fresh.Lines[0].Qty)
	}
}
