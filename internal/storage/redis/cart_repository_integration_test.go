package redis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const defaultLocalIntegrationURL = "redis://localhost:6379/1"

func openRedisForIntegrationTest(t *testing.T) *CartRepository {
	t.Helper()

	candidates := []string{
		strings.TrimSpace(os.Getenv("STOREFRONT_REDIS_TEST_URL")),
		strings.TrimSpace(os.Getenv("STOREFRONT_REDIS_URL")),
		defaultLocalIntegrationURL,
	}

	seen := map[string]struct{}{}
	var openErrs []string
	for _, url := range candidates {
		if url == "" {
			continue
		}
		if _, ok := seen[url]; ok {
			continue
		}
		seen[url] = struct{}{}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		client, err := NewClient(ctx, url)
		cancel()
		if err == nil {
			t.Cleanup(func() {
				_ = client.Close()
			})
			return NewCartRepository(client)
		}
		openErrs = append(openErrs, fmt.Sprintf("%s: %v", url, err))
	}

	t.Skipf("redis is not available for integration tests: %s", strings.Join(openErrs, " | "))
	return nil
}

func TestCartRepository_RedisFlow(t *testing.T) {
	repo := openRedisForIntegrationTest(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Millisecond)
	c := domain.NewCart("it-owner-1", now, time.Hour)
	if err := c.AddLine("p-1", "Rice 5kg", 25000, 2, now); err != nil {
		t.Fatalf("add line: %v", err)
	}

	if err := repo.Save(ctx, c); err != nil {
		t.Fatalf("save cart: %v", err)
	}
	t.Cleanup(func() {
		_ = repo.Delete(context.Background(), "it-owner-1")
	})

	loaded, err := repo.Get(ctx, "it-owner-1")
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	if loaded.OwnerKey != "it-owner-1" {
		t.Fatalf("expected owner it-owner-1, got %q", loaded.OwnerKey)
	}
	if len(loaded.Lines) != 1 || loaded.Lines[0].Qty != 2 || loaded.Lines[0].UnitPrice != 25000 {
		t.Fatalf("unexpected lines: %+v", loaded.Lines)
	}
	if !loaded.ExpiresAt.Equal(c.ExpiresAt) {
		t.Fatalf("expires mismatch: %v vs %v", loaded.ExpiresAt, c.ExpiresAt)
	}

	if err := repo.Delete(ctx, "it-owner-1"); err != nil {
		t.Fatalf("delete cart: %v", err)
	}
	if _, err := repo.Get(ctx, "it-owner-1"); !errors.Is(err, domain.ErrCartNotFound) {
		t.Fatalf("expected ErrCartNotFound, got %v", err)
	}
}

func TestCartRepository_RedisExpiredCartNotStored(t *testing.T) {
	repo := openRedisForIntegrationTest(t)
	ctx := context.Background()

	expired := domain.NewCart("it-owner-2", time.Now().UTC().Add(-2*time.Hour), time.Hour)
	if err := repo.Save(ctx, expired); err != nil {
		t.Fatalf("save expired cart: %v", err)
	}

	if _, err := repo.Get(ctx, "it-owner-2"); !errors.Is(err, domain.ErrCartNotFound) {
		t.Fatalf("expired cart must not be stored, got %v", err)
	}
}

func TestCartRepository_RedisDeleteMissingIsNoop(t *testing.T) {
	repo := openRedisForIntegrationTest(t)

	if err := repo.Delete(context.Background(), "it-owner-missing"); err != nil {
		t.Fatalf("delete of missing cart must be a no-op, got %v", err)
	}
}
