package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

func TestBuildDependencies_Memory(t *testing.T) {
	cfg := DefaultConfig()

	deps, err := buildDependencies(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("buildDependencies failed: %v", err)
	}
	defer deps.Close()

	if deps.CartRepo == nil || deps.Ledger == nil || deps.Sales == nil || deps.OutboxRepo == nil || deps.Catalog == nil {
		t.Fatal("all dependencies should be initialized")
	}

	// Demo catalog products get seed stock.
	available, err := deps.Ledger.GetAvailable(context.Background(), "p-coffee-1kg")
	if err != nil {
		t.Fatalf("GetAvailable failed: %v", err)
	}
	if available != 100 {
		t.Errorf("expected seed stock 100, got %d", available)
	}
}

func TestBuildDependencies_FileCatalogNotSeeded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	payload := `[{"id": "p-custom", "name": "Custom Product", "price": 9900}]`
	if err := os.WriteFile(path, []byte(payload), 0o600); err != nil {
		t.Fatalf("write catalog file: %v", err)
	}

	cfg := DefaultConfig()
	cfg.CatalogFile = path

	deps, err := buildDependencies(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("buildDependencies failed: %v", err)
	}
	defer deps.Close()

	// Остатки для файла-каталога заводятся оператором, не при старте.
	if _, err := deps.Ledger.GetAvailable(context.Background(), "p-custom"); !errors.Is(err, domain.ErrProductNotFound) {
		t.Errorf("file catalog must not be stock-seeded, got %v", err)
	}
}

func TestBuildDependencies_UnknownDrivers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StorageDriver = "cassandra"
	if _, err := buildDependencies(context.Background(), cfg, nil); err == nil {
		t.Error("unknown storage driver should fail")
	}

	cfg = DefaultConfig()
	cfg.CartStore = "memcached"
	if _, err := buildDependencies(context.Background(), cfg, nil); err == nil {
		t.Error("unknown cart store should fail")
	}

	cfg = DefaultConfig()
	cfg.StorageDriver = StorageDriverPostgres
	cfg.PostgresDSN = ""
	if _, err := buildDependencies(context.Background(), cfg, nil); err == nil {
		t.Error("postgres driver without DSN should fail")
	}

	cfg = DefaultConfig()
	cfg.CartStore = CartStoreRedis
	cfg.RedisURL = ""
	if _, err := buildDependencies(context.Background(), cfg, nil); err == nil {
		t.Error("redis cart store without URL should fail")
	}
}

func TestLoadCatalog_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	payload := `[
		{"id": "p-custom", "name": "Custom Product", "price": 9900}
	]`
	if err := os.WriteFile(path, []byte(payload), 0o600); err != nil {
		t.Fatalf("write catalog file: %v", err)
	}

	catalog, products, err := loadCatalog(path)
	if err != nil {
		t.Fatalf("loadCatalog failed: %v", err)
	}
	if len(products) != 1 {
		t.Fatalf("expected 1 product, got %d", len(products))
	}

	product, err := catalog.Get(context.Background(), "p-custom")
	if err != nil {
		t.Fatalf("catalog.Get failed: %v", err)
	}
	if product.Name != "Custom Product" || product.Price != 9900 {
		t.Errorf("unexpected product: %+v", product)
	}

	if _, err := catalog.Get(context.Background(), "p-ghost"); !errors.Is(err, domain.ErrProductNotFound) {
		t.Errorf("expected ErrProductNotFound, got %v", err)
	}
}

func TestLoadCatalog_InvalidEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	if err := os.WriteFile(path, []byte(`[{"name": "no id", "price": 100}]`), 0o600); err != nil {
		t.Fatalf("write catalog file: %v", err)
	}
	if _, _, err := loadCatalog(path); err == nil {
		t.Error("catalog entry without id should fail")
	}

	if _, _, err := loadCatalog(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("missing catalog file should fail")
	}
}

func TestLoadCatalog_DemoFallback(t *testing.T) {
	catalog, products, err := loadCatalog("")
	if err != nil {
		t.Fatalf("loadCatalog failed: %v", err)
	}
	if len(products) == 0 {
		t.Fatal("demo catalog should not be empty")
	}
	if _, err := catalog.Get(context.Background(), products[0].ID); err != nil {
		t.Errorf("demo product lookup failed: %v", err)
	}
}
