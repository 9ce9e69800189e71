package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/health"
	"github.com/vladislavdragonenkov/storefront/internal/stock"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
	"github.com/vladislavdragonenkov/storefront/internal/storage/postgres"
	redisstore "github.com/vladislavdragonenkov/storefront/internal/storage/redis"
)

// Dependencies содержит хранилища и внешних коллабораторов приложения.
type Dependencies struct {
	CartRepo   domain.CartRepository
	Ledger     domain.StockLedger
	Sales      domain.SaleRepository
	OutboxRepo domain.OutboxRepository
	Catalog    domain.ProductCatalog
	// HealthCheckers — проверки подключённых бэкендов для /healthz.
	HealthCheckers map[string]health.Checker
	Logger         *log.Entry

	closers []func() error
}

// buildDependencies инициализирует хранилища согласно конфигурации:
// in-memory для разработки, postgres/redis для production-профиля.
func buildDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	deps := &Dependencies{
		HealthCheckers: make(map[string]health.Checker),
		Logger:         logger,
	}

	catalog, seeded, err := loadCatalog(cfg.CatalogFile)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	deps.Catalog = catalog

	switch cfg.StorageDriver {
	case StorageDriverPostgres:
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("storage driver %q requires STOREFRONT_POSTGRES_DSN", cfg.StorageDriver)
		}
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		deps.closers = append(deps.closers, store.Close)
		if cfg.PostgresAutoMigrate {
			if err := store.EnsureSchema(ctx); err != nil {
				deps.Close()
				return nil, fmt.Errorf("ensure schema: %w", err)
			}
		}
		deps.Ledger = postgres.NewStockLedger(store, postgres.WithReservationTTL(cfg.ReservationTTL))
		deps.Sales = postgres.NewSaleRepository(store)
		deps.OutboxRepo = postgres.NewOutboxRepository(store)
		deps.HealthCheckers["postgres"] = health.NewPingChecker("postgres", store.Ping)
		logger.Info("postgres storage initialized")
	case StorageDriverMemory, "":
		ledger := stock.NewLedger(stock.WithReservationTTL(cfg.ReservationTTL))
		deps.Ledger = ledger
		deps.Sales = memory.NewSaleRepository()
		deps.OutboxRepo = memory.NewOutboxRepository()
		// Только демо-каталог получает стартовый сток, чтобы витрина работала
		// из коробки; файл-каталог заводит остатки через PUT /stock.
		if cfg.CatalogFile == "" {
			for _, p := range seeded {
				if err := ledger.SetStock(ctx, p.ID, 100); err != nil {
					deps.Close()
					return nil, fmt.Errorf("seed stock for %s: %w", p.ID, err)
				}
			}
		}
		logger.Info("in-memory storage initialized")
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}

	switch cfg.CartStore {
	case CartStoreRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("cart store %q requires STOREFRONT_REDIS_URL", cfg.CartStore)
		}
		client, err := redisstore.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			deps.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		deps.closers = append(deps.closers, client.Close)
		deps.CartRepo = redisstore.NewCartRepository(client)
		deps.HealthCheckers["redis"] = health.NewPingChecker("redis", func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
		logger.Info("redis cart store initialized")
	case CartStoreMemory, "":
		deps.CartRepo = memory.NewCartRepository()
	default:
		deps.Close()
		return nil, fmt.Errorf("unknown cart store %q", cfg.CartStore)
	}

	return deps, nil
}

// Close закрывает подключения в обратном порядке инициализации.
func (d *Dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			d.Logger.WithError(err).Warn("failed to close dependency")
		}
	}
	d.closers = nil
}

// catalogEntry — строка JSON-файла каталога.
type catalogEntry struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

// loadCatalog читает каталог из файла либо возвращает демо-каталог.
func loadCatalog(path string) (domain.ProductCatalog, []domain.Product, error) {
	var entries []catalogEntry
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, err
		}
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, nil, fmt.Errorf("parse %s: %w", path, err)
		}
	} else {
		entries = demoCatalog
	}

	products := make([]domain.Product, 0, len(entries))
	for _, e := range entries {
		if e.ID == "" || e.Price < 0 {
			return nil, nil, fmt.Errorf("invalid catalog entry %+v", e)
		}
		products = append(products, domain.Product{ID: e.ID, Name: e.Name, Price: e.Price})
	}
	return memory.NewProductCatalog(products...), products, nil
}

var demoCatalog = []catalogEntry{
	{ID: "p-coffee-1kg", Name: "Coffee Beans 1kg", Price: 45000},
	{ID: "p-tea-500g", Name: "Green Tea 500g", Price: 30000},
	{ID: "p-sugar-2kg", Name: "Sugar 2kg", Price: 12000},
	{ID: "p-milk-1l", Name: "Fresh Milk 1L", Price: 4500},
	{ID: "p-bread", Name: "Whole Wheat Bread", Price: 8000},
}
