package memory

import (
	"context"
	"sync"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// productCatalogInMemory — каталог товаров для локальной разработки и тестов.
type productCatalogInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Product
}

// NewProductCatalog создаёт каталог, опционально заполняя его начальными товарами.
func NewProductCatalog(products ...domain.Product) *productCatalogInMemory {
	catalog := &productCatalogInMemory{items: make(map[string]domain.Product, len(products))}
	for _, p := range products {
		catalog.items[p.ID] = p
	}
	return catalog
}

// Get возвращает карточку товара или ErrProductNotFound.
func (c *productCatalogInMemory) Get(ctx context.Context, productID string) (domain.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	product, ok := c.items[productID]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return product, nil
}

// Put добавляет или заменяет карточку товара.
func (c *productCatalogInMemory) Put(product domain.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[product.ID] = product
}

var _ domain.ProductCatalog = (*productCatalogInMemory)(nil)
