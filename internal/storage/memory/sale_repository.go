package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// saleRepositoryInMemory — in-memory журнал продаж. Записи append-only.
type saleRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Sale
}

// NewSaleRepository возвращает in-memory реализацию SaleRepository.
func NewSaleRepository() domain.SaleRepository {
	return &saleRepositoryInMemory{
		items: make(map[string]domain.Sale),
	}
}

// Append сохраняет новую продажу, если ID ещё не занят.
func (r *saleRepositoryInMemory) Append(ctx context.Context, sale domain.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[sale.ID]; exists {
		return fmt.Errorf("sale %q already recorded", sale.ID)
	}
	lines := make([]domain.CartLine, len(sale.Lines))
	copy(lines, sale.Lines)
	sale.Lines = lines
	r.items[sale.ID] = sale
	return nil
}

// Get возвращает продажу или ErrSaleNotFound.
func (r *saleRepositoryInMemory) Get(ctx context.Context, id string) (domain.Sale, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sale, ok := r.items[id]
	if !ok {
		return domain.Sale{}, domain.ErrSaleNotFound
	}
	return sale, nil
}

// ListByCustomer возвращает продажи покупателя, новые первыми.
func (r *saleRepositoryInMemory) ListByCustomer(ctx context.Context, customerID string, limit int) ([]domain.Sale, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Sale, 0, len(r.items))
	for _, sale := range r.items {
		if sale.CustomerID != customerID {
			continue
		}
		result = append(result, sale)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CommittedAt.Equal(result[j].CommittedAt) {
			return result[i].CommittedAt.After(result[j].CommittedAt)
		}
		return result[i].ID > result[j].ID
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}

	return result, nil
}

// TotalRevenue возвращает сумму и количество всех продаж.
func (r *saleRepositoryInMemory) TotalRevenue(ctx context.Context) (int64, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var total int64
	for _, sale := range r.items {
		total += sale.Total
	}
	return total, len(r.items), nil
}

var _ domain.SaleRepository = (*saleRepositoryInMemory)(nil)
