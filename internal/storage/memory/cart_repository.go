package memory

import (
	"context"
	"sync"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// cartRepositoryInMemory — простая in-memory реализация CartRepository.
type cartRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Cart
}

// NewCartRepository возвращает in-memory репозиторий для локальной разработки и тестов.
func NewCartRepository() domain.CartRepository {
	return &cartRepositoryInMemory{
		items: make(map[string]domain.Cart),
	}
}

// Get возвращает корзину владельца или ErrCartNotFound.
func (r *cartRepositoryInMemory) Get(ctx context.Context, ownerKey string) (domain.Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.items[ownerKey]
	if !ok {
		return domain.Cart{}, domain.ErrCartNotFound
	}
	// Возвращаем копию строк, чтобы избежать непредсказуемых мутаций извне.
	lines := make([]domain.CartLine, len(c.Lines))
	copy(lines, c.Lines)
	c.Lines = lines
	return c, nil
}

// Save перезаписывает корзину владельца целиком.
func (r *cartRepositoryInMemory) Save(ctx context.Context, cart domain.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	lines := make([]domain.CartLine, len(cart.Lines))
	copy(lines, cart.Lines)
	cart.Lines = lines
	r.items[cart.OwnerKey] = cart
	return nil
}

// Delete удаляет корзину; отсутствие записи ошибкой не считается.
func (r *cartRepositoryInMemory) Delete(ctx context.Context, ownerKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.items, ownerKey)
	return nil
}

var _ domain.CartRepository = (*cartRepositoryInMemory)(nil)
