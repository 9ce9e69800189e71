package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const defaultCartTTL = 24 * time.Hour

// ServiceOptions задаёт параметры сервиса корзин.
type ServiceOptions struct {
	Logger *log.Entry
	TTL    time.Duration
	Clock  func() time.Time
}

// ServiceOption настраивает Service.
type ServiceOption func(*ServiceOptions)

// WithLogger задаёт logger для сервиса.
func WithLogger(logger *log.Entry) ServiceOption {
	return func(opts *ServiceOptions) {
		opts.Logger = logger
	}
}

// WithTTL задаёт срок жизни корзины.
func WithTTL(ttl time.Duration) ServiceOption {
	return func(opts *ServiceOptions) {
		opts.TTL = ttl
	}
}

// WithClock подменяет источник времени (для тестов).
func WithClock(clock func() time.Time) ServiceOption {
	return func(opts *ServiceOptions) {
		opts.Clock = clock
	}
}

// Service управляет жизненным циклом корзин поверх репозитория.
// Истечение TTL проверяется лениво: чтение истёкшей корзины возвращает
// пустую, запись после истечения начинает новую корзину с новым TTL.
type Service struct {
	repo    domain.CartRepository
	catalog domain.ProductCatalog
	ttl     time.Duration
	clock   func() time.Time
	logger  *log.Entry
}

// NewService создаёт сервис корзин.
func NewService(repo domain.CartRepository, catalog domain.ProductCatalog, options ...ServiceOption) *Service {
	opts := ServiceOptions{
		TTL:   defaultCartTTL,
		Clock: func() time.Time { return time.Now().UTC() },
	}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "cart-service")
	}
	if opts.TTL <= 0 {
		opts.TTL = defaultCartTTL
	}

	return &Service{
		repo:    repo,
		catalog: catalog,
		ttl:     opts.TTL,
		clock:   opts.Clock,
		logger:  logger,
	}
}

// load возвращает рабочую корзину владельца для записи: отсутствующая или
// истёкшая корзина заменяется свежей. Из хранилища истёкшая запись не
// удаляется до следующей записи.
func (s *Service) load(ctx context.Context, ownerKey string) (domain.Cart, error) {
	now := s.clock()
	c, err := s.repo.Get(ctx, ownerKey)
	if err != nil {
		if errors.Is(err, domain.ErrCartNotFound) {
			return domain.NewCart(ownerKey, now, s.ttl), nil
		}
		return domain.Cart{}, fmt.Errorf("load cart: %w", err)
	}
	if c.Expired(now) {
		return domain.NewCart(ownerKey, now, s.ttl), nil
	}
	return c, nil
}

// Get возвращает корзину владельца. Истёкшая или отсутствующая корзина
// читается как пустая.
func (s *Service) Get(ctx context.Context, ownerKey string) (domain.Cart, error) {
	c, err := s.repo.Get(ctx, ownerKey)
	if err != nil {
		if errors.Is(err, domain.ErrCartNotFound) {
			return domain.NewCart(ownerKey, s.clock(), s.ttl), nil
		}
		return domain.Cart{}, fmt.Errorf("get cart: %w", err)
	}
	if c.Expired(s.clock()) {
		return domain.NewCart(ownerKey, s.clock(), s.ttl), nil
	}
	return c, nil
}

// AddItem добавляет товар в корзину, снапшотя имя и цену из каталога.
func (s *Service) AddItem(ctx context.Context, ownerKey, productID string, qty int32) (domain.Cart, error) {
	if qty <= 0 {
		return domain.Cart{}, domain.ErrInvalidQuantity
	}

	product, err := s.catalog.Get(ctx, productID)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("resolve product %q: %w", productID, err)
	}

	c, err := s.load(ctx, ownerKey)
	if err != nil {
		return domain.Cart{}, err
	}
	if err := c.AddLine(product.ID, product.Name, product.Price, qty, s.clock()); err != nil {
		return domain.Cart{}, err
	}
	if err := s.repo.Save(ctx, c); err != nil {
		return domain.Cart{}, fmt.Errorf("save cart: %w", err)
	}
	return c, nil
}

// SetQuantity заменяет количество позиции; qty <= 0 удаляет её.
func (s *Service) SetQuantity(ctx context.Context, ownerKey, productID string, qty int32) (domain.Cart, error) {
	c, err := s.load(ctx, ownerKey)
	if err != nil {
		return domain.Cart{}, err
	}
	c.SetQuantity(productID, qty)
	if err := s.repo.Save(ctx, c); err != nil {
		return domain.Cart{}, fmt.Errorf("save cart: %w", err)
	}
	return c, nil
}

// RemoveItem удаляет позицию; отсутствие позиции ошибкой не считается.
func (s *Service) RemoveItem(ctx context.Context, ownerKey, productID string) (domain.Cart, error) {
	c, err := s.load(ctx, ownerKey)
	if err != nil {
		return domain.Cart{}, err
	}
	c.RemoveLine(productID)
	if err := s.repo.Save(ctx, c); err != nil {
		return domain.Cart{}, fmt.Errorf("save cart: %w", err)
	}
	return c, nil
}

// Clear удаляет корзину владельца из хранилища.
func (s *Service) Clear(ctx context.Context, ownerKey string) error {
	if err := s.repo.Delete(ctx, ownerKey); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// AdoptMerged сохраняет результат слияния под целевым владельцем и удаляет
// гостевую корзину. Вызывается один раз — в момент перехода гостевой
// идентичности в авторизованную.
func (s *Service) AdoptMerged(ctx context.Context, targetOwner, guestOwner string) (domain.Cart, error) {
	now := s.clock()

	primary, err := s.Get(ctx, targetOwner)
	if err != nil {
		return domain.Cart{}, err
	}
	secondary, err := s.Get(ctx, guestOwner)
	if err != nil {
		return domain.Cart{}, err
	}

	merged := Merge(primary, secondary)
	merged.OwnerKey = targetOwner
	if merged.ExpiresAt.Before(now) {
		merged = domain.NewCart(targetOwner, now, s.ttl)
	}

	if err := s.repo.Save(ctx, merged); err != nil {
		return domain.Cart{}, fmt.Errorf("save merged cart: %w", err)
	}
	if err := s.repo.Delete(ctx, guestOwner); err != nil {
		s.logger.WithError(err).WithField("owner_key", guestOwner).Warn("failed to drop guest cart after merge")
	}
	return merged, nil
}
