package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// NewClient создаёт Redis-клиент по URL и проверяет соединение.
func NewClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// cartLineDoc — JSON-представление позиции корзины в Redis.
type cartLineDoc struct {
	ProductID string    `json:"product_id"`
	Name      string    `json:"name"`
	UnitPrice int64     `json:"unit_price"`
	Qty       int32     `json:"qty"`
	AddedAt   time.Time `json:"added_at"`
}

// cartDoc — JSON-представление корзины в Redis.
type cartDoc struct {
	OwnerKey  string        `json:"owner_key"`
	Lines     []cartLineDoc `json:"lines"`
	CreatedAt time.Time     `json:"created_at"`
	ExpiresAt time.Time     `json:"expires_at"`
}

// CartRepository хранит корзины как JSON-документы с TTL, совпадающим со
// сроком жизни корзины. Redis сам убирает истёкшие записи.
type CartRepository struct {
	client *redis.Client
	clock  func() time.Time
}

// NewCartRepository создаёт Redis-реализацию репозитория корзин.
func NewCartRepository(client *redis.Client) *CartRepository {
	return &CartRepository{
		client: client,
		clock:  func() time.Time { return time.Now().UTC() },
	}
}

var _ domain.CartRepository = (*CartRepository)(nil)

func cartKey(ownerKey string) string {
	return "storefront:cart:" + ownerKey
}

// Get возвращает корзину владельца или ErrCartNotFound.
func (r *CartRepository) Get(ctx context.Context, ownerKey string) (domain.Cart, error) {
	data, err := r.client.Get(ctx, cartKey(ownerKey)).Result()
	if errors.Is(err, redis.Nil) {
		return domain.Cart{}, domain.ErrCartNotFound
	}
	if err != nil {
		return domain.Cart{}, fmt.Errorf("redis get cart: %w", err)
	}

	var doc cartDoc
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return domain.Cart{}, fmt.Errorf("decode cart document: %w", err)
	}

	c := domain.Cart{
		OwnerKey:  doc.OwnerKey,
		CreatedAt: doc.CreatedAt,
		ExpiresAt: doc.ExpiresAt,
		Lines:     make([]domain.CartLine, 0, len(doc.Lines)),
	}
	for _, line := range doc.Lines {
		c.Lines = append(c.Lines, domain.CartLine{
			ProductID: line.ProductID,
			Name:      line.Name,
			UnitPrice: line.UnitPrice,
			Qty:       line.Qty,
			AddedAt:   line.AddedAt,
		})
	}
	return c, nil
}

// Save сохраняет корзину. TTL ключа привязывается к ExpiresAt корзины.
func (r *CartRepository) Save(ctx context.Context, c domain.Cart) error {
	doc := cartDoc{
		OwnerKey:  c.OwnerKey,
		CreatedAt: c.CreatedAt,
		ExpiresAt: c.ExpiresAt,
		Lines:     make([]cartLineDoc, 0, len(c.Lines)),
	}
	for _, line := range c.Lines {
		doc.Lines = append(doc.Lines, cartLineDoc{
			ProductID: line.ProductID,
			Name:      line.Name,
			UnitPrice: line.UnitPrice,
			Qty:       line.Qty,
			AddedAt:   line.AddedAt,
		})
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode cart document: %w", err)
	}

	ttl := c.ExpiresAt.Sub(r.clock())
	if ttl <= 0 {
		// Истёкшая корзина не пишется, существующий ключ убирается.
		return r.Delete(ctx, c.OwnerKey)
	}

	if err := r.client.Set(ctx, cartKey(c.OwnerKey), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set cart: %w", err)
	}
	return nil
}

// Delete удаляет корзину владельца; отсутствие ключа ошибкой не считается.
func (r *CartRepository) Delete(ctx context.Context, ownerKey string) error {
	if err := r.client.Del(ctx, cartKey(ownerKey)).Err(); err != nil {
		return fmt.Errorf("redis del cart: %w", err)
	}
	return nil
}
