package domain

import "time"

// CartLine представляет одну позицию корзины.
type CartLine struct {
	ProductID string
	// Name и UnitPrice — снапшот из каталога на момент добавления.
	Name      string
	UnitPrice int64
	// Qty — количество единиц товара, всегда > 0.
	Qty int32
	// AddedAt фиксирует момент добавления позиции.
	AddedAt time.Time
}

// Cart агрегирует позиции одного покупателя. OwnerKey — гостевой токен
// или идентификатор авторизованного пользователя; движок его не трактует.
type Cart struct {
	OwnerKey  string
	Lines     []CartLine
	CreatedAt time.Time
	ExpiresAt time.Time
}

// NewCart создаёт пустую корзину с заданным TTL.
func NewCart(ownerKey string, now time.Time, ttl time.Duration) Cart {
	return Cart{
		OwnerKey:  ownerKey,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// Expired сообщает, истёк ли срок жизни корзины на момент now.
func (c *Cart) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// IsEmpty сообщает, пуста ли корзина.
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// AddLine добавляет позицию или увеличивает количество существующей.
// Количество должно быть положительным.
func (c *Cart) AddLine(productID, name string, unitPrice int64, qty int32, now time.Time) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines[i].Qty += qty
			return nil
		}
	}
	c.Lines = append(c.Lines, CartLine{
		ProductID: productID,
		Name:      name,
		UnitPrice: unitPrice,
		Qty:       qty,
		AddedAt:   now,
	})
	return nil
}

// SetQuantity заменяет количество позиции. qty <= 0 удаляет позицию:
// строка с нулевым количеством не хранится.
func (c *Cart) SetQuantity(productID string, qty int32) {
	if qty <= 0 {
		c.RemoveLine(productID)
		return
	}
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines[i].Qty = qty
			return
		}
	}
}

// RemoveLine удаляет позицию. Отсутствие позиции ошибкой не считается.
func (c *Cart) RemoveLine(productID string) {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return
		}
	}
}

// Clear опустошает корзину.
func (c *Cart) Clear() {
	c.Lines = nil
}

// Line возвращает позицию по товару, если она есть.
func (c *Cart) Line(productID string) (CartLine, bool) {
	for _, line := range c.Lines {
		if line.ProductID == productID {
			return line, true
		}
	}
	return CartLine{}, false
}

// ItemCount возвращает суммарное количество единиц во всех позициях.
func (c *Cart) ItemCount() int32 {
	var total int32
	for _, line := range c.Lines {
		total += line.Qty
	}
	return total
}

// ValidateInvariants проверяет базовые инварианты корзины и возвращает список замечаний.
func (c *Cart) ValidateInvariants() []error {
	var errs []error

	seen := make(map[string]bool, len(c.Lines))
	for _, line := range c.Lines {
		if line.Qty <= 0 {
			errs = append(errs, ErrInvalidQuantity)
		}
		if line.ProductID == "" || seen[line.ProductID] {
			errs = append(errs, ErrProductNotFound)
		}
		seen[line.ProductID] = true
	}

	return errs
}
