package domain

import "time"

// ReservationStatus отражает статус удержания стока.
type ReservationStatus string

const (
	// ReservationStatusHeld — количество удержано, но продажа ещё не финализирована.
	ReservationStatusHeld ReservationStatus = "held"
	// ReservationStatusCommitted — резерв финализирован в постоянное списание стока.
	ReservationStatusCommitted ReservationStatus = "committed"
	// ReservationStatusReleased — резерв снят, количество возвращено в доступный остаток.
	ReservationStatusReleased ReservationStatus = "released"
)

// Reservation — ограниченное по времени удержание количества стока под заказ.
type Reservation struct {
	ID        string
	ProductID string
	Qty       int32
	Status    ReservationStatus
	CreatedAt time.Time
	// ExpiresAt — момент автоснятия незакоммиченного резерва.
	ExpiresAt time.Time
}

// Expired сообщает, истёк ли резерв на момент now.
func (r *Reservation) Expired(now time.Time) bool {
	return r.Status == ReservationStatusHeld && now.After(r.ExpiresAt)
}

// Validate проверяет, корректно ли заполнены ключевые поля резерва.
func (r *Reservation) Validate() []error {
	var errs []error

	if r.ProductID == "" {
		errs = append(errs, ErrProductNotFound)
	}
	if r.Qty <= 0 {
		errs = append(errs, ErrInvalidQuantity)
	}

	return errs
}
