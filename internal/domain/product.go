package domain

// Product — справочная карточка товара из каталога.
type Product struct {
	ID string
	// Name — отображаемое название, снапшотится в строку корзины.
	Name string
	// Price — цена за единицу в целых единицах валюты (UGX не имеет дробной части).
	Price int64
}

// StockRecord отражает складской счётчик одного товара.
// Владелец записи — StockLedger; напрямую записи не мутируются.
type StockRecord struct {
	ProductID     string
	CurrentStock  int32
	ReservedStock int32
}

// Available возвращает доступный остаток: current - reserved.
func (s StockRecord) Available() int32 {
	return s.CurrentStock - s.ReservedStock
}
