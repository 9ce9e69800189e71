package domain

// StockWarningReason — причина корректировки позиции при валидации.
type StockWarningReason string

const (
	// StockWarningOutOfStock — товара нет в наличии, позиция удалена.
	StockWarningOutOfStock StockWarningReason = "out_of_stock"
	// StockWarningPartialStock — доступна только часть запрошенного, количество урезано.
	StockWarningPartialStock StockWarningReason = "partial_stock"
)

// StockAdjustmentWarning — рекомендательное предупреждение валидатора.
// Никогда не персистится; живёт только в ответе вызывающей стороне.
type StockAdjustmentWarning struct {
	ProductID   string
	ProductName string
	Requested   int32
	Granted     int32
	Reason      StockWarningReason
}
