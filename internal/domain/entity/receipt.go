package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Receipt representa una entrada de inventario entregada por un proveedor.
type Receipt struct {
	ID         int64
	SupplierID int64
	Lines      []ReceiptLine
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ReceiptLine línea de una entrada; pertenece a su Receipt.
type ReceiptLine struct {
	ID          int64
	ReceiptID   int64
	Position    int
	ProductID   int64
	BoxCount    int
	WeightTotal decimal.Decimal // kg
	UnitPrice   decimal.Decimal
}

// BoxesByProduct suma las cajas de las líneas agrupadas por producto.
func (r *Receipt) BoxesByProduct() map[int64]int {
	out := make(map[int64]int, len(r.Lines))
	for _, l := range r.Lines {
		out[l.ProductID] += l.BoxCount
	}
	return out
}
