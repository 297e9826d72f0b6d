package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReceiptLineRequest línea de una entrada de inventario.
type ReceiptLineRequest struct {
	ProductID   int64           `json:"product_id" validate:"required,min=1"`
	BoxCount    int             `json:"box_count" validate:"required,min=1"`
	WeightTotal decimal.Decimal `json:"weight_total"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// CreateReceiptRequest entrada para crear o reemplazar una entrada de inventario.
type CreateReceiptRequest struct {
	SupplierID int64                `json:"supplier_id" validate:"required,min=1"`
	Lines      []ReceiptLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// ReceiptLineResponse línea de entrada en respuestas.
type ReceiptLineResponse struct {
	ID          int64           `json:"id"`
	ProductID   int64           `json:"product_id"`
	BoxCount    int             `json:"box_count"`
	WeightTotal decimal.Decimal `json:"weight_total"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// ReceiptResponse salida de una entrada de inventario.
type ReceiptResponse struct {
	ID         int64                 `json:"id"`
	SupplierID int64                 `json:"supplier_id"`
	Lines      []ReceiptLineResponse `json:"lines"`
	CreatedAt  time.Time             `json:"created_at"`
	UpdatedAt  time.Time             `json:"updated_at"`
}

// ReceiptListResponse lista paginada de entradas.
type ReceiptListResponse struct {
	Items []ReceiptResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// Direcciones de un ajuste manual.
const (
	AdjustmentIn  = "IN"
	AdjustmentOut = "OUT"
)

// AdjustmentRequest ajuste manual de existencias (merma, conteo físico, devolución).
type AdjustmentRequest struct {
	ProductID int64  `json:"product_id" validate:"required,min=1"`
	Direction string `json:"direction" validate:"required,oneof=IN OUT"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
	Reason    string `json:"reason" validate:"required,min=3,max=250"`
}

// MovementResponse entrada del libro de movimientos.
type MovementResponse struct {
	ID            int64     `json:"id"`
	ProductID     int64     `json:"product_id"`
	Kind          string    `json:"kind"`
	Quantity      int       `json:"quantity"`
	StockAfter    int       `json:"stock_after"`
	Reason        string    `json:"reason"`
	ReferenceType string    `json:"reference_type"`
	ReferenceID   int64     `json:"reference_id"`
	CreatedAt     time.Time `json:"created_at"`
	CreatedBy     string    `json:"created_by"`
}

// MovementFilter filtros para consultar el libro (kardex) de un producto.
type MovementFilter struct {
	ProductID int64      `query:"product_id" validate:"required,min=1"`
	From      *time.Time `query:"from"`
	To        *time.Time `query:"to"`
}

// MovementListResponse lista paginada de movimientos.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// ReconciliationItem producto cuyo stock no coincide con la suma de su libro.
type ReconciliationItem struct {
	ProductID    int64  `json:"product_id"`
	ProductName  string `json:"product_name"`
	CurrentStock int    `json:"current_stock"`
	LedgerSum    int    `json:"ledger_sum"`
	Drift        int    `json:"drift"`
}

// ReconciliationResponse resultado de la conciliación stock vs libro.
type ReconciliationResponse struct {
	CheckedProducts int                  `json:"checked_products"`
	Consistent      bool                 `json:"consistent"`
	Items           []ReconciliationItem `json:"items"`
	GeneratedAt     time.Time            `json:"generated_at"`
}
