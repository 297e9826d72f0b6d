package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ShipmentLineRequest línea de remisión. IsByBox=true exige BoxWeights; false exige WeightTotal.
// Las líneas se validan en el caso de uso para poder acumular errores por línea.
type ShipmentLineRequest struct {
	ProductID    int64             `json:"product_id"`
	SupplierID   int64             `json:"supplier_id"`
	BoxCount     int               `json:"box_count"`
	IsByBox      bool              `json:"is_by_box"`
	BoxWeights   []decimal.Decimal `json:"box_weights,omitempty"`
	WeightTotal  *decimal.Decimal  `json:"weight_total,omitempty"`
	PricePerKilo decimal.Decimal   `json:"price_per_kilo"`
}

// CreateShipmentRequest entrada para crear una remisión.
type CreateShipmentRequest struct {
	ClientID int64                 `json:"client_id" validate:"required,min=1"`
	Date     *time.Time            `json:"date"`
	Lines    []ShipmentLineRequest `json:"lines" validate:"required,min=1"`
}

// UpdateShipmentLineRequest nuevos datos de una línea existente (producto y proveedor no cambian).
type UpdateShipmentLineRequest struct {
	BoxCount     int               `json:"box_count" validate:"required,min=1"`
	IsByBox      bool              `json:"is_by_box"`
	BoxWeights   []decimal.Decimal `json:"box_weights,omitempty"`
	WeightTotal  *decimal.Decimal  `json:"weight_total,omitempty"`
	PricePerKilo decimal.Decimal   `json:"price_per_kilo"`
}

// ShipmentLineResponse línea de remisión en respuestas.
type ShipmentLineResponse struct {
	ID                    int64             `json:"id"`
	ProductID             int64             `json:"product_id"`
	SupplierID            int64             `json:"supplier_id"`
	ProductName           string            `json:"product_name"`
	SATProductCode        string            `json:"sat_product_code"`
	SATUnitCode           string            `json:"sat_unit_code"`
	BoxCount              int               `json:"box_count"`
	IsByBox               bool              `json:"is_by_box"`
	BoxWeights            []decimal.Decimal `json:"box_weights,omitempty"`
	WeightTotal           decimal.Decimal   `json:"weight_total"`
	EstimatedWeightPerBox decimal.Decimal   `json:"estimated_weight_per_box"`
	PricePerKilo          decimal.Decimal   `json:"price_per_kilo"`
	Subtotal              decimal.Decimal   `json:"subtotal"`
}

// ShipmentResponse salida de una remisión. Errors lista las líneas rechazadas al crearla.
type ShipmentResponse struct {
	ID               int64                  `json:"id"`
	ClientID         int64                  `json:"client_id"`
	Date             time.Time              `json:"date"`
	Lines            []ShipmentLineResponse `json:"lines"`
	WeightTotal      decimal.Decimal        `json:"weight_total"`
	TotalCost        decimal.Decimal        `json:"total_cost"`
	IsPaid           bool                   `json:"is_paid"`
	ShouldBeInvoiced bool                   `json:"should_be_invoiced"`
	CFDIFolio        string                 `json:"cfdi_folio,omitempty"`
	CFDIUUID         string                 `json:"cfdi_uuid,omitempty"`
	StampedAt        *time.Time             `json:"stamped_at,omitempty"`
	Errors           []LineErrorResponse    `json:"errors,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

// ShipmentListRequest filtros del listado de remisiones.
type ShipmentListRequest struct {
	PageRequest
	ClientID int64 `query:"client_id" validate:"min=0"`
	IsPaid   *bool `query:"is_paid"`
	Invoiced *bool `query:"invoiced"`
}

// ShipmentListResponse lista paginada de remisiones.
type ShipmentListResponse struct {
	Items []ShipmentResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}
