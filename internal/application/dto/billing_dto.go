package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreatePaymentRequest pago de un cliente repartido entre remisiones (en el orden dado).
// Method es la clave SAT de forma de pago (01 efectivo, 03 transferencia, ...).
type CreatePaymentRequest struct {
	ClientID    int64           `json:"client_id" validate:"required,min=1"`
	ShipmentIDs []int64         `json:"shipment_ids" validate:"required,min=1,dive,min=1"`
	Amount      decimal.Decimal `json:"amount"`
	Method      string          `json:"method" validate:"required,len=2"`
	PaidAt      *time.Time      `json:"paid_at"`
}

// AllocationResponse porción del pago asignada a una remisión.
type AllocationResponse struct {
	ID             int64           `json:"id"`
	ShipmentID     int64           `json:"shipment_id"`
	AmountAssigned decimal.Decimal `json:"amount_assigned"`
	ShipmentPaid   bool            `json:"shipment_paid"`
}

// PaymentResponse salida de un pago con sus asignaciones.
type PaymentResponse struct {
	ID          int64                `json:"id"`
	ClientID    int64                `json:"client_id"`
	Amount      decimal.Decimal      `json:"amount"`
	Method      string               `json:"method"`
	PaidAt      time.Time            `json:"paid_at"`
	Allocations []AllocationResponse `json:"allocations"`
	CreatedAt   time.Time            `json:"created_at"`
}

// PaymentListResponse lista paginada de pagos.
type PaymentListResponse struct {
	Items []PaymentResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// InvoiceResponse resultado de timbrar la remisión.
type InvoiceResponse struct {
	ShipmentID  int64     `json:"shipment_id"`
	Folio       string    `json:"folio"`
	UUID        string    `json:"uuid"`
	StampedAt   time.Time `json:"stamped_at"`
	ArtifactURI string    `json:"artifact_uri"`
}
