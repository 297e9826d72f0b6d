package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment pago recibido de un cliente.
type Payment struct {
	ID          int64
	ClientID    int64
	Amount      decimal.Decimal
	Method      string // forma de pago SAT (01 efectivo, 03 transferencia, ...)
	PaidAt      time.Time
	Allocations []PaymentAllocation
	CreatedAt   time.Time
}

// PaymentAllocation parte de un pago aplicada a una remisión.
type PaymentAllocation struct {
	ID             int64
	PaymentID      int64
	ShipmentID     int64
	AmountAssigned decimal.Decimal
}
