package repository

import (
	"context"

	"github.com/jhoicas/remisiones-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// PaymentRepository define el puerto de persistencia para pagos y sus asignaciones.
type PaymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error
	CreateAllocation(ctx context.Context, allocation *entity.PaymentAllocation) error
	GetByID(ctx context.Context, id int64) (*entity.Payment, error)
	// GetForUpdate bloquea la fila del pago antes de leer sus asignaciones.
	GetForUpdate(ctx context.Context, id int64) (*entity.Payment, error)
	GetAllocation(ctx context.Context, id int64) (*entity.PaymentAllocation, error)
	ListAllocationsByShipment(ctx context.Context, shipmentID int64) ([]entity.PaymentAllocation, error)
	// SumAllocated devuelve Σ amount_assigned de las asignaciones de la remisión.
	SumAllocated(ctx context.Context, shipmentID int64) (decimal.Decimal, error)
	UpdateAmount(ctx context.Context, paymentID int64, amount decimal.Decimal) error
	DeleteAllocation(ctx context.Context, id int64) error
	DeleteAllocationsByShipment(ctx context.Context, shipmentID int64) error
	DeleteAllocationsByPayment(ctx context.Context, paymentID int64) error
	Delete(ctx context.Context, id int64) error
	ListByClient(ctx context.Context, clientID int64, limit, offset int) ([]*entity.Payment, error)
}
