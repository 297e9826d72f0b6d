package repository

import (
	"context"

	"github.com/jhoicas/remisiones-api/internal/domain/entity"
)

// ShipmentFilter filtros opcionales para listar remisiones.
type ShipmentFilter struct {
	ClientID int64
	IsPaid   *bool
	Invoiced *bool
}

// ShipmentRepository define el puerto de persistencia para remisiones, líneas y pesos por caja.
type ShipmentRepository interface {
	Create(ctx context.Context, shipment *entity.Shipment) error
	// CreateLine inserta la línea y sus BoxWeights.
	CreateLine(ctx context.Context, line *entity.ShipmentLine) error
	GetByID(ctx context.Context, id int64) (*entity.Shipment, error)
	GetForUpdate(ctx context.Context, id int64) (*entity.Shipment, error)
	// UpdateTotals persiste peso, costo, pagado y should_be_invoiced de la cabecera.
	UpdateTotals(ctx context.Context, shipment *entity.Shipment) error
	// UpdateLine reemplaza los datos de pesaje y los BoxWeights de la línea.
	UpdateLine(ctx context.Context, line *entity.ShipmentLine) error
	// UpdateInvoicing persiste folio, uuid, fecha de timbrado, artefacto y reclamo.
	UpdateInvoicing(ctx context.Context, shipment *entity.Shipment) error
	DeleteLines(ctx context.Context, shipmentID int64) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter ShipmentFilter, limit, offset int) ([]*entity.Shipment, error)
}
