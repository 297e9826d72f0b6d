package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Shipment representa una remisión (salida de mercancía hacia un cliente).
// CFDIFolio es de una sola escritura: su presencia indica que ya se facturó.
type Shipment struct {
	ID                 int64
	ClientID           int64
	Date               time.Time
	Lines              []ShipmentLine
	WeightTotal        decimal.Decimal
	TotalCost          decimal.Decimal
	IsPaid             bool
	ShouldBeInvoiced   bool
	CFDIFolio          string
	CFDIUUID           string
	StampedAt          *time.Time
	ArtifactURI        string
	InvoicingToken     string // reclamo temporal mientras se llama al PAC
	InvoicingClaimedAt *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// IsInvoiced indica si la remisión ya tiene folio fiscal.
func (s *Shipment) IsInvoiced() bool { return s.CFDIFolio != "" }

// ClaimActive indica si hay un reclamo de facturación vigente a la fecha now.
func (s *Shipment) ClaimActive(now time.Time, ttl time.Duration) bool {
	if s.InvoicingToken == "" || s.InvoicingClaimedAt == nil {
		return false
	}
	return now.Sub(*s.InvoicingClaimedAt) < ttl
}

// RecomputeTotals recalcula peso y costo de la cabecera a partir de sus líneas.
func (s *Shipment) RecomputeTotals() {
	weight, cost := decimal.Zero, decimal.Zero
	for _, l := range s.Lines {
		weight = weight.Add(l.WeightTotal)
		cost = cost.Add(l.Subtotal)
	}
	s.WeightTotal = weight
	s.TotalCost = cost
}

// ApplyAllocated recalcula IsPaid: pagada cuando lo asignado cubre el costo total.
func (s *Shipment) ApplyAllocated(allocated decimal.Decimal) {
	s.IsPaid = allocated.IsPositive() && allocated.GreaterThanOrEqual(s.TotalCost)
}

// Outstanding saldo pendiente dado lo ya asignado (nunca negativo).
func (s *Shipment) Outstanding(allocated decimal.Decimal) decimal.Decimal {
	rest := s.TotalCost.Sub(allocated)
	if rest.IsNegative() {
		return decimal.Zero
	}
	return rest
}

// Line busca una línea por ID.
func (s *Shipment) Line(id int64) (int, bool) {
	for i := range s.Lines {
		if s.Lines[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

// ShipmentLine detalle de remisión. El precio y los códigos SAT son una foto
// tomada al crear la línea; cambios posteriores del catálogo no la alteran.
type ShipmentLine struct {
	ID                    int64
	ShipmentID            int64
	Position              int
	ProductID             int64
	SupplierID            int64
	BoxCount              int
	IsByBox               bool
	WeightTotal           decimal.Decimal // peso neto
	EstimatedWeightPerBox decimal.Decimal
	PricePerKilo          decimal.Decimal
	Subtotal              decimal.Decimal // WeightTotal * PricePerKilo, 2 decimales
	ProductName           string
	SATProductCode        string
	SATUnitCode           string
	BoxWeights            []BoxWeight
}

// BoxWeight lectura de báscula de una caja física (solo líneas por caja).
type BoxWeight struct {
	ID             int64
	ShipmentLineID int64
	Weight         decimal.Decimal
}
