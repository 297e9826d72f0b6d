package entity

import "time"

// Tipos de movimiento del libro de inventario.
const (
	MovementKindEntry         = "ENTRY"          // entrada por recepción
	MovementKindAdjustment    = "ADJUSTMENT"     // corrección de una recepción
	MovementKindAdjustmentIn  = "ADJUSTMENT_IN"  // ajuste manual o reversión positiva
	MovementKindAdjustmentOut = "ADJUSTMENT_OUT" // ajuste manual o reversión negativa
	MovementKindRemission     = "REMISSION"      // salida por remisión
)

// Tipos de documento referenciado por un movimiento.
const (
	ReferenceReceipt  = "receipt"
	ReferenceShipment = "shipment"
	ReferenceManual   = "manual"
)

// Motivos estándar de los movimientos generados por el sistema.
const (
	ReasonReceiptEntry        = "receipt entry"
	ReasonReceiptUpdated      = "receipt updated"
	ReasonReceiptLineRemoved  = "line removed from updated receipt"
	ReasonReceiptDeleted      = "reversal of deleted receipt"
	ReasonRemission           = "remission"
	ReasonRemissionLineEdited = "remission line updated"
	ReasonRemissionDeleted    = "reversal of deleted remission"
)

// Movement es una entrada inmutable del libro: las correcciones son movimientos nuevos.
type Movement struct {
	ID            int64
	ProductID     int64
	Kind          string
	Quantity      int // con signo: positivo entra, negativo sale
	StockAfter    int // stock del producto después de aplicar el movimiento
	Reason        string
	ReferenceType string
	ReferenceID   int64
	CreatedAt     time.Time
	CreatedBy     string
}
