package entity

import "time"

// Supplier representa una granja o proveedor que entrega producto.
type Supplier struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

// Client representa un cliente receptor de remisiones y CFDI.
type Client struct {
	ID        int64
	Name      string
	RFC       string
	TaxRegime string // RegimenFiscalReceptor
	ZipCode   string // DomicilioFiscalReceptor
	CFDIUse   string // UsoCFDI
	CreatedAt time.Time
	UpdatedAt time.Time
}
