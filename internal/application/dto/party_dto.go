package dto

import "time"

// CreateSupplierRequest entrada para registrar un proveedor.
type CreateSupplierRequest struct {
	Name string `json:"name" validate:"required,min=1,max=200"`
}

// SupplierResponse salida de un proveedor.
type SupplierResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateClientRequest entrada para registrar un cliente con sus datos fiscales (receptor del CFDI).
type CreateClientRequest struct {
	Name      string `json:"name" validate:"required,min=1,max=250"`
	RFC       string `json:"rfc" validate:"required,min=12,max=13"`
	TaxRegime string `json:"tax_regime" validate:"required,numeric,len=3"`
	ZipCode   string `json:"zip_code" validate:"required,numeric,len=5"`
	CFDIUse   string `json:"cfdi_use" validate:"omitempty,min=3,max=4"`
}

// ClientResponse salida de un cliente.
type ClientResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	RFC       string    `json:"rfc"`
	TaxRegime string    `json:"tax_regime"`
	ZipCode   string    `json:"zip_code"`
	CFDIUse   string    `json:"cfdi_use"`
	CreatedAt time.Time `json:"created_at"`
}
