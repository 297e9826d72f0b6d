package dto

import "time"

// CreateProductRequest entrada para crear un producto. El stock inicia en 0 y solo cambia por movimientos.
type CreateProductRequest struct {
	Name           string `json:"name" validate:"required,min=1,max=200"`
	SATProductCode string `json:"sat_product_code" validate:"required,numeric,len=8"`
	SATUnitCode    string `json:"sat_unit_code" validate:"required,min=2,max=3"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	SATProductCode string    `json:"sat_product_code"`
	SATUnitCode    string    `json:"sat_unit_code"`
	CurrentStock   int       `json:"current_stock"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}
