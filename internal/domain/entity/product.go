package entity

import "time"

// Product representa un tipo de huevo del catálogo (por ejemplo "Blanco Jumbo").
// CurrentStock se expresa en cajas y solo lo modifica el libro de movimientos.
type Product struct {
	ID             int64
	Name           string
	SATProductCode string // ClaveProdServ (catálogo SAT, se pasa tal cual al CFDI)
	SATUnitCode    string // ClaveUnidad
	CurrentStock   int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
