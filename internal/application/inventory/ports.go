package inventory

import (
	"io"

	"github.com/jhoicas/remisiones-api/internal/domain/entity"
)

// KardexWriter escribe el kardex (movimientos con saldo) de un producto en un formato de hoja de cálculo.
type KardexWriter interface {
	WriteKardex(w io.Writer, product *entity.Product, movements []*entity.Movement) error
}
