package inventory

import (
	"fmt"

	"github.com/jhoicas/remisiones-api/internal/domain"
	"github.com/jhoicas/remisiones-api/internal/domain/entity"
)

// StockAccount cuenta de existencias (cajas) de un producto. Toda variación pasa por Post,
// que produce el movimiento del libro correspondiente; así contador y libro no divergen.
type StockAccount struct {
	ProductID int64
	OnHand    int
}

// NewStockAccount abre la cuenta a partir de la fila (bloqueada) del producto.
func NewStockAccount(p *entity.Product) StockAccount {
	return StockAccount{ProductID: p.ID, OnHand: p.CurrentStock}
}

// CanWithdraw indica si hay existencias para retirar boxes cajas.
func (a StockAccount) CanWithdraw(boxes int) bool {
	return a.OnHand >= boxes
}

// Post aplica quantity (con signo) y devuelve el movimiento con el stock resultante.
// Valida el signo según el tipo y que el stock nunca quede negativo.
func (a *StockAccount) Post(kind string, quantity int) (entity.Movement, error) {
	if err := checkSign(kind, quantity); err != nil {
		return entity.Movement{}, err
	}
	next := a.OnHand + quantity
	if next < 0 {
		return entity.Movement{}, fmt.Errorf("%w: producto %d tiene %d cajas, se requieren %d",
			domain.ErrInsufficientStock, a.ProductID, a.OnHand, -quantity)
	}
	a.OnHand = next
	return entity.Movement{
		ProductID:  a.ProductID,
		Kind:       kind,
		Quantity:   quantity,
		StockAfter: next,
	}, nil
}

func checkSign(kind string, quantity int) error {
	switch kind {
	case entity.MovementKindEntry, entity.MovementKindAdjustmentIn:
		if quantity <= 0 {
			return domain.ErrInvalidInput
		}
	case entity.MovementKindRemission, entity.MovementKindAdjustmentOut:
		if quantity >= 0 {
			return domain.ErrInvalidInput
		}
	case entity.MovementKindAdjustment:
		// corrección de recepción: cualquier signo, incluso cero
	default:
		return domain.ErrInvalidInput
	}
	return nil
}
