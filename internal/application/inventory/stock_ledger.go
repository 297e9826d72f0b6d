package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/remisiones-api/internal/domain"
	"github.com/jhoicas/remisiones-api/internal/domain/entity"
	"github.com/jhoicas/remisiones-api/internal/domain/inventory"
	"github.com/jhoicas/remisiones-api/internal/domain/repository"
)

// Posting describe un cambio de existencias y el documento que lo origina.
type Posting struct {
	ProductID     int64
	Kind          string
	Quantity      int // con signo
	Reason        string
	ReferenceType string
	ReferenceID   int64
	Actor         string
}

// StockLedger es el único que modifica current_stock: bloquea la fila del producto,
// actualiza el contador y agrega el movimiento con los repositorios de la misma transacción.
type StockLedger struct {
	now func() time.Time
}

// NewStockLedger construye el libro de existencias.
func NewStockLedger() *StockLedger {
	return &StockLedger{now: time.Now}
}

// Lock bloquea la fila del producto (SELECT FOR UPDATE) y la devuelve.
func (l *StockLedger) Lock(ctx context.Context, repos repository.Repositories, productID int64) (*entity.Product, error) {
	product, err := repos.Products.GetForUpdate(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("%w: %d", domain.ErrProductNotFound, productID)
	}
	return product, nil
}

// Post aplica el movimiento. Si el stock quedara negativo devuelve ErrInsufficientStock
// sin escribir nada; el caller debe abortar la transacción.
func (l *StockLedger) Post(ctx context.Context, repos repository.Repositories, p Posting) (*entity.Movement, error) {
	product, err := l.Lock(ctx, repos, p.ProductID)
	if err != nil {
		return nil, err
	}
	account := inventory.NewStockAccount(product)
	mov, err := account.Post(p.Kind, p.Quantity)
	if err != nil {
		return nil, err
	}
	if err := repos.Products.UpdateStock(ctx, product.ID, account.OnHand); err != nil {
		return nil, err
	}
	mov.Reason = p.Reason
	mov.ReferenceType = p.ReferenceType
	mov.ReferenceID = p.ReferenceID
	mov.CreatedBy = p.Actor
	mov.CreatedAt = l.now()
	if err := repos.Movements.Create(ctx, &mov); err != nil {
		return nil, err
	}
	return &mov, nil
}
