package repository

import (
	"context"

	"github.com/jhoicas/remisiones-api/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para Product (DIP).
// GetByID y GetForUpdate devuelven (nil, nil) cuando el producto no existe.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id int64) (*entity.Product, error)
	// GetForUpdate bloquea la fila del producto hasta el fin de la transacción (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, id int64) (*entity.Product, error)
	// UpdateStock solo debe llamarlo el libro de movimientos.
	UpdateStock(ctx context.Context, id int64, stock int) error
	List(ctx context.Context, limit, offset int) ([]*entity.Product, error)
}
