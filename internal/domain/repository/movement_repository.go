package repository

import (
	"context"
	"time"

	"github.com/jhoicas/remisiones-api/internal/domain/entity"
)

// MovementRepository define el puerto del libro de movimientos (solo inserción y lectura).
type MovementRepository interface {
	Create(ctx context.Context, movement *entity.Movement) error
	ListByProduct(ctx context.Context, productID int64, from, to *time.Time, limit, offset int) ([]*entity.Movement, error)
	ListByReference(ctx context.Context, referenceType string, referenceID int64) ([]*entity.Movement, error)
	// SumByProduct devuelve Σ quantity por producto (base de la conciliación).
	SumByProduct(ctx context.Context) (map[int64]int, error)
}
