package repository

import (
	"context"

	"github.com/jhoicas/remisiones-api/internal/domain/entity"
)

// ReceiptRepository define el puerto de persistencia para entradas y sus líneas.
// Los borrados en cascada son explícitos: DeleteLines antes de Delete.
type ReceiptRepository interface {
	Create(ctx context.Context, receipt *entity.Receipt) error
	CreateLine(ctx context.Context, line *entity.ReceiptLine) error
	GetByID(ctx context.Context, id int64) (*entity.Receipt, error)
	GetForUpdate(ctx context.Context, id int64) (*entity.Receipt, error)
	Update(ctx context.Context, receipt *entity.Receipt) error
	DeleteLines(ctx context.Context, receiptID int64) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, limit, offset int) ([]*entity.Receipt, error)
}
