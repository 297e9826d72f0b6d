package ports

import (
	"context"

	"github.com/jhoicas/remisiones-api/internal/domain/repository"
)

// TxRunner ejecuta fn dentro de una transacción, pasando repositorios atados a esa tx.
// Commit si fn devuelve nil; Rollback en cualquier otro caso.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos repository.Repositories) error) error
}

// SnapshotRunner ejecuta fn en una transacción de solo lectura: todas las consultas de fn
// ven la misma instantánea.
type SnapshotRunner interface {
	ReadSnapshot(ctx context.Context, fn func(repos repository.Repositories) error) error
}
