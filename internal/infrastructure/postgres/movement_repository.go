package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/remisiones-api/internal/domain/entity"
	"github.com/jhoicas/remisiones-api/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

const movementColumns = `id, product_id, kind, quantity, stock_after, reason, reference_type, reference_id, created_at, created_by`

// MovementRepo libro de movimientos: solo INSERT y SELECT, nunca UPDATE ni DELETE.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// Create registra el movimiento (entrada positiva, salida negativa).
func (r *MovementRepo) Create(ctx context.Context, m *entity.Movement) error {
	query := `
		INSERT INTO inventory_movements (product_id, kind, quantity, stock_after, reason, reference_type, reference_id, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, now()), $9)
		RETURNING id, created_at`
	var at *time.Time
	if !m.CreatedAt.IsZero() {
		at = &m.CreatedAt
	}
	err := r.q.QueryRow(ctx, query,
		m.ProductID, m.Kind, m.Quantity, m.StockAfter, m.Reason, m.ReferenceType, m.ReferenceID, at, m.CreatedBy,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}
	return nil
}

// ListByProduct movimientos del producto en orden de registro; from inclusivo, to exclusivo.
func (r *MovementRepo) ListByProduct(ctx context.Context, productID int64, from, to *time.Time, limit, offset int) ([]*entity.Movement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM inventory_movements
		WHERE product_id = $1
		  AND ($2::timestamptz IS NULL OR created_at >= $2)
		  AND ($3::timestamptz IS NULL OR created_at < $3)
		ORDER BY id
		LIMIT NULLIF($4, 0) OFFSET $5`
	rows, err := r.q.Query(ctx, query, productID, from, to, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	return scanMovements(rows)
}

// ListByReference movimientos generados por un documento (entrada, remisión o ajuste).
func (r *MovementRepo) ListByReference(ctx context.Context, referenceType string, referenceID int64) ([]*entity.Movement, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+movementColumns+` FROM inventory_movements WHERE reference_type = $1 AND reference_id = $2 ORDER BY id`,
		referenceType, referenceID)
	if err != nil {
		return nil, fmt.Errorf("list movements by reference: %w", err)
	}
	return scanMovements(rows)
}

// SumByProduct Σ quantity por producto.
func (r *MovementRepo) SumByProduct(ctx context.Context) (map[int64]int, error) {
	rows, err := r.q.Query(ctx, `SELECT product_id, COALESCE(SUM(quantity), 0) FROM inventory_movements GROUP BY product_id`)
	if err != nil {
		return nil, fmt.Errorf("sum movements: %w", err)
	}
	defer rows.Close()
	out := map[int64]int{}
	for rows.Next() {
		var (
			id  int64
			sum int64
		)
		if err := rows.Scan(&id, &sum); err != nil {
			return nil, fmt.Errorf("scan movement sum: %w", err)
		}
		out[id] = int(sum)
	}
	return out, rows.Err()
}

func scanMovements(rows pgx.Rows) ([]*entity.Movement, error) {
	defer rows.Close()
	var list []*entity.Movement
	for rows.Next() {
		var m entity.Movement
		if err := rows.Scan(&m.ID, &m.ProductID, &m.Kind, &m.Quantity, &m.StockAfter, &m.Reason,
			&m.ReferenceType, &m.ReferenceID, &m.CreatedAt, &m.CreatedBy); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}
