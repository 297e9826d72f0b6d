package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/remisiones-api/internal/domain"
	"github.com/jhoicas/remisiones-api/internal/domain/entity"
	"github.com/jhoicas/remisiones-api/internal/domain/repository"
)

var _ repository.PaymentRepository = (*PaymentRepo)(nil)

// PaymentRepo pagos y asignaciones a remisiones.
type PaymentRepo struct {
	q Querier
}

// NewPaymentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPaymentRepository(q Querier) *PaymentRepo {
	return &PaymentRepo{q: q}
}

func (r *PaymentRepo) Create(ctx context.Context, p *entity.Payment) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO payments (client_id, amount, method, paid_at, created_at)
		VALUES ($1, $2, $3, $4, now())
		RETURNING id, created_at`,
		p.ClientID, p.Amount, p.Method, p.PaidAt).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (r *PaymentRepo) CreateAllocation(ctx context.Context, a *entity.PaymentAllocation) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO payment_allocations (payment_id, shipment_id, amount_assigned)
		VALUES ($1, $2, $3) RETURNING id`,
		a.PaymentID, a.ShipmentID, a.AmountAssigned).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("insert payment allocation: %w", err)
	}
	return nil
}

// GetByID obtiene el pago con sus asignaciones.
func (r *PaymentRepo) GetByID(ctx context.Context, id int64) (*entity.Payment, error) {
	return r.load(ctx, `SELECT id, client_id, amount, method, paid_at, created_at FROM payments WHERE id = $1`, id)
}

// GetForUpdate bloquea el pago (SELECT FOR UPDATE); las asignaciones se leen ya con el candado.
func (r *PaymentRepo) GetForUpdate(ctx context.Context, id int64) (*entity.Payment, error) {
	return r.load(ctx, `SELECT id, client_id, amount, method, paid_at, created_at FROM payments WHERE id = $1 FOR UPDATE`, id)
}

func (r *PaymentRepo) load(ctx context.Context, query string, id int64) (*entity.Payment, error) {
	var p entity.Payment
	err := r.q.QueryRow(ctx, query, id).
		Scan(&p.ID, &p.ClientID, &p.Amount, &p.Method, &p.PaidAt, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}
	if p.Allocations, err = r.allocations(ctx, `payment_id = $1`, p.ID); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepo) GetAllocation(ctx context.Context, id int64) (*entity.PaymentAllocation, error) {
	list, err := r.allocations(ctx, `id = $1`, id)
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return &list[0], nil
}

func (r *PaymentRepo) ListAllocationsByShipment(ctx context.Context, shipmentID int64) ([]entity.PaymentAllocation, error) {
	return r.allocations(ctx, `shipment_id = $1`, shipmentID)
}

func (r *PaymentRepo) allocations(ctx context.Context, where string, arg int64) ([]entity.PaymentAllocation, error) {
	rows, err := r.q.Query(ctx,
		`SELECT id, payment_id, shipment_id, amount_assigned FROM payment_allocations WHERE `+where+` ORDER BY id`, arg)
	if err != nil {
		return nil, fmt.Errorf("list payment allocations: %w", err)
	}
	defer rows.Close()
	var out []entity.PaymentAllocation
	for rows.Next() {
		var a entity.PaymentAllocation
		if err := rows.Scan(&a.ID, &a.PaymentID, &a.ShipmentID, &a.AmountAssigned); err != nil {
			return nil, fmt.Errorf("scan payment allocation: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *PaymentRepo) SumAllocated(ctx context.Context, shipmentID int64) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.q.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount_assigned), 0) FROM payment_allocations WHERE shipment_id = $1`, shipmentID).
		Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum payment allocations: %w", err)
	}
	return sum, nil
}

func (r *PaymentRepo) UpdateAmount(ctx context.Context, paymentID int64, amount decimal.Decimal) error {
	cmd, err := r.q.Exec(ctx, `UPDATE payments SET amount = $2 WHERE id = $1`, paymentID, amount)
	if err != nil {
		return fmt.Errorf("update payment amount: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrPaymentNotFound
	}
	return nil
}

func (r *PaymentRepo) DeleteAllocation(ctx context.Context, id int64) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM payment_allocations WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete payment allocation: %w", err)
	}
	return nil
}

func (r *PaymentRepo) DeleteAllocationsByShipment(ctx context.Context, shipmentID int64) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM payment_allocations WHERE shipment_id = $1`, shipmentID); err != nil {
		return fmt.Errorf("delete shipment allocations: %w", err)
	}
	return nil
}

func (r *PaymentRepo) DeleteAllocationsByPayment(ctx context.Context, paymentID int64) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM payment_allocations WHERE payment_id = $1`, paymentID); err != nil {
		return fmt.Errorf("delete payment allocations: %w", err)
	}
	return nil
}

func (r *PaymentRepo) Delete(ctx context.Context, id int64) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM payments WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}
	return nil
}

// ListByClient pagos del cliente, más recientes primero, con sus asignaciones.
func (r *PaymentRepo) ListByClient(ctx context.Context, clientID int64, limit, offset int) ([]*entity.Payment, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, client_id, amount, method, paid_at, created_at
		FROM payments WHERE client_id = $1
		ORDER BY paid_at DESC, id DESC LIMIT NULLIF($2, 0) OFFSET $3`, clientID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	var list []*entity.Payment
	for rows.Next() {
		var p entity.Payment
		if err := rows.Scan(&p.ID, &p.ClientID, &p.Amount, &p.Method, &p.PaidAt, &p.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		list = append(list, &p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, p := range list {
		if p.Allocations, err = r.allocations(ctx, `payment_id = $1`, p.ID); err != nil {
			return nil, err
		}
	}
	return list, nil
}
