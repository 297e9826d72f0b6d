package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/remisiones-api/internal/domain"
	"github.com/jhoicas/remisiones-api/internal/domain/entity"
	"github.com/jhoicas/remisiones-api/internal/domain/repository"
)

var _ repository.ReceiptRepository = (*ReceiptRepo)(nil)

// ReceiptRepo entradas de inventario y sus líneas.
type ReceiptRepo struct {
	q Querier
}

// NewReceiptRepository construye el adaptador. Pasar pool o tx (Querier).
func NewReceiptRepository(q Querier) *ReceiptRepo {
	return &ReceiptRepo{q: q}
}

// Create inserta solo la cabecera; las líneas van con CreateLine.
func (r *ReceiptRepo) Create(ctx context.Context, rc *entity.Receipt) error {
	err := r.q.QueryRow(ctx,
		`INSERT INTO receipts (supplier_id, created_at, updated_at) VALUES ($1, now(), now()) RETURNING id, created_at, updated_at`,
		rc.SupplierID).Scan(&rc.ID, &rc.CreatedAt, &rc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert receipt: %w", err)
	}
	return nil
}

func (r *ReceiptRepo) CreateLine(ctx context.Context, l *entity.ReceiptLine) error {
	query := `
		INSERT INTO receipt_lines (receipt_id, position, product_id, box_count, weight_total, unit_price)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	if err := r.q.QueryRow(ctx, query, l.ReceiptID, l.Position, l.ProductID, l.BoxCount, l.WeightTotal, l.UnitPrice).Scan(&l.ID); err != nil {
		return fmt.Errorf("insert receipt line: %w", err)
	}
	return nil
}

func (r *ReceiptRepo) GetByID(ctx context.Context, id int64) (*entity.Receipt, error) {
	return r.load(ctx, `SELECT id, supplier_id, created_at, updated_at FROM receipts WHERE id = $1`, id)
}

// GetForUpdate bloquea la cabecera: dos ediciones de la misma entrada se serializan.
func (r *ReceiptRepo) GetForUpdate(ctx context.Context, id int64) (*entity.Receipt, error) {
	return r.load(ctx, `SELECT id, supplier_id, created_at, updated_at FROM receipts WHERE id = $1 FOR UPDATE`, id)
}

func (r *ReceiptRepo) load(ctx context.Context, query string, id int64) (*entity.Receipt, error) {
	var rc entity.Receipt
	err := r.q.QueryRow(ctx, query, id).Scan(&rc.ID, &rc.SupplierID, &rc.CreatedAt, &rc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get receipt: %w", err)
	}
	lines, err := r.lines(ctx, rc.ID)
	if err != nil {
		return nil, err
	}
	rc.Lines = lines
	return &rc, nil
}

func (r *ReceiptRepo) lines(ctx context.Context, receiptID int64) ([]entity.ReceiptLine, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, receipt_id, position, product_id, box_count, weight_total, unit_price
		FROM receipt_lines WHERE receipt_id = $1 ORDER BY position, id`, receiptID)
	if err != nil {
		return nil, fmt.Errorf("list receipt lines: %w", err)
	}
	defer rows.Close()
	var out []entity.ReceiptLine
	for rows.Next() {
		var l entity.ReceiptLine
		if err := rows.Scan(&l.ID, &l.ReceiptID, &l.Position, &l.ProductID, &l.BoxCount, &l.WeightTotal, &l.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan receipt line: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *ReceiptRepo) Update(ctx context.Context, rc *entity.Receipt) error {
	cmd, err := r.q.Exec(ctx, `UPDATE receipts SET supplier_id = $2, updated_at = now() WHERE id = $1`, rc.ID, rc.SupplierID)
	if err != nil {
		return fmt.Errorf("update receipt: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrReceiptNotFound
	}
	return nil
}

func (r *ReceiptRepo) DeleteLines(ctx context.Context, receiptID int64) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM receipt_lines WHERE receipt_id = $1`, receiptID); err != nil {
		return fmt.Errorf("delete receipt lines: %w", err)
	}
	return nil
}

func (r *ReceiptRepo) Delete(ctx context.Context, id int64) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM receipts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete receipt: %w", err)
	}
	return nil
}

// List entradas más recientes primero, con sus líneas.
func (r *ReceiptRepo) List(ctx context.Context, limit, offset int) ([]*entity.Receipt, error) {
	rows, err := r.q.Query(ctx,
		`SELECT id, supplier_id, created_at, updated_at FROM receipts ORDER BY id DESC LIMIT NULLIF($1, 0) OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	var list []*entity.Receipt
	for rows.Next() {
		var rc entity.Receipt
		if err := rows.Scan(&rc.ID, &rc.SupplierID, &rc.CreatedAt, &rc.UpdatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan receipt: %w", err)
		}
		list = append(list, &rc)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, rc := range list {
		if rc.Lines, err = r.lines(ctx, rc.ID); err != nil {
			return nil, err
		}
	}
	return list, nil
}
