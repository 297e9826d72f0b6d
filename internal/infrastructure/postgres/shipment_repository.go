package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/remisiones-api/internal/domain"
	"github.com/jhoicas/remisiones-api/internal/domain/entity"
	"github.com/jhoicas/remisiones-api/internal/domain/repository"
)

var _ repository.ShipmentRepository = (*ShipmentRepo)(nil)

const shipmentColumns = `id, client_id, date, weight_total, total_cost, is_paid, should_be_invoiced,
	cfdi_folio, cfdi_uuid, stamped_at, artifact_uri, invoicing_token, invoicing_claimed_at, created_at, updated_at`

// ShipmentRepo remisiones, líneas y pesos por caja.
type ShipmentRepo struct {
	q Querier
}

// NewShipmentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewShipmentRepository(q Querier) *ShipmentRepo {
	return &ShipmentRepo{q: q}
}

func (r *ShipmentRepo) Create(ctx context.Context, s *entity.Shipment) error {
	query := `
		INSERT INTO shipments (client_id, date, weight_total, total_cost, is_paid, should_be_invoiced, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING id, created_at, updated_at`
	err := r.q.QueryRow(ctx, query, s.ClientID, s.Date, s.WeightTotal, s.TotalCost, s.IsPaid, s.ShouldBeInvoiced).
		Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert shipment: %w", err)
	}
	return nil
}

// CreateLine inserta la línea y sus pesos por caja.
func (r *ShipmentRepo) CreateLine(ctx context.Context, l *entity.ShipmentLine) error {
	query := `
		INSERT INTO shipment_lines (shipment_id, position, product_id, supplier_id, box_count, is_by_box,
			weight_total, estimated_weight_per_box, price_per_kilo, subtotal, product_name, sat_product_code, sat_unit_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`
	err := r.q.QueryRow(ctx, query,
		l.ShipmentID, l.Position, l.ProductID, l.SupplierID, l.BoxCount, l.IsByBox,
		l.WeightTotal, l.EstimatedWeightPerBox, l.PricePerKilo, l.Subtotal,
		l.ProductName, l.SATProductCode, l.SATUnitCode,
	).Scan(&l.ID)
	if err != nil {
		return fmt.Errorf("insert shipment line: %w", err)
	}
	return r.insertBoxWeights(ctx, l)
}

func (r *ShipmentRepo) insertBoxWeights(ctx context.Context, l *entity.ShipmentLine) error {
	for i := range l.BoxWeights {
		bw := &l.BoxWeights[i]
		bw.ShipmentLineID = l.ID
		err := r.q.QueryRow(ctx,
			`INSERT INTO box_weights (shipment_line_id, weight) VALUES ($1, $2) RETURNING id`,
			l.ID, bw.Weight).Scan(&bw.ID)
		if err != nil {
			return fmt.Errorf("insert box weight: %w", err)
		}
	}
	return nil
}

func (r *ShipmentRepo) GetByID(ctx context.Context, id int64) (*entity.Shipment, error) {
	return r.load(ctx, `SELECT `+shipmentColumns+` FROM shipments WHERE id = $1`, id)
}

// GetForUpdate bloquea la cabecera (SELECT FOR UPDATE): reclamo de facturación, pagos y edición.
func (r *ShipmentRepo) GetForUpdate(ctx context.Context, id int64) (*entity.Shipment, error) {
	return r.load(ctx, `SELECT `+shipmentColumns+` FROM shipments WHERE id = $1 FOR UPDATE`, id)
}

func (r *ShipmentRepo) load(ctx context.Context, query string, id int64) (*entity.Shipment, error) {
	s, err := scanShipment(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get shipment: %w", err)
	}
	if s.Lines, err = r.lines(ctx, s.ID); err != nil {
		return nil, err
	}
	return s, nil
}

func scanShipment(row pgx.Row) (*entity.Shipment, error) {
	var (
		s                     entity.Shipment
		folio, uuid, artifact *string
		token                 *string
	)
	err := row.Scan(&s.ID, &s.ClientID, &s.Date, &s.WeightTotal, &s.TotalCost, &s.IsPaid, &s.ShouldBeInvoiced,
		&folio, &uuid, &s.StampedAt, &artifact, &token, &s.InvoicingClaimedAt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.CFDIFolio = derefString(folio)
	s.CFDIUUID = derefString(uuid)
	s.ArtifactURI = derefString(artifact)
	s.InvoicingToken = derefString(token)
	return &s, nil
}

func (r *ShipmentRepo) lines(ctx context.Context, shipmentID int64) ([]entity.ShipmentLine, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, shipment_id, position, product_id, supplier_id, box_count, is_by_box, weight_total,
			estimated_weight_per_box, price_per_kilo, subtotal, product_name, sat_product_code, sat_unit_code
		FROM shipment_lines WHERE shipment_id = $1 ORDER BY position, id`, shipmentID)
	if err != nil {
		return nil, fmt.Errorf("list shipment lines: %w", err)
	}
	var (
		out   []entity.ShipmentLine
		index = map[int64]int{}
	)
	for rows.Next() {
		var l entity.ShipmentLine
		if err := rows.Scan(&l.ID, &l.ShipmentID, &l.Position, &l.ProductID, &l.SupplierID, &l.BoxCount, &l.IsByBox,
			&l.WeightTotal, &l.EstimatedWeightPerBox, &l.PricePerKilo, &l.Subtotal,
			&l.ProductName, &l.SATProductCode, &l.SATUnitCode); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan shipment line: %w", err)
		}
		index[l.ID] = len(out)
		out = append(out, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	bw, err := r.q.Query(ctx, `
		SELECT b.id, b.shipment_line_id, b.weight
		FROM box_weights b JOIN shipment_lines l ON l.id = b.shipment_line_id
		WHERE l.shipment_id = $1 ORDER BY b.id`, shipmentID)
	if err != nil {
		return nil, fmt.Errorf("list box weights: %w", err)
	}
	defer bw.Close()
	for bw.Next() {
		var w entity.BoxWeight
		if err := bw.Scan(&w.ID, &w.ShipmentLineID, &w.Weight); err != nil {
			return nil, fmt.Errorf("scan box weight: %w", err)
		}
		if i, ok := index[w.ShipmentLineID]; ok {
			out[i].BoxWeights = append(out[i].BoxWeights, w)
		}
	}
	return out, bw.Err()
}

func (r *ShipmentRepo) UpdateTotals(ctx context.Context, s *entity.Shipment) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE shipments
		SET weight_total = $2, total_cost = $3, is_paid = $4, should_be_invoiced = $5, updated_at = now()
		WHERE id = $1`,
		s.ID, s.WeightTotal, s.TotalCost, s.IsPaid, s.ShouldBeInvoiced)
	if err != nil {
		return fmt.Errorf("update shipment totals: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrShipmentNotFound
	}
	return nil
}

// UpdateLine reescribe el pesaje y reemplaza los pesos por caja.
func (r *ShipmentRepo) UpdateLine(ctx context.Context, l *entity.ShipmentLine) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE shipment_lines
		SET box_count = $2, is_by_box = $3, weight_total = $4, estimated_weight_per_box = $5,
			price_per_kilo = $6, subtotal = $7
		WHERE id = $1`,
		l.ID, l.BoxCount, l.IsByBox, l.WeightTotal, l.EstimatedWeightPerBox, l.PricePerKilo, l.Subtotal)
	if err != nil {
		return fmt.Errorf("update shipment line: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrLineNotFound
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM box_weights WHERE shipment_line_id = $1`, l.ID); err != nil {
		return fmt.Errorf("delete box weights: %w", err)
	}
	return r.insertBoxWeights(ctx, l)
}

func (r *ShipmentRepo) UpdateInvoicing(ctx context.Context, s *entity.Shipment) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE shipments
		SET cfdi_folio = $2, cfdi_uuid = $3, stamped_at = $4, artifact_uri = $5, should_be_invoiced = $6,
			invoicing_token = $7, invoicing_claimed_at = $8, updated_at = now()
		WHERE id = $1`,
		s.ID, nullString(s.CFDIFolio), nullString(s.CFDIUUID), s.StampedAt, nullString(s.ArtifactURI),
		s.ShouldBeInvoiced, nullString(s.InvoicingToken), s.InvoicingClaimedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyInvoiced
		}
		return fmt.Errorf("update shipment invoicing: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrShipmentNotFound
	}
	return nil
}

// DeleteLines borra pesos por caja y líneas de la remisión.
func (r *ShipmentRepo) DeleteLines(ctx context.Context, shipmentID int64) error {
	if _, err := r.q.Exec(ctx, `
		DELETE FROM box_weights
		WHERE shipment_line_id IN (SELECT id FROM shipment_lines WHERE shipment_id = $1)`, shipmentID); err != nil {
		return fmt.Errorf("delete box weights: %w", err)
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM shipment_lines WHERE shipment_id = $1`, shipmentID); err != nil {
		return fmt.Errorf("delete shipment lines: %w", err)
	}
	return nil
}

func (r *ShipmentRepo) Delete(ctx context.Context, id int64) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM shipments WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete shipment: %w", err)
	}
	return nil
}

// List remisiones más recientes primero con filtros opcionales.
func (r *ShipmentRepo) List(ctx context.Context, f repository.ShipmentFilter, limit, offset int) ([]*entity.Shipment, error) {
	var (
		where []string
		args  []any
	)
	if f.ClientID > 0 {
		args = append(args, f.ClientID)
		where = append(where, fmt.Sprintf("client_id = $%d", len(args)))
	}
	if f.IsPaid != nil {
		args = append(args, *f.IsPaid)
		where = append(where, fmt.Sprintf("is_paid = $%d", len(args)))
	}
	if f.Invoiced != nil {
		if *f.Invoiced {
			where = append(where, "cfdi_folio IS NOT NULL")
		} else {
			where = append(where, "cfdi_folio IS NULL")
		}
	}
	query := `SELECT ` + shipmentColumns + ` FROM shipments`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY id DESC LIMIT NULLIF($%d, 0) OFFSET $%d", len(args)-1, len(args))

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list shipments: %w", err)
	}
	var list []*entity.Shipment
	for rows.Next() {
		s, err := scanShipment(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan shipment: %w", err)
		}
		list = append(list, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, s := range list {
		if s.Lines, err = r.lines(ctx, s.ID); err != nil {
			return nil, err
		}
	}
	return list, nil
}
