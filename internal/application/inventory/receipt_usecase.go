package inventory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/remisiones-api/internal/application/dto"
	"github.com/jhoicas/remisiones-api/internal/application/ports"
	"github.com/jhoicas/remisiones-api/internal/domain"
	"github.com/jhoicas/remisiones-api/internal/domain/entity"
	"github.com/jhoicas/remisiones-api/internal/domain/repository"
	"github.com/jhoicas/remisiones-api/pkg/logger"
)

// ReceiptUseCase entradas de mercancía de proveedores. Crear, editar y borrar
// mueven existencias solo a través del StockLedger y en una sola transacción.
type ReceiptUseCase struct {
	tx     ports.TxRunner
	repos  repository.Repositories
	ledger *StockLedger
	log    *logger.Logger
}

// NewReceiptUseCase construye el caso de uso.
func NewReceiptUseCase(tx ports.TxRunner, repos repository.Repositories, ledger *StockLedger, log *logger.Logger) *ReceiptUseCase {
	return &ReceiptUseCase{tx: tx, repos: repos, ledger: ledger, log: log.Component("receipts")}
}

// Create registra la entrada: por línea un movimiento ENTRY +cajas.
// Un producto inexistente aborta toda la entrada.
func (uc *ReceiptUseCase) Create(ctx context.Context, userID string, in dto.CreateReceiptRequest) (*dto.ReceiptResponse, error) {
	if err := validateReceiptLines(in.Lines); err != nil {
		return nil, err
	}
	var out *entity.Receipt
	err := uc.tx.Run(ctx, func(repos repository.Repositories) error {
		if err := ensureSupplier(ctx, repos, in.SupplierID); err != nil {
			return err
		}
		now := time.Now()
		receipt := &entity.Receipt{SupplierID: in.SupplierID, CreatedAt: now, UpdatedAt: now}
		if err := repos.Receipts.Create(ctx, receipt); err != nil {
			return err
		}
		for i, l := range in.Lines {
			if _, err := uc.ledger.Post(ctx, repos, Posting{
				ProductID:     l.ProductID,
				Kind:          entity.MovementKindEntry,
				Quantity:      l.BoxCount,
				Reason:        entity.ReasonReceiptEntry,
				ReferenceType: entity.ReferenceReceipt,
				ReferenceID:   receipt.ID,
				Actor:         userID,
			}); err != nil {
				return fmt.Errorf("línea %d: %w", i, err)
			}
			line := toReceiptLine(receipt.ID, i, l)
			if err := repos.Receipts.CreateLine(ctx, &line); err != nil {
				return err
			}
			receipt.Lines = append(receipt.Lines, line)
		}
		out = receipt
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Int64("receipt_id", out.ID).Int("lines", len(out.Lines)).Msg("entrada registrada")
	return toReceiptResponse(out), nil
}

// Update reemplaza proveedor y líneas. El efecto de las líneas anteriores se descuenta
// del contador sin movimiento propio: cada línea nueva escribe un único ADJUSTMENT con
// el cambio neto de su producto y los productos que desaparecen reciben uno negativo.
func (uc *ReceiptUseCase) Update(ctx context.Context, id int64, userID string, in dto.CreateReceiptRequest) (*dto.ReceiptResponse, error) {
	if err := validateReceiptLines(in.Lines); err != nil {
		return nil, err
	}
	var out *entity.Receipt
	err := uc.tx.Run(ctx, func(repos repository.Repositories) error {
		receipt, err := repos.Receipts.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if receipt == nil {
			return domain.ErrReceiptNotFound
		}
		if err := ensureSupplier(ctx, repos, in.SupplierID); err != nil {
			return err
		}

		for _, p := range planReceiptAdjustments(receipt.BoxesByProduct(), in.Lines) {
			p.ReferenceType = entity.ReferenceReceipt
			p.ReferenceID = receipt.ID
			p.Actor = userID
			if _, err := uc.ledger.Post(ctx, repos, p); err != nil {
				return err
			}
		}

		if err := repos.Receipts.DeleteLines(ctx, receipt.ID); err != nil {
			return err
		}
		receipt.SupplierID = in.SupplierID
		receipt.UpdatedAt = time.Now()
		receipt.Lines = nil
		for i, l := range in.Lines {
			line := toReceiptLine(receipt.ID, i, l)
			if err := repos.Receipts.CreateLine(ctx, &line); err != nil {
				return err
			}
			receipt.Lines = append(receipt.Lines, line)
		}
		if err := repos.Receipts.Update(ctx, receipt); err != nil {
			return err
		}
		out = receipt
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Int64("receipt_id", out.ID).Msg("entrada actualizada")
	return toReceiptResponse(out), nil
}

// planReceiptAdjustments calcula un ADJUSTMENT por línea nueva (nuevo − anterior aún no
// consumido del mismo producto) y uno negativo por producto eliminado. Los positivos se
// aplican primero para que solo un stock final negativo haga fallar la edición.
func planReceiptAdjustments(old map[int64]int, lines []dto.ReceiptLineRequest) []Posting {
	pending := make(map[int64]int, len(old))
	for id, boxes := range old {
		pending[id] = boxes
	}
	postings := make([]Posting, 0, len(lines)+len(old))
	seen := make(map[int64]bool, len(lines))
	for _, l := range lines {
		seen[l.ProductID] = true
		consumed := pending[l.ProductID]
		pending[l.ProductID] = 0
		postings = append(postings, Posting{
			ProductID: l.ProductID,
			Kind:      entity.MovementKindAdjustment,
			Quantity:  l.BoxCount - consumed,
			Reason:    entity.ReasonReceiptUpdated,
		})
	}
	removed := make([]int64, 0)
	for id := range old {
		if !seen[id] && old[id] > 0 {
			removed = append(removed, id)
		}
	}
	sort.Slice(removed, func(i, j int) bool { return removed[i] < removed[j] })
	for _, id := range removed {
		postings = append(postings, Posting{
			ProductID: id,
			Kind:      entity.MovementKindAdjustment,
			Quantity:  -old[id],
			Reason:    entity.ReasonReceiptLineRemoved,
		})
	}
	sort.SliceStable(postings, func(i, j int) bool {
		return postings[i].Quantity >= 0 && postings[j].Quantity < 0
	})
	return postings
}

// Delete revierte cada línea con ADJUSTMENT −cajas y borra líneas y cabecera.
func (uc *ReceiptUseCase) Delete(ctx context.Context, id int64, userID string) error {
	err := uc.tx.Run(ctx, func(repos repository.Repositories) error {
		receipt, err := repos.Receipts.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if receipt == nil {
			return domain.ErrReceiptNotFound
		}
		for _, l := range receipt.Lines {
			if _, err := uc.ledger.Post(ctx, repos, Posting{
				ProductID:     l.ProductID,
				Kind:          entity.MovementKindAdjustment,
				Quantity:      -l.BoxCount,
				Reason:        entity.ReasonReceiptDeleted,
				ReferenceType: entity.ReferenceReceipt,
				ReferenceID:   receipt.ID,
				Actor:         userID,
			}); err != nil {
				return err
			}
		}
		if err := repos.Receipts.DeleteLines(ctx, receipt.ID); err != nil {
			return err
		}
		return repos.Receipts.Delete(ctx, receipt.ID)
	})
	if err != nil {
		return err
	}
	uc.log.Info().Int64("receipt_id", id).Msg("entrada eliminada")
	return nil
}

// GetByID obtiene una entrada con sus líneas.
func (uc *ReceiptUseCase) GetByID(ctx context.Context, id int64) (*dto.ReceiptResponse, error) {
	receipt, err := uc.repos.Receipts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if receipt == nil {
		return nil, domain.ErrReceiptNotFound
	}
	return toReceiptResponse(receipt), nil
}

// List lista entradas, más recientes primero.
func (uc *ReceiptUseCase) List(ctx context.Context, page dto.PageRequest) (*dto.ReceiptListResponse, error) {
	page.DefaultPage()
	list, err := uc.repos.Receipts.List(ctx, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ReceiptResponse, 0, len(list))
	for _, r := range list {
		items = append(items, *toReceiptResponse(r))
	}
	return &dto.ReceiptListResponse{Items: items, Page: dto.PageResponse{Limit: page.Limit, Offset: page.Offset}}, nil
}

func validateReceiptLines(lines []dto.ReceiptLineRequest) error {
	if len(lines) == 0 {
		return fmt.Errorf("%w: la entrada requiere al menos una línea", domain.ErrInvalidInput)
	}
	for i, l := range lines {
		if l.ProductID <= 0 {
			return fmt.Errorf("%w: línea %d sin producto", domain.ErrInvalidInput, i)
		}
		if l.BoxCount <= 0 {
			return fmt.Errorf("línea %d: %w", i, domain.ErrInvalidBoxCount)
		}
		if l.WeightTotal.IsNegative() || l.UnitPrice.IsNegative() {
			return fmt.Errorf("%w: línea %d con peso o precio negativo", domain.ErrInvalidInput, i)
		}
	}
	return nil
}

func ensureSupplier(ctx context.Context, repos repository.Repositories, id int64) error {
	supplier, err := repos.Suppliers.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if supplier == nil {
		return domain.ErrSupplierNotFound
	}
	return nil
}

func toReceiptLine(receiptID int64, pos int, l dto.ReceiptLineRequest) entity.ReceiptLine {
	return entity.ReceiptLine{
		ReceiptID:   receiptID,
		Position:    pos,
		ProductID:   l.ProductID,
		BoxCount:    l.BoxCount,
		WeightTotal: l.WeightTotal.Round(2),
		UnitPrice:   l.UnitPrice.Round(2),
	}
}

func toReceiptResponse(r *entity.Receipt) *dto.ReceiptResponse {
	lines := make([]dto.ReceiptLineResponse, 0, len(r.Lines))
	for _, l := range r.Lines {
		lines = append(lines, dto.ReceiptLineResponse{
			ID:          l.ID,
			ProductID:   l.ProductID,
			BoxCount:    l.BoxCount,
			WeightTotal: l.WeightTotal,
			UnitPrice:   l.UnitPrice,
		})
	}
	return &dto.ReceiptResponse{
		ID:         r.ID,
		SupplierID: r.SupplierID,
		Lines:      lines,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}
