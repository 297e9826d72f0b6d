package inventory

import (
	"context"
	"io"
	"sort"
	"time"

	"github.com/jhoicas/remisiones-api/internal/application/dto"
	"github.com/jhoicas/remisiones-api/internal/application/ports"
	"github.com/jhoicas/remisiones-api/internal/domain"
	"github.com/jhoicas/remisiones-api/internal/domain/entity"
	"github.com/jhoicas/remisiones-api/internal/domain/repository"
)

const kardexBatch = 500

// LedgerQueryUseCase lecturas sobre el libro: kardex, conciliación y exportación.
type LedgerQueryUseCase struct {
	snap   ports.SnapshotRunner
	repos  repository.Repositories
	kardex KardexWriter
}

// NewLedgerQueryUseCase construye el caso de uso. kardex puede ser nil si no se exporta.
func NewLedgerQueryUseCase(snap ports.SnapshotRunner, repos repository.Repositories, kardex KardexWriter) *LedgerQueryUseCase {
	return &LedgerQueryUseCase{snap: snap, repos: repos, kardex: kardex}
}

// ListMovements devuelve los movimientos de un producto, más antiguos primero.
func (uc *LedgerQueryUseCase) ListMovements(ctx context.Context, filter dto.MovementFilter, page dto.PageRequest) (*dto.MovementListResponse, error) {
	page.DefaultPage()
	if filter.ProductID <= 0 {
		return nil, domain.ErrInvalidInput
	}
	if _, err := uc.product(ctx, filter.ProductID); err != nil {
		return nil, err
	}
	list, err := uc.repos.Movements.ListByProduct(ctx, filter.ProductID, filter.From, filter.To, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		items = append(items, *toMovementResponse(m))
	}
	return &dto.MovementListResponse{Items: items, Page: dto.PageResponse{Limit: page.Limit, Offset: page.Offset}}, nil
}

// Reconcile compara current_stock con Σ del libro por producto y reporta las diferencias.
// Libro y catálogo se leen en la misma instantánea: una escritura concurrente no aparece
// como deriva.
func (uc *LedgerQueryUseCase) Reconcile(ctx context.Context) (*dto.ReconciliationResponse, error) {
	out := &dto.ReconciliationResponse{Items: []dto.ReconciliationItem{}, GeneratedAt: time.Now()}
	err := uc.snap.ReadSnapshot(ctx, func(repos repository.Repositories) error {
		sums, err := repos.Movements.SumByProduct(ctx)
		if err != nil {
			return err
		}
		seen := make(map[int64]bool, len(sums))
		for offset := 0; ; offset += kardexBatch {
			products, err := repos.Products.List(ctx, kardexBatch, offset)
			if err != nil {
				return err
			}
			for _, p := range products {
				seen[p.ID] = true
				out.CheckedProducts++
				if sum := sums[p.ID]; sum != p.CurrentStock {
					out.Items = append(out.Items, dto.ReconciliationItem{
						ProductID:    p.ID,
						ProductName:  p.Name,
						CurrentStock: p.CurrentStock,
						LedgerSum:    sum,
						Drift:        p.CurrentStock - sum,
					})
				}
			}
			if len(products) < kardexBatch {
				break
			}
		}
		// movimientos de productos que ya no existen en el catálogo
		for id, sum := range sums {
			if !seen[id] && sum != 0 {
				out.Items = append(out.Items, dto.ReconciliationItem{ProductID: id, LedgerSum: sum, Drift: -sum})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out.Items, func(i, j int) bool { return out.Items[i].ProductID < out.Items[j].ProductID })
	out.Consistent = len(out.Items) == 0
	return out, nil
}

// ExportKardex escribe en w el kardex del producto en el rango dado (XLSX).
func (uc *LedgerQueryUseCase) ExportKardex(ctx context.Context, productID int64, from, to *time.Time, w io.Writer) error {
	if uc.kardex == nil {
		return domain.ErrInvalidInput
	}
	product, err := uc.product(ctx, productID)
	if err != nil {
		return err
	}
	var all []*entity.Movement
	for offset := 0; ; offset += kardexBatch {
		batch, err := uc.repos.Movements.ListByProduct(ctx, productID, from, to, kardexBatch, offset)
		if err != nil {
			return err
		}
		all = append(all, batch...)
		if len(batch) < kardexBatch {
			break
		}
	}
	return uc.kardex.WriteKardex(w, product, all)
}

func (uc *LedgerQueryUseCase) product(ctx context.Context, id int64) (*entity.Product, error) {
	p, err := uc.repos.Products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrProductNotFound
	}
	return p, nil
}
