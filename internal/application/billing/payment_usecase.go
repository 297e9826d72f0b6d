package billing

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/remisiones-api/internal/application/dto"
	"github.com/jhoicas/remisiones-api/internal/application/ports"
	"github.com/jhoicas/remisiones-api/internal/domain"
	"github.com/jhoicas/remisiones-api/internal/domain/entity"
	"github.com/jhoicas/remisiones-api/internal/domain/repository"
	"github.com/jhoicas/remisiones-api/pkg/logger"
	"github.com/jhoicas/remisiones-api/pkg/sat"
)

// PaymentUseCase registra pagos, los reparte entre remisiones y mantiene is_paid
// derivado de Σ asignaciones.
type PaymentUseCase struct {
	tx    ports.TxRunner
	repos repository.Repositories
	log   *logger.Logger
}

// NewPaymentUseCase construye el caso de uso.
func NewPaymentUseCase(tx ports.TxRunner, repos repository.Repositories, log *logger.Logger) *PaymentUseCase {
	return &PaymentUseCase{tx: tx, repos: repos, log: log.Component("payments")}
}

// Allocate crea el pago y una asignación por remisión en el orden recibido: cada una
// recibe min(restante, saldo pendiente) y la última recibe el remanente.
func (uc *PaymentUseCase) Allocate(ctx context.Context, in dto.CreatePaymentRequest) (*dto.PaymentResponse, error) {
	amount := in.Amount.Round(2)
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: el monto debe ser mayor a cero", domain.ErrInvalidInput)
	}
	if !sat.IsPaymentForm(in.Method) {
		return nil, fmt.Errorf("%w: forma de pago %q fuera del catálogo SAT", domain.ErrInvalidInput, in.Method)
	}
	if len(in.ShipmentIDs) == 0 {
		return nil, fmt.Errorf("%w: se requiere al menos una remisión", domain.ErrInvalidInput)
	}
	seen := make(map[int64]bool, len(in.ShipmentIDs))
	for _, id := range in.ShipmentIDs {
		if seen[id] {
			return nil, fmt.Errorf("%w: remisión %d repetida", domain.ErrInvalidInput, id)
		}
		seen[id] = true
	}

	var (
		payment *entity.Payment
		paid    = make(map[int64]bool, len(in.ShipmentIDs))
	)
	err := uc.tx.Run(ctx, func(repos repository.Repositories) error {
		client, err := repos.Clients.GetByID(ctx, in.ClientID)
		if err != nil {
			return err
		}
		if client == nil {
			return domain.ErrClientNotFound
		}
		shipments, err := lockShipments(ctx, repos, in.ShipmentIDs)
		if err != nil {
			return err
		}
		for _, s := range shipments {
			if s.ClientID != client.ID {
				return fmt.Errorf("%w: la remisión %d no pertenece al cliente %d", domain.ErrInvalidInput, s.ID, client.ID)
			}
		}

		now := time.Now()
		payment = &entity.Payment{
			ClientID:  client.ID,
			Amount:    amount,
			Method:    in.Method,
			PaidAt:    now,
			CreatedAt: now,
		}
		if in.PaidAt != nil {
			payment.PaidAt = *in.PaidAt
		}
		if err := repos.Payments.Create(ctx, payment); err != nil {
			return err
		}

		remaining := payment.Amount
		for i, s := range shipments {
			allocated, err := repos.Payments.SumAllocated(ctx, s.ID)
			if err != nil {
				return err
			}
			assign := decimal.Min(remaining, s.Outstanding(allocated))
			if i == len(shipments)-1 {
				assign = remaining
			}
			alloc := entity.PaymentAllocation{PaymentID: payment.ID, ShipmentID: s.ID, AmountAssigned: assign}
			if err := repos.Payments.CreateAllocation(ctx, &alloc); err != nil {
				return err
			}
			payment.Allocations = append(payment.Allocations, alloc)
			remaining = remaining.Sub(assign)

			s.ApplyAllocated(allocated.Add(assign))
			if err := repos.Shipments.UpdateTotals(ctx, s); err != nil {
				return err
			}
			paid[s.ID] = s.IsPaid
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().
		Int64("payment_id", payment.ID).
		Int64("client_id", payment.ClientID).
		Str("amount", payment.Amount.StringFixed(2)).
		Int("shipments", len(payment.Allocations)).
		Msg("pago registrado")
	return toPaymentResponse(payment, paid), nil
}

// Delete elimina el pago y sus asignaciones y recalcula is_paid de cada remisión tocada.
// Orden de candados: pago y después remisiones (por ID), igual que DeleteAllocation.
func (uc *PaymentUseCase) Delete(ctx context.Context, id int64) error {
	err := uc.tx.Run(ctx, func(repos repository.Repositories) error {
		payment, err := repos.Payments.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if payment == nil {
			return domain.ErrPaymentNotFound
		}
		ids := make([]int64, 0, len(payment.Allocations))
		for _, a := range payment.Allocations {
			ids = append(ids, a.ShipmentID)
		}
		shipments, err := lockShipments(ctx, repos, ids)
		if err != nil {
			return err
		}
		if err := repos.Payments.DeleteAllocationsByPayment(ctx, payment.ID); err != nil {
			return err
		}
		if err := repos.Payments.Delete(ctx, payment.ID); err != nil {
			return err
		}
		return resettle(ctx, repos, shipments...)
	})
	if err != nil {
		return err
	}
	uc.log.Info().Int64("payment_id", id).Msg("pago eliminado")
	return nil
}

// DeleteAllocation elimina una asignación, reduce el monto del pago (lo borra si queda
// sin asignaciones) y recalcula is_paid de la remisión. El monto se descuenta sobre la
// fila del pago ya bloqueada: dos borrados sobre el mismo pago se serializan.
func (uc *PaymentUseCase) DeleteAllocation(ctx context.Context, id int64) error {
	err := uc.tx.Run(ctx, func(repos repository.Repositories) error {
		ref, err := repos.Payments.GetAllocation(ctx, id)
		if err != nil {
			return err
		}
		if ref == nil {
			return domain.ErrNotFound
		}
		payment, err := repos.Payments.GetForUpdate(ctx, ref.PaymentID)
		if err != nil {
			return err
		}
		if payment == nil {
			return domain.ErrNotFound
		}
		var alloc *entity.PaymentAllocation
		for i := range payment.Allocations {
			if payment.Allocations[i].ID == id {
				alloc = &payment.Allocations[i]
				break
			}
		}
		// otra transacción la borró mientras esperábamos el candado
		if alloc == nil {
			return domain.ErrNotFound
		}
		shipments, err := lockShipments(ctx, repos, []int64{alloc.ShipmentID})
		if err != nil {
			return err
		}
		if err := repos.Payments.DeleteAllocation(ctx, alloc.ID); err != nil {
			return err
		}
		if len(payment.Allocations) == 1 {
			if err := repos.Payments.Delete(ctx, payment.ID); err != nil {
				return err
			}
		} else if err := repos.Payments.UpdateAmount(ctx, payment.ID, payment.Amount.Sub(alloc.AmountAssigned)); err != nil {
			return err
		}
		return resettle(ctx, repos, shipments...)
	})
	if err != nil {
		return err
	}
	uc.log.Info().Int64("allocation_id", id).Msg("asignación eliminada")
	return nil
}

// GetByID obtiene un pago con sus asignaciones.
func (uc *PaymentUseCase) GetByID(ctx context.Context, id int64) (*dto.PaymentResponse, error) {
	payment, err := uc.repos.Payments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, domain.ErrPaymentNotFound
	}
	return toPaymentResponse(payment, nil), nil
}

// ListByClient lista pagos de un cliente, más recientes primero.
func (uc *PaymentUseCase) ListByClient(ctx context.Context, clientID int64, page dto.PageRequest) (*dto.PaymentListResponse, error) {
	page.DefaultPage()
	if clientID <= 0 {
		return nil, domain.ErrInvalidInput
	}
	list, err := uc.repos.Payments.ListByClient(ctx, clientID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.PaymentResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *toPaymentResponse(p, nil))
	}
	return &dto.PaymentListResponse{Items: items, Page: dto.PageResponse{Limit: page.Limit, Offset: page.Offset}}, nil
}

// lockShipments bloquea las remisiones en orden de ID (evita interbloqueos) y las
// devuelve en el orden pedido.
func lockShipments(ctx context.Context, repos repository.Repositories, ids []int64) ([]*entity.Shipment, error) {
	sorted := append([]int64(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	byID := make(map[int64]*entity.Shipment, len(ids))
	for _, id := range sorted {
		if _, ok := byID[id]; ok {
			continue
		}
		s, err := repos.Shipments.GetForUpdate(ctx, id)
		if err != nil {
			return nil, err
		}
		if s == nil {
			return nil, fmt.Errorf("%w: %d", domain.ErrShipmentNotFound, id)
		}
		byID[id] = s
	}
	out := make([]*entity.Shipment, 0, len(ids))
	for _, id := range ids {
		out = append(out, byID[id])
	}
	return out, nil
}

// resettle recalcula is_paid a partir de las asignaciones que quedan.
func resettle(ctx context.Context, repos repository.Repositories, shipments ...*entity.Shipment) error {
	done := make(map[int64]bool, len(shipments))
	for _, s := range shipments {
		if done[s.ID] {
			continue
		}
		done[s.ID] = true
		allocated, err := repos.Payments.SumAllocated(ctx, s.ID)
		if err != nil {
			return err
		}
		s.ApplyAllocated(allocated)
		if err := repos.Shipments.UpdateTotals(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func toPaymentResponse(p *entity.Payment, paid map[int64]bool) *dto.PaymentResponse {
	allocs := make([]dto.AllocationResponse, 0, len(p.Allocations))
	for _, a := range p.Allocations {
		allocs = append(allocs, dto.AllocationResponse{
			ID:             a.ID,
			ShipmentID:     a.ShipmentID,
			AmountAssigned: a.AmountAssigned,
			ShipmentPaid:   paid[a.ShipmentID],
		})
	}
	return &dto.PaymentResponse{
		ID:          p.ID,
		ClientID:    p.ClientID,
		Amount:      p.Amount,
		Method:      p.Method,
		PaidAt:      p.PaidAt,
		Allocations: allocs,
		CreatedAt:   p.CreatedAt,
	}
}
