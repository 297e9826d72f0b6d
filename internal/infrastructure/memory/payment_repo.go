package memory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/remisiones-api/internal/domain"
	"github.com/jhoicas/remisiones-api/internal/domain/entity"
	"github.com/jhoicas/remisiones-api/internal/domain/repository"
)

// PaymentRepo implementa repository.PaymentRepository.
type PaymentRepo struct{ h *handle }

func (r *PaymentRepo) Create(_ context.Context, p *entity.Payment) error {
	return r.h.do(func(st *state) error {
		p.ID = st.nextID()
		header := *p
		header.Allocations = nil
		st.payments[p.ID] = header
		return nil
	})
}

func (r *PaymentRepo) CreateAllocation(_ context.Context, a *entity.PaymentAllocation) error {
	return r.h.do(func(st *state) error {
		if _, ok := st.payments[a.PaymentID]; !ok {
			return domain.ErrPaymentNotFound
		}
		if _, ok := st.shipments[a.ShipmentID]; !ok {
			return domain.ErrShipmentNotFound
		}
		a.ID = st.nextID()
		st.allocations[a.ID] = *a
		return nil
	})
}

func (r *PaymentRepo) GetByID(_ context.Context, id int64) (*entity.Payment, error) {
	var out *entity.Payment
	err := r.h.do(func(st *state) error {
		out = st.loadPayment(id)
		return nil
	})
	return out, err
}

func (r *PaymentRepo) GetForUpdate(ctx context.Context, id int64) (*entity.Payment, error) {
	return r.GetByID(ctx, id)
}

func (r *PaymentRepo) GetAllocation(_ context.Context, id int64) (*entity.PaymentAllocation, error) {
	var out *entity.PaymentAllocation
	err := r.h.do(func(st *state) error {
		if a, ok := st.allocations[id]; ok {
			out = &a
		}
		return nil
	})
	return out, err
}

func (r *PaymentRepo) ListAllocationsByShipment(_ context.Context, shipmentID int64) ([]entity.PaymentAllocation, error) {
	var out []entity.PaymentAllocation
	err := r.h.do(func(st *state) error {
		out = st.allocationsWhere(func(a entity.PaymentAllocation) bool { return a.ShipmentID == shipmentID })
		return nil
	})
	return out, err
}

func (r *PaymentRepo) SumAllocated(_ context.Context, shipmentID int64) (decimal.Decimal, error) {
	sum := decimal.Zero
	err := r.h.do(func(st *state) error {
		for _, a := range st.allocations {
			if a.ShipmentID == shipmentID {
				sum = sum.Add(a.AmountAssigned)
			}
		}
		return nil
	})
	return sum, err
}

func (r *PaymentRepo) UpdateAmount(_ context.Context, paymentID int64, amount decimal.Decimal) error {
	return r.h.do(func(st *state) error {
		p, ok := st.payments[paymentID]
		if !ok {
			return domain.ErrPaymentNotFound
		}
		p.Amount = amount
		st.payments[paymentID] = p
		return nil
	})
}

func (r *PaymentRepo) DeleteAllocation(_ context.Context, id int64) error {
	return r.h.do(func(st *state) error {
		delete(st.allocations, id)
		return nil
	})
}

func (r *PaymentRepo) DeleteAllocationsByShipment(_ context.Context, shipmentID int64) error {
	return r.h.do(func(st *state) error {
		for id, a := range st.allocations {
			if a.ShipmentID == shipmentID {
				delete(st.allocations, id)
			}
		}
		return nil
	})
}

func (r *PaymentRepo) DeleteAllocationsByPayment(_ context.Context, paymentID int64) error {
	return r.h.do(func(st *state) error {
		for id, a := range st.allocations {
			if a.PaymentID == paymentID {
				delete(st.allocations, id)
			}
		}
		return nil
	})
}

func (r *PaymentRepo) Delete(_ context.Context, id int64) error {
	return r.h.do(func(st *state) error {
		delete(st.payments, id)
		return nil
	})
}

func (r *PaymentRepo) ListByClient(_ context.Context, clientID int64, limit, offset int) ([]*entity.Payment, error) {
	var out []*entity.Payment
	err := r.h.do(func(st *state) error {
		ids := make([]int64, 0)
		for id, p := range st.payments {
			if p.ClientID == clientID {
				ids = append(ids, id)
			}
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })
		for _, id := range page(ids, limit, offset) {
			out = append(out, st.loadPayment(id))
		}
		return nil
	})
	return out, err
}

func (st *state) loadPayment(id int64) *entity.Payment {
	p, ok := st.payments[id]
	if !ok {
		return nil
	}
	p.Allocations = st.allocationsWhere(func(a entity.PaymentAllocation) bool { return a.PaymentID == id })
	return &p
}

func (st *state) allocationsWhere(match func(entity.PaymentAllocation) bool) []entity.PaymentAllocation {
	var out []entity.PaymentAllocation
	for _, a := range st.allocations {
		if match(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

var _ repository.PaymentRepository = (*PaymentRepo)(nil)
