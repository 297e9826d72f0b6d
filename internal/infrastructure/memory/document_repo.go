package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/remisiones-api/internal/domain"
	"github.com/jhoicas/remisiones-api/internal/domain/entity"
	"github.com/jhoicas/remisiones-api/internal/domain/repository"
)

// ReceiptRepo implementa repository.ReceiptRepository.
type ReceiptRepo struct{ h *handle }

func (r *ReceiptRepo) Create(_ context.Context, rc *entity.Receipt) error {
	return r.h.do(func(st *state) error {
		rc.ID = st.nextID()
		header := *rc
		header.Lines = nil
		st.receipts[rc.ID] = header
		return nil
	})
}

func (r *ReceiptRepo) CreateLine(_ context.Context, l *entity.ReceiptLine) error {
	return r.h.do(func(st *state) error {
		if _, ok := st.receipts[l.ReceiptID]; !ok {
			return domain.ErrReceiptNotFound
		}
		l.ID = st.nextID()
		st.receiptLines[l.ID] = *l
		return nil
	})
}

func (r *ReceiptRepo) GetByID(_ context.Context, id int64) (*entity.Receipt, error) {
	var out *entity.Receipt
	err := r.h.do(func(st *state) error {
		out = st.loadReceipt(id)
		return nil
	})
	return out, err
}

func (r *ReceiptRepo) GetForUpdate(ctx context.Context, id int64) (*entity.Receipt, error) {
	return r.GetByID(ctx, id)
}

func (r *ReceiptRepo) Update(_ context.Context, rc *entity.Receipt) error {
	return r.h.do(func(st *state) error {
		if _, ok := st.receipts[rc.ID]; !ok {
			return domain.ErrReceiptNotFound
		}
		header := *rc
		header.Lines = nil
		st.receipts[rc.ID] = header
		return nil
	})
}

func (r *ReceiptRepo) DeleteLines(_ context.Context, receiptID int64) error {
	return r.h.do(func(st *state) error {
		for id, l := range st.receiptLines {
			if l.ReceiptID == receiptID {
				delete(st.receiptLines, id)
			}
		}
		return nil
	})
}

func (r *ReceiptRepo) Delete(_ context.Context, id int64) error {
	return r.h.do(func(st *state) error {
		delete(st.receipts, id)
		return nil
	})
}

func (r *ReceiptRepo) List(_ context.Context, limit, offset int) ([]*entity.Receipt, error) {
	var out []*entity.Receipt
	err := r.h.do(func(st *state) error {
		ids := make([]int64, 0, len(st.receipts))
		for id := range st.receipts {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })
		for _, id := range page(ids, limit, offset) {
			out = append(out, st.loadReceipt(id))
		}
		return nil
	})
	return out, err
}

func (st *state) loadReceipt(id int64) *entity.Receipt {
	rc, ok := st.receipts[id]
	if !ok {
		return nil
	}
	for _, l := range st.receiptLines {
		if l.ReceiptID == id {
			rc.Lines = append(rc.Lines, l)
		}
	}
	sort.Slice(rc.Lines, func(i, j int) bool { return rc.Lines[i].Position < rc.Lines[j].Position })
	return &rc
}

// ShipmentRepo implementa repository.ShipmentRepository.
type ShipmentRepo struct{ h *handle }

func (r *ShipmentRepo) Create(_ context.Context, s *entity.Shipment) error {
	return r.h.do(func(st *state) error {
		s.ID = st.nextID()
		header := *s
		header.Lines = nil
		st.shipments[s.ID] = header
		return nil
	})
}

func (r *ShipmentRepo) CreateLine(_ context.Context, l *entity.ShipmentLine) error {
	return r.h.do(func(st *state) error {
		if _, ok := st.shipments[l.ShipmentID]; !ok {
			return domain.ErrShipmentNotFound
		}
		l.ID = st.nextID()
		for i := range l.BoxWeights {
			l.BoxWeights[i].ID = st.nextID()
			l.BoxWeights[i].ShipmentLineID = l.ID
		}
		stored := *l
		stored.BoxWeights = append([]entity.BoxWeight(nil), l.BoxWeights...)
		st.shipmentLines[l.ID] = stored
		return nil
	})
}

func (r *ShipmentRepo) GetByID(_ context.Context, id int64) (*entity.Shipment, error) {
	var out *entity.Shipment
	err := r.h.do(func(st *state) error {
		out = st.loadShipment(id)
		return nil
	})
	return out, err
}

func (r *ShipmentRepo) GetForUpdate(ctx context.Context, id int64) (*entity.Shipment, error) {
	return r.GetByID(ctx, id)
}

func (r *ShipmentRepo) UpdateTotals(_ context.Context, s *entity.Shipment) error {
	return r.h.do(func(st *state) error {
		cur, ok := st.shipments[s.ID]
		if !ok {
			return domain.ErrShipmentNotFound
		}
		cur.WeightTotal = s.WeightTotal
		cur.TotalCost = s.TotalCost
		cur.IsPaid = s.IsPaid
		cur.ShouldBeInvoiced = s.ShouldBeInvoiced
		cur.UpdatedAt = s.UpdatedAt
		st.shipments[s.ID] = cur
		return nil
	})
}

func (r *ShipmentRepo) UpdateLine(_ context.Context, l *entity.ShipmentLine) error {
	return r.h.do(func(st *state) error {
		if _, ok := st.shipmentLines[l.ID]; !ok {
			return domain.ErrLineNotFound
		}
		for i := range l.BoxWeights {
			l.BoxWeights[i].ID = st.nextID()
			l.BoxWeights[i].ShipmentLineID = l.ID
		}
		stored := *l
		stored.BoxWeights = append([]entity.BoxWeight(nil), l.BoxWeights...)
		st.shipmentLines[l.ID] = stored
		return nil
	})
}

func (r *ShipmentRepo) UpdateInvoicing(_ context.Context, s *entity.Shipment) error {
	return r.h.do(func(st *state) error {
		cur, ok := st.shipments[s.ID]
		if !ok {
			return domain.ErrShipmentNotFound
		}
		cur.CFDIFolio = s.CFDIFolio
		cur.CFDIUUID = s.CFDIUUID
		cur.StampedAt = s.StampedAt
		cur.ArtifactURI = s.ArtifactURI
		cur.ShouldBeInvoiced = s.ShouldBeInvoiced
		cur.InvoicingToken = s.InvoicingToken
		cur.InvoicingClaimedAt = s.InvoicingClaimedAt
		st.shipments[s.ID] = cur
		return nil
	})
}

func (r *ShipmentRepo) DeleteLines(_ context.Context, shipmentID int64) error {
	return r.h.do(func(st *state) error {
		for id, l := range st.shipmentLines {
			if l.ShipmentID == shipmentID {
				delete(st.shipmentLines, id)
			}
		}
		return nil
	})
}

func (r *ShipmentRepo) Delete(_ context.Context, id int64) error {
	return r.h.do(func(st *state) error {
		delete(st.shipments, id)
		return nil
	})
}

func (r *ShipmentRepo) List(_ context.Context, f repository.ShipmentFilter, limit, offset int) ([]*entity.Shipment, error) {
	var out []*entity.Shipment
	err := r.h.do(func(st *state) error {
		ids := make([]int64, 0, len(st.shipments))
		for id, s := range st.shipments {
			if f.ClientID > 0 && s.ClientID != f.ClientID {
				continue
			}
			if f.IsPaid != nil && s.IsPaid != *f.IsPaid {
				continue
			}
			if f.Invoiced != nil && s.IsInvoiced() != *f.Invoiced {
				continue
			}
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })
		for _, id := range page(ids, limit, offset) {
			out = append(out, st.loadShipment(id))
		}
		return nil
	})
	return out, err
}

func (st *state) loadShipment(id int64) *entity.Shipment {
	s, ok := st.shipments[id]
	if !ok {
		return nil
	}
	for _, l := range st.shipmentLines {
		if l.ShipmentID == id {
			l.BoxWeights = append([]entity.BoxWeight(nil), l.BoxWeights...)
			s.Lines = append(s.Lines, l)
		}
	}
	sort.Slice(s.Lines, func(i, j int) bool { return s.Lines[i].Position < s.Lines[j].Position })
	return &s
}

var (
	_ repository.ReceiptRepository  = (*ReceiptRepo)(nil)
	_ repository.ShipmentRepository = (*ShipmentRepo)(nil)
)
