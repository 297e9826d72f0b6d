package memory

import (
	"context"
	"time"

	"github.com/jhoicas/remisiones-api/internal/domain/entity"
	"github.com/jhoicas/remisiones-api/internal/domain/repository"
)

// MovementRepo implementa repository.MovementRepository (solo inserción).
type MovementRepo struct{ h *handle }

func (r *MovementRepo) Create(_ context.Context, m *entity.Movement) error {
	return r.h.do(func(st *state) error {
		m.ID = st.nextID()
		if m.CreatedAt.IsZero() {
			m.CreatedAt = time.Now()
		}
		st.movements = append(st.movements, *m)
		return nil
	})
}

func (r *MovementRepo) ListByProduct(_ context.Context, productID int64, from, to *time.Time, limit, offset int) ([]*entity.Movement, error) {
	var out []*entity.Movement
	err := r.h.do(func(st *state) error {
		var matched []entity.Movement
		for _, m := range st.movements {
			if m.ProductID != productID {
				continue
			}
			if from != nil && m.CreatedAt.Before(*from) {
				continue
			}
			if to != nil && !m.CreatedAt.Before(*to) {
				continue
			}
			matched = append(matched, m)
		}
		for _, m := range page(matched, limit, offset) {
			m := m
			out = append(out, &m)
		}
		return nil
	})
	return out, err
}

func (r *MovementRepo) ListByReference(_ context.Context, referenceType string, referenceID int64) ([]*entity.Movement, error) {
	var out []*entity.Movement
	err := r.h.do(func(st *state) error {
		for _, m := range st.movements {
			if m.ReferenceType == referenceType && m.ReferenceID == referenceID {
				m := m
				out = append(out, &m)
			}
		}
		return nil
	})
	return out, err
}

func (r *MovementRepo) SumByProduct(_ context.Context) (map[int64]int, error) {
	out := map[int64]int{}
	err := r.h.do(func(st *state) error {
		for _, m := range st.movements {
			out[m.ProductID] += m.Quantity
		}
		return nil
	})
	return out, err
}

var _ repository.MovementRepository = (*MovementRepo)(nil)
