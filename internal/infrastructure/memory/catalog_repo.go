package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/jhoicas/remisiones-api/internal/domain"
	"github.com/jhoicas/remisiones-api/internal/domain/entity"
	"github.com/jhoicas/remisiones-api/internal/domain/repository"
)

// ProductRepo implementa repository.ProductRepository.
type ProductRepo struct{ h *handle }

func (r *ProductRepo) Create(_ context.Context, p *entity.Product) error {
	return r.h.do(func(st *state) error {
		for _, other := range st.products {
			if strings.EqualFold(other.Name, p.Name) {
				return domain.ErrDuplicate
			}
		}
		p.ID = st.nextID()
		st.products[p.ID] = *p
		return nil
	})
}

func (r *ProductRepo) GetByID(_ context.Context, id int64) (*entity.Product, error) {
	var out *entity.Product
	err := r.h.do(func(st *state) error {
		if p, ok := st.products[id]; ok {
			out = &p
		}
		return nil
	})
	return out, err
}

func (r *ProductRepo) GetForUpdate(ctx context.Context, id int64) (*entity.Product, error) {
	return r.GetByID(ctx, id)
}

func (r *ProductRepo) UpdateStock(_ context.Context, id int64, stock int) error {
	return r.h.do(func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return domain.ErrProductNotFound
		}
		p.CurrentStock = stock
		st.products[id] = p
		return nil
	})
}

func (r *ProductRepo) List(_ context.Context, limit, offset int) ([]*entity.Product, error) {
	var out []*entity.Product
	err := r.h.do(func(st *state) error {
		all := make([]entity.Product, 0, len(st.products))
		for _, p := range st.products {
			all = append(all, p)
		}
		sort.Slice(all, func(i, j int) bool {
			if all[i].Name != all[j].Name {
				return all[i].Name < all[j].Name
			}
			return all[i].ID < all[j].ID
		})
		for _, p := range page(all, limit, offset) {
			p := p
			out = append(out, &p)
		}
		return nil
	})
	return out, err
}

// SupplierRepo implementa repository.SupplierRepository.
type SupplierRepo struct{ h *handle }

func (r *SupplierRepo) Create(_ context.Context, s *entity.Supplier) error {
	return r.h.do(func(st *state) error {
		s.ID = st.nextID()
		st.suppliers[s.ID] = *s
		return nil
	})
}

func (r *SupplierRepo) GetByID(_ context.Context, id int64) (*entity.Supplier, error) {
	var out *entity.Supplier
	err := r.h.do(func(st *state) error {
		if s, ok := st.suppliers[id]; ok {
			out = &s
		}
		return nil
	})
	return out, err
}

// ClientRepo implementa repository.ClientRepository.
type ClientRepo struct{ h *handle }

func (r *ClientRepo) Create(_ context.Context, c *entity.Client) error {
	return r.h.do(func(st *state) error {
		c.ID = st.nextID()
		st.clients[c.ID] = *c
		return nil
	})
}

func (r *ClientRepo) GetByID(_ context.Context, id int64) (*entity.Client, error) {
	var out *entity.Client
	err := r.h.do(func(st *state) error {
		if c, ok := st.clients[id]; ok {
			out = &c
		}
		return nil
	})
	return out, err
}

func page[T any](all []T, limit, offset int) []T {
	if offset >= len(all) {
		return nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end]
}

var (
	_ repository.ProductRepository  = (*ProductRepo)(nil)
	_ repository.SupplierRepository = (*SupplierRepo)(nil)
	_ repository.ClientRepository   = (*ClientRepo)(nil)
)
