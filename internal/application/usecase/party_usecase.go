package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/remisiones-api/internal/application/dto"
	"github.com/jhoicas/remisiones-api/internal/domain"
	"github.com/jhoicas/remisiones-api/internal/domain/entity"
	"github.com/jhoicas/remisiones-api/internal/domain/repository"
	"github.com/jhoicas/remisiones-api/pkg/sat"
)

// SupplierUseCase alta de proveedores.
type SupplierUseCase struct {
	repo repository.SupplierRepository
}

// NewSupplierUseCase construye el caso de uso.
func NewSupplierUseCase(repo repository.SupplierRepository) *SupplierUseCase {
	return &SupplierUseCase{repo: repo}
}

// Create registra un proveedor.
func (uc *SupplierUseCase) Create(ctx context.Context, in dto.CreateSupplierRequest) (*dto.SupplierResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.ErrInvalidInput
	}
	s := &entity.Supplier{Name: name, CreatedAt: time.Now()}
	if err := uc.repo.Create(ctx, s); err != nil {
		return nil, err
	}
	return &dto.SupplierResponse{ID: s.ID, Name: s.Name, CreatedAt: s.CreatedAt}, nil
}

// ClientUseCase alta de clientes con sus datos fiscales.
type ClientUseCase struct {
	repo repository.ClientRepository
}

// NewClientUseCase construye el caso de uso.
func NewClientUseCase(repo repository.ClientRepository) *ClientUseCase {
	return &ClientUseCase{repo: repo}
}

// Create registra un cliente. El RFC se valida contra la estructura del SAT y se guarda en mayúsculas.
func (uc *ClientUseCase) Create(ctx context.Context, in dto.CreateClientRequest) (*dto.ClientResponse, error) {
	rfc := strings.ToUpper(strings.TrimSpace(in.RFC))
	if !sat.ValidRFC(rfc) {
		return nil, fmt.Errorf("%w: RFC %q", domain.ErrInvalidInput, in.RFC)
	}
	use := in.CFDIUse
	if use == "" {
		use = sat.DefaultCFDIUse
	}
	now := time.Now()
	c := &entity.Client{
		Name:      strings.TrimSpace(in.Name),
		RFC:       rfc,
		TaxRegime: in.TaxRegime,
		ZipCode:   in.ZipCode,
		CFDIUse:   use,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return &dto.ClientResponse{
		ID:        c.ID,
		Name:      c.Name,
		RFC:       c.RFC,
		TaxRegime: c.TaxRegime,
		ZipCode:   c.ZipCode,
		CFDIUse:   c.CFDIUse,
		CreatedAt: c.CreatedAt,
	}, nil
}
