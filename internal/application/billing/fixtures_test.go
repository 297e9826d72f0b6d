package billing_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/remisiones-api/internal/application/dto"
	appinv "github.com/jhoicas/remisiones-api/internal/application/inventory"
	"github.com/jhoicas/remisiones-api/internal/application/remission"
	"github.com/jhoicas/remisiones-api/internal/domain/entity"
	"github.com/jhoicas/remisiones-api/internal/domain/repository"
	"github.com/jhoicas/remisiones-api/internal/infrastructure/memory"
	"github.com/jhoicas/remisiones-api/pkg/logger"
)

type fixture struct {
	store     *memory.Store
	repos     repository.Repositories
	shipments *remission.ShipmentUseCase
	client    int64
	other     int64
	supplier  int64
	product   int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	repos := store.Repositories()
	ledger := appinv.NewStockLedger()

	c := &entity.Client{Name: "Abarrotes Lupita S.A. de C.V.", RFC: "GODE561231GR8", TaxRegime: "612", ZipCode: "06000", CFDIUse: "G01"}
	require.NoError(t, repos.Clients.Create(ctx, c))
	o := &entity.Client{Name: "Cremería Don Beto", RFC: "XAXX010101000", TaxRegime: "616", ZipCode: "06000", CFDIUse: "S01"}
	require.NoError(t, repos.Clients.Create(ctx, o))
	s := &entity.Supplier{Name: "Granja San Juan"}
	require.NoError(t, repos.Suppliers.Create(ctx, s))
	p := &entity.Product{Name: "Blanco Jumbo", SATProductCode: "50131700", SATUnitCode: "KGM"}
	require.NoError(t, repos.Products.Create(ctx, p))

	_, err := appinv.NewAdjustmentUseCase(store, ledger, logger.Nop()).Adjust(ctx, "seed", dto.AdjustmentRequest{
		ProductID: p.ID, Direction: dto.AdjustmentIn, Quantity: 100, Reason: "inventario inicial",
	})
	require.NoError(t, err)

	return &fixture{
		store:     store,
		repos:     repos,
		shipments: remission.NewShipmentUseCase(store, repos, ledger, time.Minute, logger.Nop()),
		client:    c.ID,
		other:     o.ID,
		supplier:  s.ID,
		product:   p.ID,
	}
}

// shipment crea una remisión de una línea cuyo costo total es cost (1 kg × cost).
func (f *fixture) shipment(t *testing.T, clientID int64, cost string) int64 {
	t.Helper()
	one := decimal.NewFromInt(1)
	s, err := f.shipments.Create(context.Background(), "u1", dto.CreateShipmentRequest{
		ClientID: clientID,
		Lines: []dto.ShipmentLineRequest{{
			ProductID:    f.product,
			SupplierID:   f.supplier,
			BoxCount:     1,
			WeightTotal:  &one,
			PricePerKilo: decimal.RequireFromString(cost),
		}},
	})
	require.NoError(t, err)
	require.Equal(t, decimal.RequireFromString(cost).StringFixed(2), s.TotalCost.StringFixed(2))
	return s.ID
}

func (f *fixture) get(t *testing.T, id int64) *entity.Shipment {
	t.Helper()
	s, err := f.repos.Shipments.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, s)
	return s
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
