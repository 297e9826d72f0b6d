package inventory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jhoicas/remisiones-api/internal/domain/entity"
	"github.com/jhoicas/remisiones-api/internal/infrastructure/memory"
)

type fixture struct {
	store    *memory.Store
	supplier int64
	blanco   int64
	rojo     int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	repos := store.Repositories()

	sup := &entity.Supplier{Name: "Granja San Juan"}
	require.NoError(t, repos.Suppliers.Create(ctx, sup))
	blanco := &entity.Product{Name: "Blanco Jumbo", SATProductCode: "50131700", SATUnitCode: "KGM"}
	require.NoError(t, repos.Products.Create(ctx, blanco))
	rojo := &entity.Product{Name: "Rojo Grande", SATProductCode: "50131700", SATUnitCode: "KGM"}
	require.NoError(t, repos.Products.Create(ctx, rojo))

	return &fixture{store: store, supplier: sup.ID, blanco: blanco.ID, rojo: rojo.ID}
}

func (f *fixture) stock(t *testing.T, productID int64) int {
	t.Helper()
	p, err := f.store.Repositories().Products.GetByID(context.Background(), productID)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p.CurrentStock
}

func (f *fixture) movements(t *testing.T, productID int64) []*entity.Movement {
	t.Helper()
	list, err := f.store.Repositories().Movements.ListByProduct(context.Background(), productID, nil, nil, 0, 0)
	require.NoError(t, err)
	return list
}

// requireConserved verifica current_stock == Σ libro para todos los productos.
func (f *fixture) requireConserved(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	repos := f.store.Repositories()
	sums, err := repos.Movements.SumByProduct(ctx)
	require.NoError(t, err)
	products, err := repos.Products.List(ctx, 0, 0)
	require.NoError(t, err)
	for _, p := range products {
		require.Equal(t, sums[p.ID], p.CurrentStock, "producto %d: stock y libro divergen", p.ID)
	}
}
