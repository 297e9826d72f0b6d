package inventory_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/remisiones-api/internal/application/dto"
	appinv "github.com/jhoicas/remisiones-api/internal/application/inventory"
	"github.com/jhoicas/remisiones-api/internal/domain"
	"github.com/jhoicas/remisiones-api/internal/domain/entity"
	"github.com/jhoicas/remisiones-api/pkg/logger"
)

func newReceiptUC(f *fixture) *appinv.ReceiptUseCase {
	return appinv.NewReceiptUseCase(f.store, f.store.Repositories(), appinv.NewStockLedger(), logger.Nop())
}

func receiptLine(productID int64, boxes int) dto.ReceiptLineRequest {
	return dto.ReceiptLineRequest{
		ProductID:   productID,
		BoxCount:    boxes,
		WeightTotal: decimal.NewFromInt(int64(boxes) * 20),
		UnitPrice:   decimal.NewFromInt(30),
	}
}

func TestReceipt_Create_EntradaPorLinea(t *testing.T) {
	f := newFixture(t)
	uc := newReceiptUC(f)

	r, err := uc.Create(context.Background(), "u1", dto.CreateReceiptRequest{
		SupplierID: f.supplier,
		Lines:      []dto.ReceiptLineRequest{receiptLine(f.blanco, 10), receiptLine(f.rojo, 5)},
	})
	require.NoError(t, err)
	require.Len(t, r.Lines, 2)

	assert.Equal(t, 10, f.stock(t, f.blanco))
	assert.Equal(t, 5, f.stock(t, f.rojo))

	movs := f.movements(t, f.blanco)
	require.Len(t, movs, 1)
	assert.Equal(t, entity.MovementKindEntry, movs[0].Kind)
	assert.Equal(t, 10, movs[0].Quantity)
	assert.Equal(t, 10, movs[0].StockAfter)
	assert.Equal(t, entity.ReferenceReceipt, movs[0].ReferenceType)
	assert.Equal(t, r.ID, movs[0].ReferenceID)
	assert.Equal(t, "u1", movs[0].CreatedBy)
	f.requireConserved(t)
}

func TestReceipt_Create_ProductoInexistenteAbortaTodo(t *testing.T) {
	f := newFixture(t)
	uc := newReceiptUC(f)

	_, err := uc.Create(context.Background(), "u1", dto.CreateReceiptRequest{
		SupplierID: f.supplier,
		Lines:      []dto.ReceiptLineRequest{receiptLine(f.blanco, 10), receiptLine(9999, 3)},
	})
	require.ErrorIs(t, err, domain.ErrProductNotFound)

	assert.Equal(t, 0, f.stock(t, f.blanco), "la primera línea no debe quedar aplicada")
	assert.Empty(t, f.movements(t, f.blanco))
	list, err := uc.List(context.Background(), dto.PageRequest{})
	require.NoError(t, err)
	assert.Empty(t, list.Items)
}

func TestReceipt_Create_ProveedorInexistente(t *testing.T) {
	f := newFixture(t)
	_, err := newReceiptUC(f).Create(context.Background(), "u1", dto.CreateReceiptRequest{
		SupplierID: 4242,
		Lines:      []dto.ReceiptLineRequest{receiptLine(f.blanco, 1)},
	})
	assert.ErrorIs(t, err, domain.ErrSupplierNotFound)
}

func TestReceipt_Create_CajasInvalidas(t *testing.T) {
	f := newFixture(t)
	_, err := newReceiptUC(f).Create(context.Background(), "u1", dto.CreateReceiptRequest{
		SupplierID: f.supplier,
		Lines:      []dto.ReceiptLineRequest{receiptLine(f.blanco, 0)},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidBoxCount)
}

// Entrada (X, 10) editada a (X, 4): stock −6 y exactamente un ADJUSTMENT por la edición.
func TestReceipt_Update_RevierteYRegistraUnSoloAjuste(t *testing.T) {
	f := newFixture(t)
	uc := newReceiptUC(f)
	ctx := context.Background()

	r, err := uc.Create(ctx, "u1", dto.CreateReceiptRequest{
		SupplierID: f.supplier,
		Lines:      []dto.ReceiptLineRequest{receiptLine(f.blanco, 10)},
	})
	require.NoError(t, err)
	before := f.stock(t, f.blanco)

	updated, err := uc.Update(ctx, r.ID, "u2", dto.CreateReceiptRequest{
		SupplierID: f.supplier,
		Lines:      []dto.ReceiptLineRequest{receiptLine(f.blanco, 4)},
	})
	require.NoError(t, err)
	require.Len(t, updated.Lines, 1)
	assert.Equal(t, 4, updated.Lines[0].BoxCount)

	assert.Equal(t, before-6, f.stock(t, f.blanco))

	movs := f.movements(t, f.blanco)
	require.Len(t, movs, 2, "ENTRY original + un ADJUSTMENT")
	assert.Equal(t, entity.MovementKindEntry, movs[0].Kind)
	assert.Equal(t, entity.MovementKindAdjustment, movs[1].Kind)
	assert.Equal(t, -6, movs[1].Quantity)
	assert.Equal(t, 4, movs[1].StockAfter)
	assert.Equal(t, entity.ReasonReceiptUpdated, movs[1].Reason)
	f.requireConserved(t)
}

func TestReceipt_Update_CambiaProducto(t *testing.T) {
	f := newFixture(t)
	uc := newReceiptUC(f)
	ctx := context.Background()

	r, err := uc.Create(ctx, "u1", dto.CreateReceiptRequest{
		SupplierID: f.supplier,
		Lines:      []dto.ReceiptLineRequest{receiptLine(f.blanco, 8)},
	})
	require.NoError(t, err)

	_, err = uc.Update(ctx, r.ID, "u1", dto.CreateReceiptRequest{
		SupplierID: f.supplier,
		Lines:      []dto.ReceiptLineRequest{receiptLine(f.rojo, 3)},
	})
	require.NoError(t, err)

	assert.Equal(t, 0, f.stock(t, f.blanco))
	assert.Equal(t, 3, f.stock(t, f.rojo))

	blancoMovs := f.movements(t, f.blanco)
	require.Len(t, blancoMovs, 2)
	assert.Equal(t, -8, blancoMovs[1].Quantity)
	assert.Equal(t, entity.ReasonReceiptLineRemoved, blancoMovs[1].Reason)
	f.requireConserved(t)
}

func TestReceipt_Update_StockNegativoHaceRollback(t *testing.T) {
	f := newFixture(t)
	uc := newReceiptUC(f)
	adj := appinv.NewAdjustmentUseCase(f.store, appinv.NewStockLedger(), logger.Nop())
	ctx := context.Background()

	r, err := uc.Create(ctx, "u1", dto.CreateReceiptRequest{
		SupplierID: f.supplier,
		Lines:      []dto.ReceiptLineRequest{receiptLine(f.blanco, 10)},
	})
	require.NoError(t, err)
	// salen 8 cajas: quedan 2
	_, err = adj.Adjust(ctx, "u1", dto.AdjustmentRequest{ProductID: f.blanco, Direction: dto.AdjustmentOut, Quantity: 8, Reason: "merma"})
	require.NoError(t, err)

	_, err = uc.Update(ctx, r.ID, "u1", dto.CreateReceiptRequest{
		SupplierID: f.supplier,
		Lines:      []dto.ReceiptLineRequest{receiptLine(f.blanco, 4)},
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.Equal(t, 2, f.stock(t, f.blanco))
	got, err := uc.GetByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Lines[0].BoxCount, "las líneas originales siguen intactas")
	f.requireConserved(t)
}

// Dos líneas del mismo producto: solo importa el stock final, no el orden.
func TestReceipt_Update_MismoProductoEnVariasLineas(t *testing.T) {
	f := newFixture(t)
	uc := newReceiptUC(f)
	adj := appinv.NewAdjustmentUseCase(f.store, appinv.NewStockLedger(), logger.Nop())
	ctx := context.Background()

	r, err := uc.Create(ctx, "u1", dto.CreateReceiptRequest{
		SupplierID: f.supplier,
		Lines:      []dto.ReceiptLineRequest{receiptLine(f.blanco, 10)},
	})
	require.NoError(t, err)
	_, err = adj.Adjust(ctx, "u1", dto.AdjustmentRequest{ProductID: f.blanco, Direction: dto.AdjustmentOut, Quantity: 7, Reason: "salida"})
	require.NoError(t, err)

	_, err = uc.Update(ctx, r.ID, "u1", dto.CreateReceiptRequest{
		SupplierID: f.supplier,
		Lines:      []dto.ReceiptLineRequest{receiptLine(f.blanco, 2), receiptLine(f.blanco, 8)},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, f.stock(t, f.blanco))
	f.requireConserved(t)
}

func TestReceipt_Delete_AjusteNegativoPorLinea(t *testing.T) {
	f := newFixture(t)
	uc := newReceiptUC(f)
	ctx := context.Background()

	r, err := uc.Create(ctx, "u1", dto.CreateReceiptRequest{
		SupplierID: f.supplier,
		Lines:      []dto.ReceiptLineRequest{receiptLine(f.blanco, 6), receiptLine(f.rojo, 2)},
	})
	require.NoError(t, err)

	require.NoError(t, uc.Delete(ctx, r.ID, "u3"))

	assert.Equal(t, 0, f.stock(t, f.blanco))
	assert.Equal(t, 0, f.stock(t, f.rojo))
	movs := f.movements(t, f.blanco)
	require.Len(t, movs, 2)
	assert.Equal(t, entity.MovementKindAdjustment, movs[1].Kind)
	assert.Equal(t, -6, movs[1].Quantity)
	assert.Equal(t, entity.ReasonReceiptDeleted, movs[1].Reason)

	_, err = uc.GetByID(ctx, r.ID)
	assert.ErrorIs(t, err, domain.ErrReceiptNotFound)
	f.requireConserved(t)
}

func TestReceipt_Delete_StockInsuficiente(t *testing.T) {
	f := newFixture(t)
	uc := newReceiptUC(f)
	adj := appinv.NewAdjustmentUseCase(f.store, appinv.NewStockLedger(), logger.Nop())
	ctx := context.Background()

	r, err := uc.Create(ctx, "u1", dto.CreateReceiptRequest{
		SupplierID: f.supplier,
		Lines:      []dto.ReceiptLineRequest{receiptLine(f.blanco, 5)},
	})
	require.NoError(t, err)
	_, err = adj.Adjust(ctx, "u1", dto.AdjustmentRequest{ProductID: f.blanco, Direction: dto.AdjustmentOut, Quantity: 1, Reason: "rotura"})
	require.NoError(t, err)

	err = uc.Delete(ctx, r.ID, "u1")
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 4, f.stock(t, f.blanco))

	_, err = uc.GetByID(ctx, r.ID)
	assert.NoError(t, err, "la entrada no se borra si falla la reversión")
}

func TestReceipt_Delete_Inexistente(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, newReceiptUC(f).Delete(context.Background(), 777, "u1"), domain.ErrReceiptNotFound)
}
