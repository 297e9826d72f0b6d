package inventory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/remisiones-api/internal/application/dto"
	appinv "github.com/jhoicas/remisiones-api/internal/application/inventory"
	"github.com/jhoicas/remisiones-api/internal/domain"
	"github.com/jhoicas/remisiones-api/internal/domain/entity"
	"github.com/jhoicas/remisiones-api/pkg/logger"
)

func TestAdjustment_EntradaYSalida(t *testing.T) {
	f := newFixture(t)
	uc := appinv.NewAdjustmentUseCase(f.store, appinv.NewStockLedger(), logger.Nop())
	ctx := context.Background()

	mov, err := uc.Adjust(ctx, "u1", dto.AdjustmentRequest{ProductID: f.rojo, Direction: dto.AdjustmentIn, Quantity: 12, Reason: "conteo físico"})
	require.NoError(t, err)
	assert.Equal(t, entity.MovementKindAdjustmentIn, mov.Kind)
	assert.Equal(t, 12, mov.StockAfter)
	assert.Equal(t, entity.ReferenceManual, mov.ReferenceType)

	mov, err = uc.Adjust(ctx, "u1", dto.AdjustmentRequest{ProductID: f.rojo, Direction: dto.AdjustmentOut, Quantity: 5, Reason: "merma"})
	require.NoError(t, err)
	assert.Equal(t, entity.MovementKindAdjustmentOut, mov.Kind)
	assert.Equal(t, -5, mov.Quantity)
	assert.Equal(t, 7, f.stock(t, f.rojo))
	f.requireConserved(t)
}

func TestAdjustment_SalidaMayorAlStock(t *testing.T) {
	f := newFixture(t)
	uc := appinv.NewAdjustmentUseCase(f.store, appinv.NewStockLedger(), logger.Nop())

	_, err := uc.Adjust(context.Background(), "u1", dto.AdjustmentRequest{ProductID: f.rojo, Direction: dto.AdjustmentOut, Quantity: 1, Reason: "merma"})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Empty(t, f.movements(t, f.rojo))
}

func TestAdjustment_EntradaInvalida(t *testing.T) {
	f := newFixture(t)
	uc := appinv.NewAdjustmentUseCase(f.store, appinv.NewStockLedger(), logger.Nop())
	ctx := context.Background()

	_, err := uc.Adjust(ctx, "u1", dto.AdjustmentRequest{ProductID: f.rojo, Direction: "SIDEWAYS", Quantity: 1, Reason: "x y z"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = uc.Adjust(ctx, "u1", dto.AdjustmentRequest{ProductID: 555, Direction: dto.AdjustmentIn, Quantity: 1, Reason: "conteo"})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}
