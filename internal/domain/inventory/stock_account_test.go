package inventory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/remisiones-api/internal/domain"
	"github.com/jhoicas/remisiones-api/internal/domain/entity"
	"github.com/jhoicas/remisiones-api/internal/domain/inventory"
)

func TestStockAccount_PostGeneraMovimiento(t *testing.T) {
	acc := inventory.NewStockAccount(&entity.Product{ID: 7, CurrentStock: 3})

	mov, err := acc.Post(entity.MovementKindEntry, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(7), mov.ProductID)
	assert.Equal(t, 10, mov.Quantity)
	assert.Equal(t, 13, mov.StockAfter)
	assert.Equal(t, 13, acc.OnHand)

	mov, err = acc.Post(entity.MovementKindRemission, -13)
	require.NoError(t, err)
	assert.Equal(t, 0, mov.StockAfter)
}

// Stock 5 contra retiro de 6 → InsufficientStock y la cuenta queda intacta.
func TestStockAccount_NoPermiteNegativo(t *testing.T) {
	acc := inventory.NewStockAccount(&entity.Product{ID: 1, CurrentStock: 5})

	assert.False(t, acc.CanWithdraw(6))
	_, err := acc.Post(entity.MovementKindRemission, -6)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 5, acc.OnHand)
}

func TestStockAccount_ValidaSignoPorTipo(t *testing.T) {
	acc := inventory.NewStockAccount(&entity.Product{ID: 1, CurrentStock: 50})

	cases := []struct {
		kind string
		qty  int
		ok   bool
	}{
		{entity.MovementKindEntry, 5, true},
		{entity.MovementKindEntry, -5, false},
		{entity.MovementKindAdjustmentIn, 0, false},
		{entity.MovementKindAdjustmentOut, -1, true},
		{entity.MovementKindAdjustmentOut, 1, false},
		{entity.MovementKindRemission, 2, false},
		{entity.MovementKindAdjustment, 0, true},
		{entity.MovementKindAdjustment, -3, true},
		{"OTRO", 1, false},
	}
	for _, tc := range cases {
		_, err := acc.Post(tc.kind, tc.qty)
		if tc.ok {
			assert.NoError(t, err, "%s %d", tc.kind, tc.qty)
		} else {
			assert.ErrorIs(t, err, domain.ErrInvalidInput, "%s %d", tc.kind, tc.qty)
		}
	}
}
