package lock_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jhoicas/remisiones-api/internal/infrastructure/lock"
)

func TestNoopLocker(t *testing.T) {
	release, err := lock.NoopLocker{}.Acquire(context.Background(), "7")
	require.NoError(t, err)
	require.NoError(t, release(context.Background()))
}

func TestKey_UnSoloPrefijo(t *testing.T) {
	require.Equal(t, "remisiones:invoice:shipment:7", lock.Key("invoice:shipment:7"))
}
