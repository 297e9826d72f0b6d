package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/remisiones-api/internal/infrastructure/storage"
)

func TestLocalStore_Save(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cfdi")
	s, err := storage.NewLocalStore(dir)
	require.NoError(t, err)

	uri, err := s.Save(context.Background(), "R-7.xml", []byte("<cfdi/>"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "file://"))

	got, err := os.ReadFile(filepath.Join(dir, "R-7.xml"))
	require.NoError(t, err)
	assert.Equal(t, "<cfdi/>", string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no deben quedar temporales")
}

func TestLocalStore_NoEscapaDelDirectorio(t *testing.T) {
	dir := t.TempDir()
	s, err := storage.NewLocalStore(dir)
	require.NoError(t, err)

	_, err = s.Save(context.Background(), "../fuera.xml", []byte("x"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "fuera.xml"))
	assert.NoError(t, err)
}

func TestLocalStore_ContextoCancelado(t *testing.T) {
	s, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Save(ctx, "a.xml", []byte("x"))
	assert.ErrorIs(t, err, context.Canceled)
}
