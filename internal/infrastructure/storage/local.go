package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jhoicas/remisiones-api/internal/application/billing"
)

// LocalStore guarda los XML en un directorio del disco (desarrollo y despliegues de un nodo).
type LocalStore struct {
	dir string
}

var _ billing.ArtifactStore = (*LocalStore)(nil)

// NewLocalStore crea el directorio si no existe.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("crear directorio %s: %w", dir, err)
	}
	return &LocalStore{dir: dir}, nil
}

// Save escribe a un temporal y renombra, para no dejar archivos a medias.
func (s *LocalStore) Save(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dst := filepath.Join(s.dir, filepath.Base(name))
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("temporal: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("escribir %s: %w", dst, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("cerrar %s: %w", dst, err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", fmt.Errorf("renombrar %s: %w", dst, err)
	}
	return "file://" + filepath.ToSlash(dst), nil
}
