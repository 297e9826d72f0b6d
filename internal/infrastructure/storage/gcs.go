package storage

import (
	"context"
	"fmt"
	"path"
	"strings"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/jhoicas/remisiones-api/internal/application/billing"
	"github.com/jhoicas/remisiones-api/pkg/config"
)

const xmlContentType = "application/xml"

// GCSStore guarda los XML timbrados en un bucket de Cloud Storage.
type GCSStore struct {
	client *gcs.Client
	bucket string
	prefix string
}

var _ billing.ArtifactStore = (*GCSStore)(nil)

// NewGCSStore usa credenciales de archivo si se indican; si no, las credenciales por defecto del entorno.
func NewGCSStore(ctx context.Context, cfg config.StorageConfig) (*GCSStore, error) {
	var opts []option.ClientOption
	if strings.TrimSpace(cfg.CredentialsFile) != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs client: %w", err)
	}
	if _, err := client.Bucket(cfg.GCSBucket).Attrs(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("gcs bucket %q no accesible: %w", cfg.GCSBucket, err)
	}
	return &GCSStore{client: client, bucket: cfg.GCSBucket, prefix: cfg.GCSPrefix}, nil
}

func (s *GCSStore) Save(ctx context.Context, name string, data []byte) (string, error) {
	object := path.Join(s.prefix, name)
	wc := s.client.Bucket(s.bucket).Object(object).NewWriter(ctx)
	wc.ContentType = xmlContentType
	if _, err := wc.Write(data); err != nil {
		_ = wc.Close()
		return "", fmt.Errorf("gcs write %s: %w", object, err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("gcs close %s: %w", object, err)
	}
	return fmt.Sprintf("gs://%s/%s", s.bucket, object), nil
}

// Close libera el cliente.
func (s *GCSStore) Close() error {
	return s.client.Close()
}
