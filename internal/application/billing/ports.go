package billing

import (
	"context"
	"time"

	"github.com/jhoicas/remisiones-api/internal/domain/entity"
)

// TaxDocument comprobante listo para timbrar (CFDI 4.0 ya sellado si hay CSD).
type TaxDocument struct {
	ShipmentID int64
	Series     string
	Folio      string // folio interno del emisor (Serie+Folio del comprobante)
	XML        []byte
}

// StampResult respuesta del PAC: folio fiscal (UUID del timbre) y XML timbrado.
type StampResult struct {
	Folio     string
	UUID      string
	StampedAt time.Time
	Artifact  []byte
}

// DocumentBuilder arma el comprobante a partir de la remisión (líneas con foto de precio y
// claves SAT) y del cliente receptor.
type DocumentBuilder interface {
	Build(shipment *entity.Shipment, client *entity.Client) (*TaxDocument, error)
}

// Stamper colaborador de timbrado (PAC). Las fallas del proveedor se devuelven como
// *domain.ExternalServiceError con su código numérico.
type Stamper interface {
	Stamp(ctx context.Context, doc *TaxDocument) (*StampResult, error)
}

// Locker candado distribuido alrededor de toda la emisión. Si otro proceso lo tiene
// devuelve domain.ErrInvoicingInProgress.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(context.Context) error, err error)
}

// ArtifactStore guarda el XML timbrado y devuelve su URI.
type ArtifactStore interface {
	Save(ctx context.Context, name string, data []byte) (uri string, err error)
}
