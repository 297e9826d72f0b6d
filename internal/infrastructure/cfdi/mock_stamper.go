package cfdi

import (
	"context"
	"fmt"
	"time"

	"github.com/beevik/etree"
	"github.com/google/uuid"

	"github.com/jhoicas/remisiones-api/internal/application/billing"
)

var _ billing.Stamper = (*MockStamper)(nil)

// MockStamper simula el timbrado (CFDI_APP_ENV=dev): agrega un TimbreFiscalDigital con UUID
// aleatorio y no habla con ningún PAC.
type MockStamper struct {
	now func() time.Time
}

// NewMockStamper crea el timbrador simulado.
func NewMockStamper() *MockStamper {
	return &MockStamper{now: time.Now}
}

func (m *MockStamper) Stamp(ctx context.Context, doc *billing.TaxDocument) (*billing.StampResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	stampedAt := m.now()
	id := uuid.NewString()
	artifact, err := AttachStamp(doc.XML, id, stampedAt)
	if err != nil {
		return nil, err
	}
	return &billing.StampResult{
		Folio:     internalFolio(doc),
		UUID:      id,
		StampedAt: stampedAt,
		Artifact:  artifact,
	}, nil
}

// AttachStamp agrega el complemento tfd:TimbreFiscalDigital al comprobante.
func AttachStamp(xmlBytes []byte, id string, stampedAt time.Time) ([]byte, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(xmlBytes); err != nil {
		return nil, fmt.Errorf("parsear CFDI: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("cfdi: documento sin raíz")
	}
	complemento := root.SelectElement("cfdi:Complemento")
	if complemento == nil {
		complemento = root.CreateElement("cfdi:Complemento")
	}
	tfd := complemento.CreateElement("tfd:TimbreFiscalDigital")
	tfd.CreateAttr("xmlns:tfd", NamespaceTFD)
	tfd.CreateAttr("Version", "1.1")
	tfd.CreateAttr("UUID", id)
	tfd.CreateAttr("FechaTimbrado", stampedAt.Format(dateLayout))
	tfd.CreateAttr("SelloCFD", root.SelectAttrValue("Sello", ""))
	tfd.CreateAttr("NoCertificadoSAT", root.SelectAttrValue("NoCertificado", ""))
	doc.Indent(2)
	return doc.WriteToBytes()
}

// internalFolio Serie-Folio del emisor; es lo que se guarda como folio de la remisión.
func internalFolio(doc *billing.TaxDocument) string {
	if doc.Series == "" {
		return doc.Folio
	}
	return doc.Series + "-" + doc.Folio
}
