// Package cfdi arma, sella y timbra el CFDI 4.0 de una remisión.
package cfdi

import (
	"fmt"
	"strconv"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/remisiones-api/internal/application/billing"
	"github.com/jhoicas/remisiones-api/internal/domain"
	"github.com/jhoicas/remisiones-api/internal/domain/entity"
	"github.com/jhoicas/remisiones-api/pkg/config"
	"github.com/jhoicas/remisiones-api/pkg/sat"
)

var _ billing.DocumentBuilder = (*Builder)(nil)

// Issuer datos fiscales del emisor.
type Issuer struct {
	RFC    string
	Name   string
	Regime string
	Zip    string // LugarExpedicion
	Series string
}

// IssuerFromConfig toma los datos del emisor de la configuración CFDI.
func IssuerFromConfig(c config.CFDIConfig) Issuer {
	return Issuer{RFC: c.IssuerRFC, Name: c.IssuerName, Regime: c.IssuerRegime, Zip: c.IssuerZip, Series: c.Series}
}

// Builder construye el comprobante de ingreso a partir de la foto de las líneas de la remisión.
// Si sealer no es nil el XML sale sellado.
type Builder struct {
	issuer Issuer
	sealer *Sealer
	now    func() time.Time
}

// NewBuilder crea el constructor. sealer puede ser nil (el PAC sella o modo dev).
func NewBuilder(issuer Issuer, sealer *Sealer) *Builder {
	return &Builder{issuer: issuer, sealer: sealer, now: time.Now}
}

// Build genera el XML del comprobante. Cantidad = kg netos, ValorUnitario = precio por kilo.
func (b *Builder) Build(s *entity.Shipment, c *entity.Client) (*billing.TaxDocument, error) {
	if s == nil || c == nil {
		return nil, fmt.Errorf("%w: faltan remisión o cliente", domain.ErrInvalidInput)
	}
	if len(s.Lines) == 0 {
		return nil, fmt.Errorf("%w: la remisión %d no tiene líneas", domain.ErrInvalidInput, s.ID)
	}

	folio := strconv.FormatInt(s.ID, 10)
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("cfdi:Comprobante")
	root.CreateAttr("xmlns:cfdi", NamespaceCFDI)
	root.CreateAttr("xmlns:xsi", nsXsi)
	root.CreateAttr("xsi:schemaLocation", schemaLocation)
	root.CreateAttr("Version", sat.CFDIVersion)
	if b.issuer.Series != "" {
		root.CreateAttr("Serie", b.issuer.Series)
	}
	root.CreateAttr("Folio", folio)
	root.CreateAttr("Fecha", b.now().Format(dateLayout))
	root.CreateAttr("FormaPago", "99")
	root.CreateAttr("SubTotal", money(s.TotalCost))
	root.CreateAttr("Moneda", sat.CurrencyMXN)
	root.CreateAttr("Total", money(s.TotalCost))
	root.CreateAttr("TipoDeComprobante", sat.VoucherTypeIncome)
	root.CreateAttr("Exportacion", sat.ExportNone)
	root.CreateAttr("MetodoPago", sat.PaymentMethodSingle)
	root.CreateAttr("LugarExpedicion", b.issuer.Zip)

	emisor := root.CreateElement("cfdi:Emisor")
	emisor.CreateAttr("Rfc", b.issuer.RFC)
	emisor.CreateAttr("Nombre", sat.NormalizeName(b.issuer.Name))
	emisor.CreateAttr("RegimenFiscal", b.issuer.Regime)

	cfdiUse := c.CFDIUse
	if cfdiUse == "" {
		cfdiUse = sat.DefaultCFDIUse
	}
	receptor := root.CreateElement("cfdi:Receptor")
	receptor.CreateAttr("Rfc", c.RFC)
	receptor.CreateAttr("Nombre", sat.NormalizeName(c.Name))
	receptor.CreateAttr("DomicilioFiscalReceptor", c.ZipCode)
	receptor.CreateAttr("RegimenFiscalReceptor", c.TaxRegime)
	receptor.CreateAttr("UsoCFDI", cfdiUse)

	conceptos := root.CreateElement("cfdi:Conceptos")
	base := decimal.Zero
	for _, l := range s.Lines {
		concepto := conceptos.CreateElement("cfdi:Concepto")
		concepto.CreateAttr("ClaveProdServ", l.SATProductCode)
		concepto.CreateAttr("Cantidad", money(l.WeightTotal))
		concepto.CreateAttr("ClaveUnidad", l.SATUnitCode)
		concepto.CreateAttr("Descripcion", fmt.Sprintf("%s (%d cajas)", l.ProductName, l.BoxCount))
		concepto.CreateAttr("ValorUnitario", money(l.PricePerKilo))
		concepto.CreateAttr("Importe", money(l.Subtotal))
		concepto.CreateAttr("ObjetoImp", sat.TaxObjectYes)
		writeTransfer(concepto.CreateElement("cfdi:Impuestos").CreateElement("cfdi:Traslados").CreateElement("cfdi:Traslado"), l.Subtotal)
		base = base.Add(l.Subtotal)
	}

	impuestos := root.CreateElement("cfdi:Impuestos")
	impuestos.CreateAttr("TotalImpuestosTrasladados", money(decimal.Zero))
	writeTransfer(impuestos.CreateElement("cfdi:Traslados").CreateElement("cfdi:Traslado"), base)

	if b.sealer != nil {
		if err := b.sealer.Seal(doc); err != nil {
			return nil, fmt.Errorf("sellar CFDI: %w", err)
		}
	}

	doc.Indent(2)
	xmlBytes, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("serializar CFDI: %w", err)
	}
	return &billing.TaxDocument{
		ShipmentID: s.ID,
		Series:     b.issuer.Series,
		Folio:      folio,
		XML:        xmlBytes,
	}, nil
}

// writeTransfer traslado de IVA tasa 0: Base = importe, Importe = 0.00.
func writeTransfer(el *etree.Element, amount decimal.Decimal) {
	el.CreateAttr("Base", money(amount))
	el.CreateAttr("Impuesto", sat.TaxIVA)
	el.CreateAttr("TipoFactor", sat.FactorRate)
	el.CreateAttr("TasaOCuota", TasaCero)
	el.CreateAttr("Importe", money(decimal.Zero))
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
