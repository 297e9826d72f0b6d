package cfdi_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/remisiones-api/internal/application/billing"
	"github.com/jhoicas/remisiones-api/internal/domain"
	"github.com/jhoicas/remisiones-api/internal/domain/entity"
	"github.com/jhoicas/remisiones-api/internal/infrastructure/cfdi"
)

var issuer = cfdi.Issuer{RFC: "EKU9003173C9", Name: "Escuela Kemper Urgate S.A. de C.V.", Regime: "601", Zip: "42501", Series: "R"}

func sampleShipment() (*entity.Shipment, *entity.Client) {
	d := decimal.RequireFromString
	s := &entity.Shipment{
		ID:        17,
		ClientID:  3,
		TotalCost: d("1675.00"),
		Lines: []entity.ShipmentLine{
			{ProductName: "Blanco Jumbo", SATProductCode: "50131700", SATUnitCode: "KGM", BoxCount: 3,
				WeightTotal: d("27"), PricePerKilo: d("25"), Subtotal: d("675.00")},
			{ProductName: "Rojo Grande", SATProductCode: "50131701", SATUnitCode: "KGM", BoxCount: 4,
				WeightTotal: d("40"), PricePerKilo: d("25"), Subtotal: d("1000.00")},
		},
	}
	c := &entity.Client{Name: "abarrotes   lupita s.a. de c.v.", RFC: "GODE561231GR8", TaxRegime: "612", ZipCode: "06000"}
	return s, c
}

func testSealer(t *testing.T) *cfdi.Sealer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	serial := new(big.Int).SetBytes([]byte("30001000000500003416"))
	tmpl := &x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: issuer.Name},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	sealer, err := cfdi.NewSealer(key, cert)
	require.NoError(t, err)
	return sealer
}

func TestBuilder_Comprobante(t *testing.T) {
	s, c := sampleShipment()
	doc, err := cfdi.NewBuilder(issuer, nil).Build(s, c)
	require.NoError(t, err)
	assert.Equal(t, "17", doc.Folio)
	assert.Equal(t, "R", doc.Series)

	x := etree.NewDocument()
	require.NoError(t, x.ReadFromBytes(doc.XML))
	root := x.Root()
	require.NotNil(t, root)
	assert.Equal(t, "4.0", root.SelectAttrValue("Version", ""))
	assert.Equal(t, "1675.00", root.SelectAttrValue("SubTotal", ""))
	assert.Equal(t, "1675.00", root.SelectAttrValue("Total", ""))
	assert.Equal(t, "I", root.SelectAttrValue("TipoDeComprobante", ""))
	assert.Empty(t, root.SelectAttrValue("Sello", ""))

	receptor := root.SelectElement("cfdi:Receptor")
	require.NotNil(t, receptor)
	assert.Equal(t, "ABARROTES LUPITA", receptor.SelectAttrValue("Nombre", ""))
	assert.Equal(t, "G01", receptor.SelectAttrValue("UsoCFDI", ""))

	conceptos := root.FindElements("cfdi:Conceptos/cfdi:Concepto")
	require.Len(t, conceptos, 2)
	assert.Equal(t, "50131700", conceptos[0].SelectAttrValue("ClaveProdServ", ""))
	assert.Equal(t, "27.00", conceptos[0].SelectAttrValue("Cantidad", ""))
	assert.Equal(t, "25.00", conceptos[0].SelectAttrValue("ValorUnitario", ""))
	assert.Equal(t, "675.00", conceptos[0].SelectAttrValue("Importe", ""))
	assert.Equal(t, "02", conceptos[0].SelectAttrValue("ObjetoImp", ""))

	traslado := root.FindElement("cfdi:Impuestos/cfdi:Traslados/cfdi:Traslado")
	require.NotNil(t, traslado)
	assert.Equal(t, "1675.00", traslado.SelectAttrValue("Base", ""))
	assert.Equal(t, cfdi.TasaCero, traslado.SelectAttrValue("TasaOCuota", ""))
}

func TestBuilder_SinLineas(t *testing.T) {
	_, c := sampleShipment()
	_, err := cfdi.NewBuilder(issuer, nil).Build(&entity.Shipment{ID: 1}, c)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSealer_SellaYVerifica(t *testing.T) {
	sealer := testSealer(t)
	s, c := sampleShipment()
	doc, err := cfdi.NewBuilder(issuer, sealer).Build(s, c)
	require.NoError(t, err)

	x := etree.NewDocument()
	require.NoError(t, x.ReadFromBytes(doc.XML))
	assert.Equal(t, "30001000000500003416", x.Root().SelectAttrValue("NoCertificado", ""))
	assert.NotEmpty(t, x.Root().SelectAttrValue("Sello", ""))
	require.NoError(t, sealer.Verify(doc.XML))

	// alterar un importe rompe el sello
	x.Root().SelectAttr("Total").Value = "1.00"
	tampered, err := x.WriteToBytes()
	require.NoError(t, err)
	assert.Error(t, sealer.Verify(tampered))
}

func TestMockStamper_AgregaTimbre(t *testing.T) {
	s, c := sampleShipment()
	doc, err := cfdi.NewBuilder(issuer, nil).Build(s, c)
	require.NoError(t, err)

	res, err := cfdi.NewMockStamper().Stamp(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, "R-17", res.Folio)
	assert.Len(t, res.UUID, 36)

	x := etree.NewDocument()
	require.NoError(t, x.ReadFromBytes(res.Artifact))
	tfd := x.FindElement("//tfd:TimbreFiscalDigital")
	require.NotNil(t, tfd)
	assert.Equal(t, res.UUID, tfd.SelectAttrValue("UUID", ""))
}

func TestPACClient_Exito(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cfdi/stamp", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "pac-user", user)
		assert.Equal(t, "secret", pass)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"uuid":       "6F1B1C8E-1D3A-4F5E-9A2B-3C4D5E6F7A8B",
			"stamped_at": "2026-10-17T10:11:12Z",
			"xml":        base64.StdEncoding.EncodeToString([]byte("<cfdi:Comprobante/>")),
		})
	}))
	defer srv.Close()

	c := cfdi.NewPACClient(cfdi.PACConfig{BaseURL: srv.URL, User: "pac-user", Token: "secret", Rate: 100, Burst: 1})
	res, err := c.Stamp(context.Background(), &billing.TaxDocument{ShipmentID: 9, Series: "R", Folio: "9", XML: []byte("<x/>")})
	require.NoError(t, err)
	assert.Equal(t, "R-9", res.Folio)
	assert.Equal(t, "6F1B1C8E-1D3A-4F5E-9A2B-3C4D5E6F7A8B", res.UUID)
	assert.Equal(t, 2026, res.StampedAt.Year())
	assert.Equal(t, "<cfdi:Comprobante/>", string(res.Artifact))
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("<x/>")), got["xml"])
}

func TestPACClient_Rechazo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"code":301,"message":"XML mal formado"}`))
	}))
	defer srv.Close()

	c := cfdi.NewPACClient(cfdi.PACConfig{BaseURL: srv.URL, Token: "t"})
	_, err := c.Stamp(context.Background(), &billing.TaxDocument{XML: []byte("<x/>")})
	var ext *domain.ExternalServiceError
	require.True(t, errors.As(err, &ext))
	assert.Equal(t, 301, ext.Code)
	assert.Equal(t, "XML mal formado", ext.Message)
}

func TestPACClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := cfdi.NewPACClient(cfdi.PACConfig{BaseURL: srv.URL}).Stamp(ctx, &billing.TaxDocument{XML: []byte("<x/>")})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
