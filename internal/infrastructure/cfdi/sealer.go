package cfdi

import (
	"bytes"
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"os"

	"github.com/beevik/etree"
	"github.com/ucarion/c14n"
	"golang.org/x/crypto/pkcs12"
)

// Sealer sella el comprobante con el CSD del emisor (RSA-SHA256 sobre el XML canónico).
type Sealer struct {
	key  *rsa.PrivateKey
	cert *x509.Certificate
}

// NewSealer crea el sellador a partir de llave y certificado ya cargados.
func NewSealer(key *rsa.PrivateKey, cert *x509.Certificate) (*Sealer, error) {
	if key == nil || cert == nil {
		return nil, errors.New("cfdi: llave y certificado son obligatorios")
	}
	return &Sealer{key: key, cert: cert}, nil
}

// LoadSealer carga el CSD desde un archivo .p12/.pfx.
// El password puede ser vacío si el archivo no está protegido.
func LoadSealer(path, password string) (*Sealer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("leer p12: %w", err)
	}
	priv, cert, err := pkcs12.Decode(data, password)
	if err != nil {
		return nil, fmt.Errorf("decodificar p12: %w", err)
	}
	key, ok := priv.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("cfdi: el CSD debe incluir llave privada RSA")
	}
	return NewSealer(key, cert)
}

// CertificateNumber NoCertificado: el SAT codifica los 20 dígitos como ASCII dentro del serial.
func (s *Sealer) CertificateNumber() string {
	raw := s.cert.SerialNumber.Bytes()
	for _, b := range raw {
		if b < '0' || b > '9' {
			return s.cert.SerialNumber.String()
		}
	}
	return string(raw)
}

// Seal agrega NoCertificado, Certificado y Sello a la raíz del documento.
// El sello se calcula sobre la forma canónica (C14N) sin el atributo Sello.
func (s *Sealer) Seal(doc *etree.Document) error {
	root := doc.Root()
	if root == nil {
		return errors.New("cfdi: documento sin raíz")
	}
	root.RemoveAttr("Sello")
	root.CreateAttr("NoCertificado", s.CertificateNumber())
	root.CreateAttr("Certificado", base64.StdEncoding.EncodeToString(s.cert.Raw))

	canonical, err := canonicalRoot(root)
	if err != nil {
		return fmt.Errorf("c14n: %w", err)
	}
	digest := sha256.Sum256(canonical)
	sig, err := rsa.SignPKCS1v15(nil, s.key, crypto.SHA256, digest[:])
	if err != nil {
		return fmt.Errorf("firmar: %w", err)
	}
	root.CreateAttr("Sello", base64.StdEncoding.EncodeToString(sig))
	return nil
}

// Verify comprueba el sello de un XML producido por Seal.
func (s *Sealer) Verify(xmlBytes []byte) error {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(xmlBytes); err != nil {
		return fmt.Errorf("parsear XML: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return errors.New("cfdi: documento sin raíz")
	}
	sello := root.SelectAttrValue("Sello", "")
	if sello == "" {
		return errors.New("cfdi: documento sin sello")
	}
	sig, err := base64.StdEncoding.DecodeString(sello)
	if err != nil {
		return fmt.Errorf("sello inválido: %w", err)
	}
	root.RemoveAttr("Sello")
	doc.Unindent()
	canonical, err := canonicalRoot(root)
	if err != nil {
		return fmt.Errorf("c14n: %w", err)
	}
	digest := sha256.Sum256(canonical)
	pub, ok := s.cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return errors.New("cfdi: el certificado no tiene llave pública RSA")
	}
	return rsa.VerifyPKCS1v15(pub, crypto.SHA256, digest[:], sig)
}

// canonicalRoot forma C14N del elemento raíz, sin declaración XML.
func canonicalRoot(root *etree.Element) ([]byte, error) {
	d := etree.NewDocument()
	d.SetRoot(root.Copy())
	raw, err := d.WriteToBytes()
	if err != nil {
		return nil, err
	}
	return canonicalize(raw)
}

func canonicalize(data []byte) ([]byte, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Entity = map[string]string{}
	return c14n.Canonicalize(dec)
}
