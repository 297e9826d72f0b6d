// Package sat contiene los catálogos y validaciones del SAT usados al registrar
// clientes, pagos y al armar el CFDI 4.0.
package sat

import (
	"regexp"
	"strings"
)

// Formas de pago (c_FormaPago).
var paymentForms = map[string]string{
	"01": "Efectivo",
	"02": "Cheque nominativo",
	"03": "Transferencia electrónica de fondos",
	"04": "Tarjeta de crédito",
	"05": "Monedero electrónico",
	"06": "Dinero electrónico",
	"08": "Vales de despensa",
	"12": "Dación en pago",
	"13": "Pago por subrogación",
	"14": "Pago por consignación",
	"15": "Condonación",
	"17": "Compensación",
	"23": "Novación",
	"24": "Confusión",
	"25": "Remisión de deuda",
	"26": "Prescripción o caducidad",
	"27": "A satisfacción del acreedor",
	"28": "Tarjeta de débito",
	"29": "Tarjeta de servicios",
	"30": "Aplicación de anticipos",
	"31": "Intermediario pagos",
	"99": "Por definir",
}

// IsPaymentForm indica si code pertenece al catálogo c_FormaPago.
func IsPaymentForm(code string) bool {
	_, ok := paymentForms[code]
	return ok
}

// PaymentFormName descripción de la forma de pago ("" si no existe).
func PaymentFormName(code string) string {
	return paymentForms[code]
}

// Claves fijas del comprobante de venta de huevo (tasa 0 de IVA).
const (
	CFDIVersion         = "4.0"
	VoucherTypeIncome   = "I"
	CurrencyMXN         = "MXN"
	ExportNone          = "01"
	PaymentMethodSingle = "PUE" // pago en una sola exhibición
	TaxObjectYes        = "02"
	TaxIVA              = "002"
	FactorRate          = "Tasa"
	DefaultCFDIUse      = "G01"
)

// GenericRFCs RFC genéricos: público en general y extranjeros.
const (
	GenericRFCNational = "XAXX010101000"
	GenericRFCForeign  = "XEXX010101000"
)

var rfcPattern = regexp.MustCompile(`^[A-ZÑ&]{3,4}[0-9]{6}[A-Z0-9]{3}$`)

// ValidRFC valida la estructura del RFC (12 caracteres persona moral, 13 persona física).
func ValidRFC(rfc string) bool {
	return rfcPattern.MatchString(strings.ToUpper(strings.TrimSpace(rfc)))
}
