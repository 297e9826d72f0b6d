package domain

import (
	"errors"
	"fmt"
)

// Kind clasifica los errores de dominio para traducirlos en la frontera de cada operación.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindBusinessRule
	KindExternal
)

// Error es un error de dominio con categoría y código estable (expuesto en respuestas HTTP).
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

func newError(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

// Errores de dominio (sin dependencias externas).
var (
	ErrInvalidInput       = newError(KindValidation, "VALIDATION", "entrada inválida")
	ErrMissingWeightInput = newError(KindValidation, "MISSING_WEIGHT_INPUT", "faltan los pesos requeridos por el modo de pesaje")
	ErrLineCountMismatch  = newError(KindValidation, "LINE_COUNT_MISMATCH", "el número de pesos no coincide con el número de cajas")
	ErrInvalidPrice       = newError(KindValidation, "INVALID_PRICE", "el precio por kilo debe ser mayor a cero")
	ErrInvalidBoxCount    = newError(KindValidation, "INVALID_BOX_COUNT", "el número de cajas debe ser mayor a cero")
	ErrWeightBelowTare    = newError(KindValidation, "WEIGHT_BELOW_TARE", "la lectura de báscula no supera la tara de la caja")
	ErrNoValidLines       = newError(KindValidation, "NO_VALID_LINES", "ninguna línea de la remisión es válida")

	ErrNotFound         = newError(KindNotFound, "NOT_FOUND", "recurso no encontrado")
	ErrProductNotFound  = newError(KindNotFound, "PRODUCT_NOT_FOUND", "producto no encontrado")
	ErrSupplierNotFound = newError(KindNotFound, "SUPPLIER_NOT_FOUND", "proveedor no encontrado")
	ErrClientNotFound   = newError(KindNotFound, "CLIENT_NOT_FOUND", "cliente no encontrado")
	ErrReceiptNotFound  = newError(KindNotFound, "RECEIPT_NOT_FOUND", "entrada de inventario no encontrada")
	ErrShipmentNotFound = newError(KindNotFound, "SHIPMENT_NOT_FOUND", "remisión no encontrada")
	ErrLineNotFound     = newError(KindNotFound, "LINE_NOT_FOUND", "línea de remisión no encontrada")
	ErrPaymentNotFound  = newError(KindNotFound, "PAYMENT_NOT_FOUND", "pago no encontrado")

	ErrDuplicate           = newError(KindConflict, "DUPLICATE", "recurso duplicado")
	ErrAlreadyInvoiced     = newError(KindConflict, "ALREADY_INVOICED", "la remisión ya fue facturada")
	ErrInvoicingInProgress = newError(KindConflict, "INVOICING_IN_PROGRESS", "la remisión se está facturando")

	ErrInsufficientStock = newError(KindBusinessRule, "INSUFFICIENT_STOCK", "stock insuficiente")
	ErrNotFullyPaid      = newError(KindBusinessRule, "NOT_FULLY_PAID", "la remisión no está pagada por completo")
)

// ExternalServiceError falla del proveedor de timbrado (PAC); conserva su código numérico.
type ExternalServiceError struct {
	Code    int
	Message string
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("proveedor de timbrado [%d]: %s", e.Code, e.Message)
}

// KindOf devuelve la categoría del error; KindInternal si no es un error de dominio.
func KindOf(err error) Kind {
	var ext *ExternalServiceError
	if errors.As(err, &ext) {
		return KindExternal
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// CodeOf devuelve el código estable del error ("INTERNAL" si no es de dominio).
func CodeOf(err error) string {
	var ext *ExternalServiceError
	if errors.As(err, &ext) {
		return "EXTERNAL_SERVICE"
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return "INTERNAL"
}

// LineError error de una línea concreta de un documento (índice base 0).
type LineError struct {
	Index int
	Err   error
}

// LinesError agrupa los errores por línea cuando ninguna línea pudo aplicarse.
// errors.Is(err, ErrNoValidLines) es verdadero.
type LinesError struct {
	Lines []LineError
}

func (e *LinesError) Error() string {
	return fmt.Sprintf("%s (%d líneas rechazadas)", ErrNoValidLines.Message, len(e.Lines))
}

func (e *LinesError) Unwrap() error { return ErrNoValidLines }
