package cfdi

// Namespaces y ubicación de esquemas del CFDI 4.0 y del timbre fiscal.
const (
	NamespaceCFDI  = "http://www.sat.gob.mx/cfd/4"
	NamespaceTFD   = "http://www.sat.gob.mx/TimbreFiscalDigital"
	nsXsi          = "http://www.w3.org/2001/XMLSchema-instance"
	schemaLocation = "http://www.sat.gob.mx/cfd/4 http://www.sat.gob.mx/sitio_internet/cfd/4/cfdv40.xsd"

	// TasaCero tasa de IVA del huevo (alimento no procesado).
	TasaCero = "0.000000"

	dateLayout = "2006-01-02T15:04:05"
)
