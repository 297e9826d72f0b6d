package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/remisiones-api/internal/application/inventory"
	"github.com/jhoicas/remisiones-api/internal/domain/entity"
)

const (
	kardexSheet = "Kardex"
	timeLayout  = "2006-01-02 15:04:05"
)

var kardexHeaders = []string{"Fecha", "Movimiento", "Entrada", "Salida", "Saldo", "Motivo", "Documento", "Usuario"}

// KardexXLSX escribe el kardex de un producto como libro de Excel.
type KardexXLSX struct{}

var _ inventory.KardexWriter = KardexXLSX{}

// NewKardexXLSX crea el exportador.
func NewKardexXLSX() KardexXLSX { return KardexXLSX{} }

// WriteKardex: fila 1 con el producto, fila 3 encabezados, movimientos desde la fila 4.
func (KardexXLSX) WriteKardex(w io.Writer, product *entity.Product, movements []*entity.Movement) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", kardexSheet); err != nil {
		return err
	}
	_ = f.SetCellValue(kardexSheet, "A1", "Producto")
	_ = f.SetCellValue(kardexSheet, "B1", product.Name)
	_ = f.SetCellValue(kardexSheet, "D1", "Stock actual")
	_ = f.SetCellValue(kardexSheet, "E1", product.CurrentStock)

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	for i, h := range kardexHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 3)
		_ = f.SetCellValue(kardexSheet, cell, h)
	}
	if err := f.SetCellStyle(kardexSheet, "A3", "H3", bold); err != nil {
		return err
	}

	for i, m := range movements {
		row := i + 4
		var in, out int
		if m.Quantity >= 0 {
			in = m.Quantity
		} else {
			out = -m.Quantity
		}
		values := []interface{}{
			m.CreatedAt.Format(timeLayout),
			m.Kind,
			in,
			out,
			m.StockAfter,
			m.Reason,
			fmt.Sprintf("%s #%d", m.ReferenceType, m.ReferenceID),
			m.CreatedBy,
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(kardexSheet, cell, &values); err != nil {
			return fmt.Errorf("kardex fila %d: %w", row, err)
		}
	}
	_ = f.SetColWidth(kardexSheet, "A", "A", 20)
	_ = f.SetColWidth(kardexSheet, "F", "G", 32)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("escribir xlsx: %w", err)
	}
	return nil
}
