package inventory

import (
	"github.com/jhoicas/remisiones-api/internal/domain"
	"github.com/shopspring/decimal"
)

// TareKg peso fijo del empaque que se descuenta por caja.
var TareKg = decimal.NewFromInt(2)

// WeighingInput datos de pesaje de una línea de remisión.
// IsByBox=true exige BoxWeights (una lectura por caja); IsByBox=false exige WeightTotal.
type WeighingInput struct {
	BoxCount    int
	IsByBox     bool
	BoxWeights  []decimal.Decimal
	WeightTotal *decimal.Decimal
}

// WeighingResult peso neto de la línea y estimado por caja (solo modo total declarado).
type WeighingResult struct {
	NetWeight             decimal.Decimal
	EstimatedWeightPerBox decimal.Decimal
}

// Weigh calcula el peso neto según la política de pesaje (servicio de dominio puro).
//
//	Por caja:        Neto = Σ(PesoBruto_i − Tara)
//	Total declarado: EstimadoPorCaja = round2((Total − Cajas×Tara) / Cajas), Neto = Total
func Weigh(in WeighingInput) (WeighingResult, error) {
	if in.BoxCount <= 0 {
		return WeighingResult{}, domain.ErrInvalidBoxCount
	}
	if in.IsByBox {
		return weighByBox(in)
	}
	return weighDeclared(in)
}

func weighByBox(in WeighingInput) (WeighingResult, error) {
	if len(in.BoxWeights) == 0 {
		return WeighingResult{}, domain.ErrMissingWeightInput
	}
	if len(in.BoxWeights) != in.BoxCount {
		return WeighingResult{}, domain.ErrLineCountMismatch
	}
	net := decimal.Zero
	for _, raw := range in.BoxWeights {
		if !raw.GreaterThan(decimal.Zero) {
			return WeighingResult{}, domain.ErrInvalidInput
		}
		// cada caja debe aportar peso neto positivo
		if !raw.GreaterThan(TareKg) {
			return WeighingResult{}, domain.ErrWeightBelowTare
		}
		net = net.Add(raw.Sub(TareKg))
	}
	return WeighingResult{
		NetWeight:             Round2(net),
		EstimatedWeightPerBox: decimal.Zero,
	}, nil
}

func weighDeclared(in WeighingInput) (WeighingResult, error) {
	if in.WeightTotal == nil {
		return WeighingResult{}, domain.ErrMissingWeightInput
	}
	total := *in.WeightTotal
	if !total.GreaterThan(decimal.Zero) {
		return WeighingResult{}, domain.ErrInvalidInput
	}
	boxes := decimal.NewFromInt(int64(in.BoxCount))
	estimated := total.Sub(boxes.Mul(TareKg)).Div(boxes)
	return WeighingResult{
		NetWeight:             Round2(total),
		EstimatedWeightPerBox: Round2(estimated),
	}, nil
}

// Round2 redondea a 2 decimales, mitad hacia arriba (montos y pesos).
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// LineAmount importe de una línea: round2(peso neto × precio por kilo).
func LineAmount(netWeight, pricePerKilo decimal.Decimal) decimal.Decimal {
	return Round2(netWeight.Mul(pricePerKilo))
}
