package remission

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/remisiones-api/internal/application/dto"
	"github.com/jhoicas/remisiones-api/internal/domain"
	"github.com/jhoicas/remisiones-api/internal/domain/entity"
)

// ToLineErrorResponses convierte errores de línea al formato de respuesta.
func ToLineErrorResponses(errs []domain.LineError) []dto.LineErrorResponse {
	if len(errs) == 0 {
		return nil
	}
	out := make([]dto.LineErrorResponse, 0, len(errs))
	for _, e := range errs {
		out = append(out, dto.LineErrorResponse{
			Index:   e.Index,
			Code:    domain.CodeOf(e.Err),
			Message: e.Err.Error(),
		})
	}
	return out
}

func boxWeights(isByBox bool, raw []decimal.Decimal) []entity.BoxWeight {
	if !isByBox {
		return nil
	}
	out := make([]entity.BoxWeight, 0, len(raw))
	for _, w := range raw {
		out = append(out, entity.BoxWeight{Weight: w})
	}
	return out
}

func toShipmentResponse(s *entity.Shipment) *dto.ShipmentResponse {
	lines := make([]dto.ShipmentLineResponse, 0, len(s.Lines))
	for _, l := range s.Lines {
		var weights []decimal.Decimal
		for _, bw := range l.BoxWeights {
			weights = append(weights, bw.Weight)
		}
		lines = append(lines, dto.ShipmentLineResponse{
			ID:                    l.ID,
			ProductID:             l.ProductID,
			SupplierID:            l.SupplierID,
			ProductName:           l.ProductName,
			SATProductCode:        l.SATProductCode,
			SATUnitCode:           l.SATUnitCode,
			BoxCount:              l.BoxCount,
			IsByBox:               l.IsByBox,
			BoxWeights:            weights,
			WeightTotal:           l.WeightTotal,
			EstimatedWeightPerBox: l.EstimatedWeightPerBox,
			PricePerKilo:          l.PricePerKilo,
			Subtotal:              l.Subtotal,
		})
	}
	return &dto.ShipmentResponse{
		ID:               s.ID,
		ClientID:         s.ClientID,
		Date:             s.Date,
		Lines:            lines,
		WeightTotal:      s.WeightTotal,
		TotalCost:        s.TotalCost,
		IsPaid:           s.IsPaid,
		ShouldBeInvoiced: s.ShouldBeInvoiced,
		CFDIFolio:        s.CFDIFolio,
		CFDIUUID:         s.CFDIUUID,
		StampedAt:        s.StampedAt,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
}
