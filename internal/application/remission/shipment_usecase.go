package remission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/remisiones-api/internal/application/dto"
	appinv "github.com/jhoicas/remisiones-api/internal/application/inventory"
	"github.com/jhoicas/remisiones-api/internal/application/ports"
	"github.com/jhoicas/remisiones-api/internal/domain"
	"github.com/jhoicas/remisiones-api/internal/domain/entity"
	"github.com/jhoicas/remisiones-api/internal/domain/inventory"
	"github.com/jhoicas/remisiones-api/internal/domain/repository"
	"github.com/jhoicas/remisiones-api/pkg/logger"
)

// ShipmentUseCase motor de remisiones: crea con tolerancia por línea, edita líneas con
// delta de existencias y borra con movimientos compensatorios.
type ShipmentUseCase struct {
	tx       ports.TxRunner
	repos    repository.Repositories
	ledger   *appinv.StockLedger
	claimTTL time.Duration
	log      *logger.Logger
}

// NewShipmentUseCase construye el caso de uso. claimTTL es la vigencia del reclamo de
// facturación: mientras esté vigente la remisión no se puede editar ni borrar.
func NewShipmentUseCase(
	tx ports.TxRunner,
	repos repository.Repositories,
	ledger *appinv.StockLedger,
	claimTTL time.Duration,
	log *logger.Logger,
) *ShipmentUseCase {
	return &ShipmentUseCase{
		tx:       tx,
		repos:    repos,
		ledger:   ledger,
		claimTTL: claimTTL,
		log:      log.Component("remission"),
	}
}

// Create procesa las líneas en orden (Validating → StockChecked → Committed | Rejected).
// Las líneas rechazadas se devuelven en Errors y no afectan totales ni existencias.
// Si ninguna línea se aplica se hace rollback y se devuelve *domain.LinesError.
func (uc *ShipmentUseCase) Create(ctx context.Context, userID string, in dto.CreateShipmentRequest) (*dto.ShipmentResponse, error) {
	if in.ClientID <= 0 || len(in.Lines) == 0 {
		return nil, domain.ErrInvalidInput
	}
	var (
		out      *entity.Shipment
		rejected []domain.LineError
	)
	err := uc.tx.Run(ctx, func(repos repository.Repositories) error {
		rejected = nil
		client, err := repos.Clients.GetByID(ctx, in.ClientID)
		if err != nil {
			return err
		}
		if client == nil {
			return domain.ErrClientNotFound
		}

		now := time.Now()
		shipment := &entity.Shipment{
			ClientID:         client.ID,
			Date:             now,
			ShouldBeInvoiced: true,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if in.Date != nil {
			shipment.Date = *in.Date
		}
		if err := repos.Shipments.Create(ctx, shipment); err != nil {
			return err
		}

		for i, l := range in.Lines {
			line, err := uc.commitLine(ctx, repos, shipment.ID, i, l, userID)
			if err != nil {
				if !isLineError(err) {
					return err
				}
				rejected = append(rejected, domain.LineError{Index: i, Err: err})
				uc.log.Debug().Int("index", i).Err(err).Msg("línea rechazada")
				continue
			}
			shipment.Lines = append(shipment.Lines, *line)
		}
		if len(shipment.Lines) == 0 {
			return &domain.LinesError{Lines: rejected}
		}

		shipment.RecomputeTotals()
		if err := repos.Shipments.UpdateTotals(ctx, shipment); err != nil {
			return err
		}
		out = shipment
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Int64("shipment_id", out.ID).
		Int("lines", len(out.Lines)).
		Int("rejected", len(rejected)).
		Str("total_cost", out.TotalCost.StringFixed(2)).
		Msg("remisión creada")
	resp := toShipmentResponse(out)
	resp.Errors = ToLineErrorResponses(rejected)
	return resp, nil
}

// commitLine valida, pesa y aplica una línea. Los errores de línea se devuelven antes de
// cualquier escritura, así una línea rechazada no deja rastro en la transacción.
func (uc *ShipmentUseCase) commitLine(
	ctx context.Context,
	repos repository.Repositories,
	shipmentID int64,
	pos int,
	in dto.ShipmentLineRequest,
	userID string,
) (*entity.ShipmentLine, error) {
	// Validating
	if in.ProductID <= 0 || in.SupplierID <= 0 {
		return nil, fmt.Errorf("%w: producto y proveedor son obligatorios", domain.ErrInvalidInput)
	}
	if in.BoxCount <= 0 {
		return nil, domain.ErrInvalidBoxCount
	}
	// NUMERIC(14,2): el subtotal se calcula con el precio tal como se guarda
	in.PricePerKilo = in.PricePerKilo.Round(2)
	if !in.PricePerKilo.IsPositive() {
		return nil, domain.ErrInvalidPrice
	}
	supplier, err := repos.Suppliers.GetByID(ctx, in.SupplierID)
	if err != nil {
		return nil, err
	}
	if supplier == nil {
		return nil, domain.ErrSupplierNotFound
	}
	weight, err := inventory.Weigh(inventory.WeighingInput{
		BoxCount:    in.BoxCount,
		IsByBox:     in.IsByBox,
		BoxWeights:  in.BoxWeights,
		WeightTotal: in.WeightTotal,
	})
	if err != nil {
		return nil, err
	}

	// StockChecked
	product, err := uc.ledger.Lock(ctx, repos, in.ProductID)
	if err != nil {
		return nil, err
	}
	if !inventory.NewStockAccount(product).CanWithdraw(in.BoxCount) {
		return nil, fmt.Errorf("%w: producto %d tiene %d cajas, se requieren %d",
			domain.ErrInsufficientStock, product.ID, product.CurrentStock, in.BoxCount)
	}

	// Committed
	if _, err := uc.ledger.Post(ctx, repos, appinv.Posting{
		ProductID:     product.ID,
		Kind:          entity.MovementKindRemission,
		Quantity:      -in.BoxCount,
		Reason:        entity.ReasonRemission,
		ReferenceType: entity.ReferenceShipment,
		ReferenceID:   shipmentID,
		Actor:         userID,
	}); err != nil {
		return nil, err
	}
	line := &entity.ShipmentLine{
		ShipmentID:            shipmentID,
		Position:              pos,
		ProductID:             product.ID,
		SupplierID:            supplier.ID,
		BoxCount:              in.BoxCount,
		IsByBox:               in.IsByBox,
		WeightTotal:           weight.NetWeight,
		EstimatedWeightPerBox: weight.EstimatedWeightPerBox,
		PricePerKilo:          in.PricePerKilo,
		Subtotal:              inventory.LineAmount(weight.NetWeight, in.PricePerKilo),
		ProductName:           product.Name,
		SATProductCode:        product.SATProductCode,
		SATUnitCode:           product.SATUnitCode,
		BoxWeights:            boxWeights(in.IsByBox, in.BoxWeights),
	}
	if err := repos.Shipments.CreateLine(ctx, line); err != nil {
		return nil, err
	}
	return line, nil
}

// UpdateLine cambia cajas, pesaje y precio de una línea. El delta de cajas pasa por el
// libro (ADJUSTMENT_OUT si aumenta, ADJUSTMENT_IN si disminuye) y se recalculan los
// totales de la cabecera y el estado de pago.
func (uc *ShipmentUseCase) UpdateLine(
	ctx context.Context,
	shipmentID, lineID int64,
	userID string,
	in dto.UpdateShipmentLineRequest,
) (*dto.ShipmentResponse, error) {
	if in.BoxCount <= 0 {
		return nil, domain.ErrInvalidBoxCount
	}
	// NUMERIC(14,2): el subtotal se calcula con el precio tal como se guarda
	in.PricePerKilo = in.PricePerKilo.Round(2)
	if !in.PricePerKilo.IsPositive() {
		return nil, domain.ErrInvalidPrice
	}
	weight, err := inventory.Weigh(inventory.WeighingInput{
		BoxCount:    in.BoxCount,
		IsByBox:     in.IsByBox,
		BoxWeights:  in.BoxWeights,
		WeightTotal: in.WeightTotal,
	})
	if err != nil {
		return nil, err
	}

	var out *entity.Shipment
	err = uc.tx.Run(ctx, func(repos repository.Repositories) error {
		shipment, err := uc.lockEditable(ctx, repos, shipmentID)
		if err != nil {
			return err
		}
		idx, ok := shipment.Line(lineID)
		if !ok {
			return domain.ErrLineNotFound
		}
		line := shipment.Lines[idx]

		if diff := in.BoxCount - line.BoxCount; diff != 0 {
			kind := entity.MovementKindAdjustmentOut
			if diff < 0 {
				kind = entity.MovementKindAdjustmentIn
			}
			if _, err := uc.ledger.Post(ctx, repos, appinv.Posting{
				ProductID:     line.ProductID,
				Kind:          kind,
				Quantity:      -diff,
				Reason:        entity.ReasonRemissionLineEdited,
				ReferenceType: entity.ReferenceShipment,
				ReferenceID:   shipment.ID,
				Actor:         userID,
			}); err != nil {
				return err
			}
		}

		line.BoxCount = in.BoxCount
		line.IsByBox = in.IsByBox
		line.WeightTotal = weight.NetWeight
		line.EstimatedWeightPerBox = weight.EstimatedWeightPerBox
		line.PricePerKilo = in.PricePerKilo
		line.Subtotal = inventory.LineAmount(weight.NetWeight, in.PricePerKilo)
		line.BoxWeights = boxWeights(in.IsByBox, in.BoxWeights)
		for i := range line.BoxWeights {
			line.BoxWeights[i].ShipmentLineID = line.ID
		}
		if err := repos.Shipments.UpdateLine(ctx, &line); err != nil {
			return err
		}
		shipment.Lines[idx] = line

		shipment.RecomputeTotals()
		allocated, err := repos.Payments.SumAllocated(ctx, shipment.ID)
		if err != nil {
			return err
		}
		shipment.ApplyAllocated(allocated)
		shipment.UpdatedAt = time.Now()
		if err := repos.Shipments.UpdateTotals(ctx, shipment); err != nil {
			return err
		}
		out = shipment
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Int64("shipment_id", shipmentID).Int64("line_id", lineID).Msg("línea de remisión actualizada")
	return toShipmentResponse(out), nil
}

// Delete devuelve las cajas de cada línea con ADJUSTMENT_IN y borra en cascada explícita:
// asignaciones de pago, líneas (con pesos por caja) y cabecera.
func (uc *ShipmentUseCase) Delete(ctx context.Context, id int64, userID string) error {
	err := uc.tx.Run(ctx, func(repos repository.Repositories) error {
		shipment, err := uc.lockEditable(ctx, repos, id)
		if err != nil {
			return err
		}
		for _, l := range shipment.Lines {
			if _, err := uc.ledger.Post(ctx, repos, appinv.Posting{
				ProductID:     l.ProductID,
				Kind:          entity.MovementKindAdjustmentIn,
				Quantity:      l.BoxCount,
				Reason:        entity.ReasonRemissionDeleted,
				ReferenceType: entity.ReferenceShipment,
				ReferenceID:   shipment.ID,
				Actor:         userID,
			}); err != nil {
				return err
			}
		}
		if err := repos.Payments.DeleteAllocationsByShipment(ctx, shipment.ID); err != nil {
			return err
		}
		if err := repos.Shipments.DeleteLines(ctx, shipment.ID); err != nil {
			return err
		}
		return repos.Shipments.Delete(ctx, shipment.ID)
	})
	if err != nil {
		return err
	}
	uc.log.Info().Int64("shipment_id", id).Msg("remisión eliminada")
	return nil
}

// lockEditable bloquea la remisión y verifica que no esté facturada ni en facturación.
func (uc *ShipmentUseCase) lockEditable(ctx context.Context, repos repository.Repositories, id int64) (*entity.Shipment, error) {
	shipment, err := repos.Shipments.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if shipment == nil {
		return nil, domain.ErrShipmentNotFound
	}
	if shipment.IsInvoiced() {
		return nil, domain.ErrAlreadyInvoiced
	}
	if shipment.ClaimActive(time.Now(), uc.claimTTL) {
		return nil, domain.ErrInvoicingInProgress
	}
	return shipment, nil
}

// GetByID obtiene una remisión con líneas y pesos por caja.
func (uc *ShipmentUseCase) GetByID(ctx context.Context, id int64) (*dto.ShipmentResponse, error) {
	shipment, err := uc.repos.Shipments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if shipment == nil {
		return nil, domain.ErrShipmentNotFound
	}
	return toShipmentResponse(shipment), nil
}

// List lista remisiones filtrando por cliente, pagada y facturada.
func (uc *ShipmentUseCase) List(ctx context.Context, in dto.ShipmentListRequest) (*dto.ShipmentListResponse, error) {
	in.DefaultPage()
	list, err := uc.repos.Shipments.List(ctx, repository.ShipmentFilter{
		ClientID: in.ClientID,
		IsPaid:   in.IsPaid,
		Invoiced: in.Invoiced,
	}, in.Limit, in.Offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ShipmentResponse, 0, len(list))
	for _, s := range list {
		items = append(items, *toShipmentResponse(s))
	}
	return &dto.ShipmentListResponse{Items: items, Page: dto.PageResponse{Limit: in.Limit, Offset: in.Offset}}, nil
}

// isLineError indica si el error descalifica solo la línea (y no toda la remisión).
func isLineError(err error) bool {
	var de *domain.Error
	if !errors.As(err, &de) {
		return false
	}
	switch de.Kind {
	case domain.KindValidation, domain.KindNotFound, domain.KindBusinessRule:
		return true
	}
	return false
}
