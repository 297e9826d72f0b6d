package inventory

import (
	"context"
	"strings"

	"github.com/jhoicas/remisiones-api/internal/application/dto"
	"github.com/jhoicas/remisiones-api/internal/application/ports"
	"github.com/jhoicas/remisiones-api/internal/domain"
	"github.com/jhoicas/remisiones-api/internal/domain/entity"
	"github.com/jhoicas/remisiones-api/internal/domain/repository"
	"github.com/jhoicas/remisiones-api/pkg/logger"
)

// AdjustmentUseCase ajustes manuales de existencias (conteo físico, merma, devolución).
type AdjustmentUseCase struct {
	tx     ports.TxRunner
	ledger *StockLedger
	log    *logger.Logger
}

// NewAdjustmentUseCase construye el caso de uso.
func NewAdjustmentUseCase(tx ports.TxRunner, ledger *StockLedger, log *logger.Logger) *AdjustmentUseCase {
	return &AdjustmentUseCase{tx: tx, ledger: ledger, log: log.Component("adjustments")}
}

// Adjust registra ADJUSTMENT_IN (+cantidad) o ADJUSTMENT_OUT (−cantidad) con referencia manual.
func (uc *AdjustmentUseCase) Adjust(ctx context.Context, userID string, in dto.AdjustmentRequest) (*dto.MovementResponse, error) {
	if in.ProductID <= 0 || in.Quantity <= 0 || strings.TrimSpace(in.Reason) == "" {
		return nil, domain.ErrInvalidInput
	}
	posting := Posting{
		ProductID:     in.ProductID,
		Reason:        strings.TrimSpace(in.Reason),
		ReferenceType: entity.ReferenceManual,
		Actor:         userID,
	}
	switch in.Direction {
	case dto.AdjustmentIn:
		posting.Kind = entity.MovementKindAdjustmentIn
		posting.Quantity = in.Quantity
	case dto.AdjustmentOut:
		posting.Kind = entity.MovementKindAdjustmentOut
		posting.Quantity = -in.Quantity
	default:
		return nil, domain.ErrInvalidInput
	}

	var mov *entity.Movement
	err := uc.tx.Run(ctx, func(repos repository.Repositories) error {
		var err error
		mov, err = uc.ledger.Post(ctx, repos, posting)
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().
		Int64("product_id", mov.ProductID).
		Str("kind", mov.Kind).
		Int("quantity", mov.Quantity).
		Int("stock_after", mov.StockAfter).
		Msg("ajuste manual aplicado")
	return toMovementResponse(mov), nil
}

func toMovementResponse(m *entity.Movement) *dto.MovementResponse {
	return &dto.MovementResponse{
		ID:            m.ID,
		ProductID:     m.ProductID,
		Kind:          m.Kind,
		Quantity:      m.Quantity,
		StockAfter:    m.StockAfter,
		Reason:        m.Reason,
		ReferenceType: m.ReferenceType,
		ReferenceID:   m.ReferenceID,
		CreatedAt:     m.CreatedAt,
		CreatedBy:     m.CreatedBy,
	}
}
