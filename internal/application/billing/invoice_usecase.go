package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/remisiones-api/internal/application/dto"
	"github.com/jhoicas/remisiones-api/internal/application/ports"
	"github.com/jhoicas/remisiones-api/internal/domain"
	"github.com/jhoicas/remisiones-api/internal/domain/entity"
	"github.com/jhoicas/remisiones-api/internal/domain/repository"
	"github.com/jhoicas/remisiones-api/pkg/logger"
)

// InvoiceConfig tiempos del guardia de facturación.
type InvoiceConfig struct {
	ClaimTTL     time.Duration // vigencia del reclamo "facturando"
	StampTimeout time.Duration // timeout propio de la llamada al PAC
}

// InvoiceUseCase garantiza a lo sumo un CFDI por remisión:
//
//	reclamo (tx + FOR UPDATE) → XML → sello → timbrado (fuera de tx) → folio (tx)
//
// El folio solo se escribe si el reclamo sigue siendo nuestro; una falla o timeout
// del PAC libera el reclamo sin tocar el folio.
type InvoiceUseCase struct {
	tx      ports.TxRunner
	builder DocumentBuilder
	stamper Stamper
	locker  Locker
	store   ArtifactStore
	cfg     InvoiceConfig
	now     func() time.Time
	log     *logger.Logger
}

// NewInvoiceUseCase construye el caso de uso. locker y store pueden ser nil.
func NewInvoiceUseCase(
	tx ports.TxRunner,
	builder DocumentBuilder,
	stamper Stamper,
	locker Locker,
	store ArtifactStore,
	cfg InvoiceConfig,
	log *logger.Logger,
) *InvoiceUseCase {
	return &InvoiceUseCase{
		tx:      tx,
		builder: builder,
		stamper: stamper,
		locker:  locker,
		store:   store,
		cfg:     cfg,
		now:     time.Now,
		log:     log.Component("billing"),
	}
}

// Issue timbra la remisión. Orden de verificación: existe, pagada, sin folio, sin reclamo vigente.
// Cualquier precondición fallida aborta sin llamar al PAC.
func (uc *InvoiceUseCase) Issue(ctx context.Context, shipmentID int64) (*dto.InvoiceResponse, error) {
	if uc.locker != nil {
		release, err := uc.locker.Acquire(ctx, fmt.Sprintf("invoice:shipment:%d", shipmentID))
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := release(context.Background()); err != nil {
				uc.log.Warn().Err(err).Int64("shipment_id", shipmentID).Msg("no se pudo liberar el candado")
			}
		}()
	}

	// ═══════════════════════════════════════════════════════════════════════
	// 1. Reclamo transaccional
	// ═══════════════════════════════════════════════════════════════════════
	token := uuid.NewString()
	shipment, client, err := uc.claim(ctx, shipmentID, token)
	if err != nil {
		return nil, err
	}
	log := uc.log.With().Int64("shipment_id", shipmentID).Str("claim", token).Logger()

	// ═══════════════════════════════════════════════════════════════════════
	// 2. Comprobante y timbrado (fuera de la transacción)
	// ═══════════════════════════════════════════════════════════════════════
	result, err := uc.stamp(ctx, shipment, client)
	if err != nil {
		log.Error().Err(err).Str("step", "stamp").Msg("timbrado fallido, se libera el reclamo")
		if relErr := uc.release(context.Background(), shipmentID, token); relErr != nil {
			log.Error().Err(relErr).Msg("no se pudo liberar el reclamo; expira por TTL")
		}
		return nil, err
	}

	// ═══════════════════════════════════════════════════════════════════════
	// 3. Artefacto y folio
	// ═══════════════════════════════════════════════════════════════════════
	uri := ""
	if uc.store != nil && len(result.Artifact) > 0 {
		uri, err = uc.store.Save(ctx, fmt.Sprintf("remision-%d-%s.xml", shipmentID, result.UUID), result.Artifact)
		if err != nil {
			// el timbre ya existe en el SAT: se persiste el folio aunque falte el archivo
			log.Error().Err(err).Str("step", "artifact").Str("uuid", result.UUID).Msg("no se pudo guardar el XML timbrado")
		}
	}
	if err := uc.persist(context.Background(), shipmentID, token, result, uri); err != nil {
		// timbrado en el SAT pero no registrado: el reclamo queda hasta revisión manual
		log.Error().Err(err).Str("step", "persist").
			Str("folio", result.Folio).Str("uuid", result.UUID).
			Msg("CFDI timbrado sin persistir; requiere conciliación manual")
		return nil, err
	}

	log.Info().Str("folio", result.Folio).Str("uuid", result.UUID).Msg("remisión facturada")
	return &dto.InvoiceResponse{
		ShipmentID:  shipmentID,
		Folio:       result.Folio,
		UUID:        result.UUID,
		StampedAt:   result.StampedAt,
		ArtifactURI: uri,
	}, nil
}

// claim verifica las precondiciones con la fila bloqueada y registra el reclamo.
func (uc *InvoiceUseCase) claim(ctx context.Context, shipmentID int64, token string) (*entity.Shipment, *entity.Client, error) {
	var (
		shipment *entity.Shipment
		client   *entity.Client
	)
	err := uc.tx.Run(ctx, func(repos repository.Repositories) error {
		s, err := repos.Shipments.GetForUpdate(ctx, shipmentID)
		if err != nil {
			return err
		}
		if s == nil {
			return domain.ErrShipmentNotFound
		}
		if !s.IsPaid {
			return domain.ErrNotFullyPaid
		}
		if s.IsInvoiced() {
			return domain.ErrAlreadyInvoiced
		}
		now := uc.now()
		if s.ClaimActive(now, uc.cfg.ClaimTTL) {
			return domain.ErrInvoicingInProgress
		}
		c, err := repos.Clients.GetByID(ctx, s.ClientID)
		if err != nil {
			return err
		}
		if c == nil {
			return domain.ErrClientNotFound
		}
		s.InvoicingToken = token
		s.InvoicingClaimedAt = &now
		if err := repos.Shipments.UpdateInvoicing(ctx, s); err != nil {
			return err
		}
		shipment, client = s, c
		return nil
	})
	return shipment, client, err
}

func (uc *InvoiceUseCase) stamp(ctx context.Context, shipment *entity.Shipment, client *entity.Client) (*StampResult, error) {
	doc, err := uc.builder.Build(shipment, client)
	if err != nil {
		return nil, fmt.Errorf("armar comprobante: %w", err)
	}
	stampCtx, cancel := context.WithTimeout(ctx, uc.cfg.StampTimeout)
	defer cancel()
	result, err := uc.stamper.Stamp(stampCtx, doc)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &domain.ExternalServiceError{Code: 504, Message: "tiempo de espera agotado con el PAC"}
		}
		return nil, err
	}
	if result == nil || result.Folio == "" {
		return nil, &domain.ExternalServiceError{Code: 502, Message: "respuesta del PAC sin folio"}
	}
	return result, nil
}

// release borra el reclamo solo si sigue siendo el nuestro.
func (uc *InvoiceUseCase) release(ctx context.Context, shipmentID int64, token string) error {
	return uc.tx.Run(ctx, func(repos repository.Repositories) error {
		s, err := repos.Shipments.GetForUpdate(ctx, shipmentID)
		if err != nil || s == nil || s.InvoicingToken != token {
			return err
		}
		s.InvoicingToken = ""
		s.InvoicingClaimedAt = nil
		return repos.Shipments.UpdateInvoicing(ctx, s)
	})
}

// persist escribe folio, UUID, fecha y artefacto y limpia el reclamo, en una sola tx
// y solo si el reclamo sigue siendo el nuestro.
func (uc *InvoiceUseCase) persist(ctx context.Context, shipmentID int64, token string, r *StampResult, uri string) error {
	return uc.tx.Run(ctx, func(repos repository.Repositories) error {
		s, err := repos.Shipments.GetForUpdate(ctx, shipmentID)
		if err != nil {
			return err
		}
		if s == nil {
			return domain.ErrShipmentNotFound
		}
		if s.IsInvoiced() {
			return domain.ErrAlreadyInvoiced
		}
		if s.InvoicingToken != token {
			return fmt.Errorf("%w: el reclamo expiró antes de persistir el folio", domain.ErrInvoicingInProgress)
		}
		stampedAt := r.StampedAt
		s.CFDIFolio = r.Folio
		s.CFDIUUID = r.UUID
		s.StampedAt = &stampedAt
		s.ArtifactURI = uri
		s.ShouldBeInvoiced = false
		s.InvoicingToken = ""
		s.InvoicingClaimedAt = nil
		return repos.Shipments.UpdateInvoicing(ctx, s)
	})
}
