package billing_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/remisiones-api/internal/application/billing"
	"github.com/jhoicas/remisiones-api/internal/application/dto"
	"github.com/jhoicas/remisiones-api/internal/domain"
	"github.com/jhoicas/remisiones-api/internal/domain/entity"
	"github.com/jhoicas/remisiones-api/pkg/logger"
)

type fakeBuilder struct{}

func (fakeBuilder) Build(s *entity.Shipment, _ *entity.Client) (*billing.TaxDocument, error) {
	return &billing.TaxDocument{ShipmentID: s.ID, Series: "R", Folio: fmt.Sprint(s.ID), XML: []byte("<cfdi/>")}, nil
}

// countingStamper cuenta llamadas; delay simula la latencia del PAC.
type countingStamper struct {
	calls atomic.Int32
	delay time.Duration
	err   error
}

func (s *countingStamper) Stamp(ctx context.Context, doc *billing.TaxDocument) (*billing.StampResult, error) {
	n := s.calls.Add(1)
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return &billing.StampResult{
		Folio:     fmt.Sprintf("R-%d-%d", doc.ShipmentID, n),
		UUID:      fmt.Sprintf("uuid-%d", n),
		StampedAt: time.Now(),
		Artifact:  []byte("<cfdi timbrado/>"),
	}, nil
}

type memArtifacts struct {
	mu    sync.Mutex
	saved map[string][]byte
	err   error
}

func (m *memArtifacts) Save(_ context.Context, name string, data []byte) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saved == nil {
		m.saved = map[string][]byte{}
	}
	m.saved[name] = data
	return "mem://" + name, nil
}

type busyLocker struct{ keys []string }

func (l *busyLocker) Acquire(_ context.Context, key string) (func(context.Context) error, error) {
	l.keys = append(l.keys, key)
	return nil, domain.ErrInvoicingInProgress
}

var testInvoiceCfg = billing.InvoiceConfig{ClaimTTL: time.Minute, StampTimeout: time.Second}

func (f *fixture) paidShipment(t *testing.T, cost string) int64 {
	t.Helper()
	id := f.shipment(t, f.client, cost)
	_, err := newPayments(f).Allocate(context.Background(), dto.CreatePaymentRequest{
		ClientID: f.client, ShipmentIDs: []int64{id}, Amount: dec(cost), Method: "03",
	})
	require.NoError(t, err)
	require.True(t, f.get(t, id).IsPaid)
	return id
}

func TestInvoice_Issue_Exito(t *testing.T) {
	f := newFixture(t)
	stamper := &countingStamper{}
	store := &memArtifacts{}
	uc := billing.NewInvoiceUseCase(f.store, fakeBuilder{}, stamper, nil, store, testInvoiceCfg, logger.Nop())
	id := f.paidShipment(t, "100")

	resp, err := uc.Issue(context.Background(), id)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Folio)
	assert.Equal(t, "uuid-1", resp.UUID)
	assert.Contains(t, resp.ArtifactURI, "mem://")

	s := f.get(t, id)
	assert.Equal(t, resp.Folio, s.CFDIFolio)
	assert.False(t, s.ShouldBeInvoiced)
	assert.Empty(t, s.InvoicingToken)
	assert.Nil(t, s.InvoicingClaimedAt)
	require.NotNil(t, s.StampedAt)

	// segunda emisión: ya facturada y sin llamar al PAC
	_, err = uc.Issue(context.Background(), id)
	assert.ErrorIs(t, err, domain.ErrAlreadyInvoiced)
	assert.EqualValues(t, 1, stamper.calls.Load())
}

func TestInvoice_Issue_OrdenDePrecondiciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stamper := &countingStamper{}
	uc := billing.NewInvoiceUseCase(f.store, fakeBuilder{}, stamper, nil, nil, testInvoiceCfg, logger.Nop())

	_, err := uc.Issue(ctx, 9999)
	assert.ErrorIs(t, err, domain.ErrShipmentNotFound)

	// sin pagar y con folio: gana "no pagada"
	unpaid := f.shipment(t, f.client, "100")
	s := f.get(t, unpaid)
	s.CFDIFolio = "R-X"
	require.NoError(t, f.repos.Shipments.UpdateInvoicing(ctx, s))
	_, err = uc.Issue(ctx, unpaid)
	assert.ErrorIs(t, err, domain.ErrNotFullyPaid)

	// pagada y con folio
	invoiced := f.paidShipment(t, "50")
	s = f.get(t, invoiced)
	s.CFDIFolio = "R-Y"
	require.NoError(t, f.repos.Shipments.UpdateInvoicing(ctx, s))
	_, err = uc.Issue(ctx, invoiced)
	assert.ErrorIs(t, err, domain.ErrAlreadyInvoiced)

	// pagada con reclamo vigente
	claimed := f.paidShipment(t, "70")
	s = f.get(t, claimed)
	now := time.Now()
	s.InvoicingToken = "otro"
	s.InvoicingClaimedAt = &now
	require.NoError(t, f.repos.Shipments.UpdateInvoicing(ctx, s))
	_, err = uc.Issue(ctx, claimed)
	assert.ErrorIs(t, err, domain.ErrInvoicingInProgress)

	// un reclamo vencido ya no bloquea
	old := now.Add(-2 * testInvoiceCfg.ClaimTTL)
	s.InvoicingClaimedAt = &old
	require.NoError(t, f.repos.Shipments.UpdateInvoicing(ctx, s))
	_, err = uc.Issue(ctx, claimed)
	require.NoError(t, err)

	assert.EqualValues(t, 1, stamper.calls.Load())
}

// Dos emisiones simultáneas: exactamente una llamada al PAC y un solo folio.
func TestInvoice_Issue_Concurrente(t *testing.T) {
	f := newFixture(t)
	stamper := &countingStamper{delay: 50 * time.Millisecond}
	uc := billing.NewInvoiceUseCase(f.store, fakeBuilder{}, stamper, nil, nil, testInvoiceCfg, logger.Nop())
	id := f.paidShipment(t, "100")

	const workers = 8
	var (
		wg      sync.WaitGroup
		start   = make(chan struct{})
		mu      sync.Mutex
		folios  []string
		refused int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			resp, err := uc.Issue(context.Background(), id)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				folios = append(folios, resp.Folio)
			case errors.Is(err, domain.ErrInvoicingInProgress), errors.Is(err, domain.ErrAlreadyInvoiced):
				refused++
			default:
				t.Errorf("error inesperado: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.EqualValues(t, 1, stamper.calls.Load())
	require.Len(t, folios, 1)
	assert.Equal(t, workers-1, refused)
	assert.Equal(t, folios[0], f.get(t, id).CFDIFolio)
}

func TestInvoice_Issue_FallaDelPACLiberaElReclamo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.paidShipment(t, "100")

	failing := &countingStamper{err: &domain.ExternalServiceError{Code: 500, Message: "CSD revocado"}}
	uc := billing.NewInvoiceUseCase(f.store, fakeBuilder{}, failing, nil, nil, testInvoiceCfg, logger.Nop())
	_, err := uc.Issue(ctx, id)
	var ext *domain.ExternalServiceError
	require.True(t, errors.As(err, &ext))
	assert.Equal(t, 500, ext.Code)

	s := f.get(t, id)
	assert.Empty(t, s.CFDIFolio)
	assert.Empty(t, s.InvoicingToken)
	assert.True(t, s.ShouldBeInvoiced)

	// se puede reintentar de inmediato
	ok := &countingStamper{}
	uc = billing.NewInvoiceUseCase(f.store, fakeBuilder{}, ok, nil, nil, testInvoiceCfg, logger.Nop())
	_, err = uc.Issue(ctx, id)
	require.NoError(t, err)
	assert.NotEmpty(t, f.get(t, id).CFDIFolio)
}

func TestInvoice_Issue_TimeoutDelPAC(t *testing.T) {
	f := newFixture(t)
	id := f.paidShipment(t, "100")
	slow := &countingStamper{delay: time.Second}
	cfg := billing.InvoiceConfig{ClaimTTL: time.Minute, StampTimeout: 20 * time.Millisecond}
	uc := billing.NewInvoiceUseCase(f.store, fakeBuilder{}, slow, nil, nil, cfg, logger.Nop())

	_, err := uc.Issue(context.Background(), id)
	var ext *domain.ExternalServiceError
	require.True(t, errors.As(err, &ext))
	assert.Equal(t, 504, ext.Code)
	assert.Equal(t, domain.KindExternal, domain.KindOf(err))

	s := f.get(t, id)
	assert.Empty(t, s.CFDIFolio)
	assert.Empty(t, s.InvoicingToken)
}

func TestInvoice_Issue_CandadoOcupado(t *testing.T) {
	f := newFixture(t)
	id := f.paidShipment(t, "100")
	stamper := &countingStamper{}
	locker := &busyLocker{}
	uc := billing.NewInvoiceUseCase(f.store, fakeBuilder{}, stamper, locker, nil, testInvoiceCfg, logger.Nop())

	_, err := uc.Issue(context.Background(), id)
	assert.ErrorIs(t, err, domain.ErrInvoicingInProgress)
	assert.Zero(t, stamper.calls.Load())
	assert.Equal(t, []string{fmt.Sprintf("invoice:shipment:%d", id)}, locker.keys)
}

// Si falla el guardado del XML el folio se persiste igual.
func TestInvoice_Issue_ArtefactoFallidoNoPierdeElFolio(t *testing.T) {
	f := newFixture(t)
	id := f.paidShipment(t, "100")
	store := &memArtifacts{err: errors.New("bucket no disponible")}
	uc := billing.NewInvoiceUseCase(f.store, fakeBuilder{}, &countingStamper{}, nil, store, testInvoiceCfg, logger.Nop())

	resp, err := uc.Issue(context.Background(), id)
	require.NoError(t, err)
	assert.Empty(t, resp.ArtifactURI)
	assert.Equal(t, resp.Folio, f.get(t, id).CFDIFolio)
}

func TestInvoice_FacturadaNoSeEdita(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.paidShipment(t, "100")
	uc := billing.NewInvoiceUseCase(f.store, fakeBuilder{}, &countingStamper{}, nil, nil, testInvoiceCfg, logger.Nop())
	_, err := uc.Issue(ctx, id)
	require.NoError(t, err)

	assert.ErrorIs(t, f.shipments.Delete(ctx, id, "u1"), domain.ErrAlreadyInvoiced)
}
