// Package memory implementa los repositorios en memoria. Las transacciones se serializan
// con un mutex y un rollback restaura la copia tomada al iniciar.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/remisiones-api/internal/application/ports"
	"github.com/jhoicas/remisiones-api/internal/domain/entity"
	"github.com/jhoicas/remisiones-api/internal/domain/repository"
)

type state struct {
	seq           int64
	products      map[int64]entity.Product
	suppliers     map[int64]entity.Supplier
	clients       map[int64]entity.Client
	movements     []entity.Movement
	receipts      map[int64]entity.Receipt
	receiptLines  map[int64]entity.ReceiptLine
	shipments     map[int64]entity.Shipment
	shipmentLines map[int64]entity.ShipmentLine
	payments      map[int64]entity.Payment
	allocations   map[int64]entity.PaymentAllocation
}

func newState() *state {
	return &state{
		products:      map[int64]entity.Product{},
		suppliers:     map[int64]entity.Supplier{},
		clients:       map[int64]entity.Client{},
		receipts:      map[int64]entity.Receipt{},
		receiptLines:  map[int64]entity.ReceiptLine{},
		shipments:     map[int64]entity.Shipment{},
		shipmentLines: map[int64]entity.ShipmentLine{},
		payments:      map[int64]entity.Payment{},
		allocations:   map[int64]entity.PaymentAllocation{},
	}
}

func (s *state) nextID() int64 {
	s.seq++
	return s.seq
}

func (s *state) clone() *state {
	c := &state{
		seq:           s.seq,
		products:      cloneMap(s.products),
		suppliers:     cloneMap(s.suppliers),
		clients:       cloneMap(s.clients),
		movements:     append([]entity.Movement(nil), s.movements...),
		receipts:      cloneMap(s.receipts),
		receiptLines:  cloneMap(s.receiptLines),
		shipments:     cloneMap(s.shipments),
		shipmentLines: make(map[int64]entity.ShipmentLine, len(s.shipmentLines)),
		payments:      cloneMap(s.payments),
		allocations:   cloneMap(s.allocations),
	}
	for id, l := range s.shipmentLines {
		l.BoxWeights = append([]entity.BoxWeight(nil), l.BoxWeights...)
		c.shipmentLines[id] = l
	}
	return c
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Store base de datos en memoria.
type Store struct {
	mu sync.Mutex
	st *state
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{st: newState()}
}

// Repositories devuelve repositorios fuera de transacción (cada llamada toma el mutex).
func (s *Store) Repositories() repository.Repositories {
	return s.repos(false)
}

func (s *Store) repos(inTx bool) repository.Repositories {
	h := &handle{store: s, inTx: inTx}
	return repository.Repositories{
		Products:  &ProductRepo{h},
		Suppliers: &SupplierRepo{h},
		Clients:   &ClientRepo{h},
		Movements: &MovementRepo{h},
		Receipts:  &ReceiptRepo{h},
		Shipments: &ShipmentRepo{h},
		Payments:  &PaymentRepo{h},
	}
}

// Run implementa ports.TxRunner: serializa la transacción y restaura la copia si fn falla.
func (s *Store) Run(ctx context.Context, fn func(repos repository.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.st.clone()
	if err := fn(s.repos(true)); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

// ReadSnapshot implementa ports.SnapshotRunner: con el mutex tomado nadie escribe.
func (s *Store) ReadSnapshot(ctx context.Context, fn func(repos repository.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.repos(true))
}

var (
	_ ports.TxRunner       = (*Store)(nil)
	_ ports.SnapshotRunner = (*Store)(nil)
)

// handle da acceso al estado: dentro de la tx el mutex ya está tomado.
type handle struct {
	store *Store
	inTx  bool
}

func (h *handle) do(fn func(st *state) error) error {
	if !h.inTx {
		h.store.mu.Lock()
		defer h.store.mu.Unlock()
	}
	return fn(h.store.st)
}
