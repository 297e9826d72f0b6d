package repository

// Repositories agrupa los repositorios atados a una misma transacción.
type Repositories struct {
	Products  ProductRepository
	Suppliers SupplierRepository
	Clients   ClientRepository
	Movements MovementRepository
	Receipts  ReceiptRepository
	Shipments ShipmentRepository
	Payments  PaymentRepository
}
