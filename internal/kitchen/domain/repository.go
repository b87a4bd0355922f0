package domain

import (
	"context"
	"time"
)

// Lookups return ErrRecordNotFound when nothing matches. Update methods on
// versioned entities compare-and-swap on Version, bump it on success and
// return ErrVersionConflict when the stored row has moved on. ForUpdate
// lookups hold a row lock until the surrounding transaction ends.

type ProductRepository interface {
	Create(ctx context.Context, product *Product) error
	FindByID(ctx context.Context, id string) (*Product, error)
	Update(ctx context.Context, product *Product) error
	List(ctx context.Context, activeOnly bool) ([]Product, error)
}

type RecipeRepository interface {
	FindByProductID(ctx context.Context, productID string) (*Recipe, error)
	Save(ctx context.Context, recipe *Recipe) error
}

type MaterialRepository interface {
	Create(ctx context.Context, material *RawMaterial) error
	FindByID(ctx context.Context, id string) (*RawMaterial, error)
	List(ctx context.Context) ([]RawMaterial, error)
}

type SupplierRepository interface {
	Create(ctx context.Context, supplier *Supplier) error
	ListActive(ctx context.Context) ([]Supplier, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
}

type StoreStaffRepository interface {
	Create(ctx context.Context, staff *StoreStaff) error
	FindByID(ctx context.Context, id string) (*StoreStaff, error)
	FindByUserID(ctx context.Context, userID string) (*StoreStaff, error)
}

type OrderRepository interface {
	Create(ctx context.Context, order *Order) error
	FindByID(ctx context.Context, id string) (*Order, error)
	FindByIDForUpdate(ctx context.Context, id string) (*Order, error)
	Update(ctx context.Context, order *Order) error
	List(ctx context.Context, filter OrderFilter) ([]Order, error)
	AppendHistory(ctx context.Context, entry *OrderHistory) error
	History(ctx context.Context, orderID string) ([]OrderHistory, error)
}

type RawBatchRepository interface {
	CreateSupply(ctx context.Context, supply *RawMaterialSupply) error
	Create(ctx context.Context, batch *RawBatch) error
	FindByID(ctx context.Context, id string) (*RawBatch, error)
	FindByIDForUpdate(ctx context.Context, id string) (*RawBatch, error)
	// LockDate serializes QC decisions on batches dated date until the
	// surrounding transaction ends.
	LockDate(ctx context.Context, date time.Time) error
	Update(ctx context.Context, batch *RawBatch) error
	List(ctx context.Context, filter RawBatchFilter) ([]RawBatch, error)
	CreateWaste(ctx context.Context, waste *WasteLog) error
	ListWaste(ctx context.Context, date *time.Time) ([]WasteLog, error)
}

type KitchenInventoryRepository interface {
	FindByMaterialForUpdate(ctx context.Context, materialID string) (*KitchenInventory, error)
	Create(ctx context.Context, inv *KitchenInventory) error
	Update(ctx context.Context, inv *KitchenInventory) error
	List(ctx context.Context) ([]KitchenInventory, error)
	CreateConsumption(ctx context.Context, c *BatchConsumption) error
	ListConsumption(ctx context.Context, orderID string) ([]BatchConsumption, error)
}

type CookedBatchRepository interface {
	Create(ctx context.Context, batch *CookedBatch) error
	FindByID(ctx context.Context, id string) (*CookedBatch, error)
	FindByIDForUpdate(ctx context.Context, id string) (*CookedBatch, error)
	Update(ctx context.Context, batch *CookedBatch) error
	ListByOrder(ctx context.Context, orderID string) ([]CookedBatch, error)
	ListByStatus(ctx context.Context, status QCStatus) ([]CookedBatch, error)
	CreateQCRecord(ctx context.Context, record *CookedQCRecord) error
	ListQCRecords(ctx context.Context, batchID string) ([]CookedQCRecord, error)
}

type StoreInventoryRepository interface {
	FindForUpdate(ctx context.Context, storeStaffID, productID string) (*StoreInventory, error)
	Create(ctx context.Context, inv *StoreInventory) error
	Update(ctx context.Context, inv *StoreInventory) error
	ListByStore(ctx context.Context, storeStaffID string) ([]StoreInventory, error)
	// ListAvailable returns lines of productID with positive quantity that
	// have not expired at now, largest quantity first.
	ListAvailable(ctx context.Context, productID string, now time.Time) ([]StoreInventory, error)
}

type CreditRepository interface {
	Create(ctx context.Context, credit *StoreCredit) error
	FindByIDForUpdate(ctx context.Context, id string) (*StoreCredit, error)
	Update(ctx context.Context, credit *StoreCredit) error
	ListByStore(ctx context.Context, storeStaffID string) ([]StoreCredit, error)
	CreateUsage(ctx context.Context, usage *CreditUsage) error
	ListUsage(ctx context.Context, creditID string) ([]CreditUsage, error)
	CreateTransfer(ctx context.Context, transfer *RiskPoolTransfer) error
	ListTransfers(ctx context.Context) ([]RiskPoolTransfer, error)
}

type DisputeRepository interface {
	Create(ctx context.Context, dispute *Dispute) error
	FindByID(ctx context.Context, id string) (*Dispute, error)
	FindByIDForUpdate(ctx context.Context, id string) (*Dispute, error)
	Update(ctx context.Context, dispute *Dispute) error
	ListByOrder(ctx context.Context, orderID string) ([]Dispute, error)
	ListByStore(ctx context.Context, storeStaffID string) ([]Dispute, error)
	List(ctx context.Context) ([]Dispute, error)
}

// Repositories is the set of repositories bound to one store session.
type Repositories struct {
	Products         ProductRepository
	Recipes          RecipeRepository
	Materials        MaterialRepository
	Suppliers        SupplierRepository
	Users            UserRepository
	StoreStaff       StoreStaffRepository
	Orders           OrderRepository
	RawBatches       RawBatchRepository
	KitchenInventory KitchenInventoryRepository
	CookedBatches    CookedBatchRepository
	StoreInventory   StoreInventoryRepository
	Credits          CreditRepository
	Disputes         DisputeRepository
}

// Store is the document store behind the kitchen.
type Store interface {
	// Repos returns repositories outside any transaction, for reads.
	Repos() Repositories
	// WithinTx runs fn atomically. Any error returned by fn, or a panic,
	// discards every write fn made.
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
	Ping(ctx context.Context) error
}
