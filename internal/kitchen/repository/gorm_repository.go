package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tair/central-kitchen/internal/kitchen/domain"
)

// GormStore is the PostgreSQL-backed document store.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Models lists every table owned by the kitchen.
func Models() []interface{} {
	return []interface{}{
		&domain.Product{},
		&domain.Recipe{},
		&domain.RawMaterial{},
		&domain.Supplier{},
		&domain.User{},
		&domain.StoreStaff{},
		&domain.Order{},
		&domain.OrderHistory{},
		&domain.RawMaterialSupply{},
		&domain.RawBatch{},
		&domain.WasteLog{},
		&domain.KitchenInventory{},
		&domain.BatchConsumption{},
		&domain.CookedBatch{},
		&domain.CookedQCRecord{},
		&domain.StoreInventory{},
		&domain.StoreCredit{},
		&domain.CreditUsage{},
		&domain.RiskPoolTransfer{},
		&domain.Dispute{},
	}
}

func (s *GormStore) AutoMigrate() error {
	return s.db.AutoMigrate(Models()...)
}

func (s *GormStore) Repos() domain.Repositories {
	return gormRepos(s.db)
}

// WithinTx runs fn in a single database transaction.
func (s *GormStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos domain.Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, gormRepos(tx))
	})
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func gormRepos(db *gorm.DB) domain.Repositories {
	return domain.Repositories{
		Products:         &gormProducts{db: db},
		Recipes:          &gormRecipes{db: db},
		Materials:        &gormMaterials{db: db},
		Suppliers:        &gormSuppliers{db: db},
		Users:            &gormUsers{db: db},
		StoreStaff:       &gormStoreStaff{db: db},
		Orders:           &gormOrders{db: db},
		RawBatches:       &gormRawBatches{db: db},
		KitchenInventory: &gormKitchenInventory{db: db},
		CookedBatches:    &gormCookedBatches{db: db},
		StoreInventory:   &gormStoreInventory{db: db},
		Credits:          &gormCredits{db: db},
		Disputes:         &gormDisputes{db: db},
	}
}

// findOne loads the first row matching query, optionally holding a row lock.
func findOne[T any](ctx context.Context, db *gorm.DB, lock bool, query interface{}, args ...interface{}) (*T, error) {
	var out T
	q := db.WithContext(ctx)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.Where(query, args...).First(&out).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, err
	}
	return &out, nil
}

// saveVersioned writes every column of entity if the stored version still
// equals *version, then bumps it.
func saveVersioned(ctx context.Context, db *gorm.DB, entity interface{}, version *int) error {
	old := *version
	*version = old + 1
	res := db.WithContext(ctx).Model(entity).Where("version = ?", old).Select("*").Updates(entity)
	if res.Error != nil {
		*version = old
		return res.Error
	}
	if res.RowsAffected == 0 {
		*version = old
		return domain.ErrVersionConflict
	}
	return nil
}

type gormProducts struct{ db *gorm.DB }

func (r *gormProducts) Create(ctx context.Context, product *domain.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *gormProducts) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	return findOne[domain.Product](ctx, r.db, false, "id = ?", id)
}

func (r *gormProducts) Update(ctx context.Context, product *domain.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

func (r *gormProducts) List(ctx context.Context, activeOnly bool) ([]domain.Product, error) {
	var products []domain.Product
	q := r.db.WithContext(ctx).Order("name ASC")
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	err := q.Find(&products).Error
	return products, err
}

type gormRecipes struct{ db *gorm.DB }

func (r *gormRecipes) FindByProductID(ctx context.Context, productID string) (*domain.Recipe, error) {
	return findOne[domain.Recipe](ctx, r.db, false, "product_id = ?", productID)
}

func (r *gormRecipes) Save(ctx context.Context, recipe *domain.Recipe) error {
	return r.db.WithContext(ctx).Save(recipe).Error
}

type gormMaterials struct{ db *gorm.DB }

func (r *gormMaterials) Create(ctx context.Context, material *domain.RawMaterial) error {
	return r.db.WithContext(ctx).Create(material).Error
}

func (r *gormMaterials) FindByID(ctx context.Context, id string) (*domain.RawMaterial, error) {
	return findOne[domain.RawMaterial](ctx, r.db, false, "id = ?", id)
}

func (r *gormMaterials) List(ctx context.Context) ([]domain.RawMaterial, error) {
	var materials []domain.RawMaterial
	err := r.db.WithContext(ctx).Order("name ASC").Find(&materials).Error
	return materials, err
}

type gormSuppliers struct{ db *gorm.DB }

func (r *gormSuppliers) Create(ctx context.Context, supplier *domain.Supplier) error {
	return r.db.WithContext(ctx).Create(supplier).Error
}

func (r *gormSuppliers) ListActive(ctx context.Context) ([]domain.Supplier, error) {
	var suppliers []domain.Supplier
	err := r.db.WithContext(ctx).Where("active = ?", true).Order("created_at ASC, id ASC").Find(&suppliers).Error
	return suppliers, err
}

type gormUsers struct{ db *gorm.DB }

func (r *gormUsers) Create(ctx context.Context, user *domain.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *gormUsers) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return findOne[domain.User](ctx, r.db, false, "id = ?", id)
}

func (r *gormUsers) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return findOne[domain.User](ctx, r.db, false, "email = ?", email)
}

type gormStoreStaff struct{ db *gorm.DB }

func (r *gormStoreStaff) Create(ctx context.Context, staff *domain.StoreStaff) error {
	return r.db.WithContext(ctx).Create(staff).Error
}

func (r *gormStoreStaff) FindByID(ctx context.Context, id string) (*domain.StoreStaff, error) {
	return findOne[domain.StoreStaff](ctx, r.db, false, "id = ?", id)
}

func (r *gormStoreStaff) FindByUserID(ctx context.Context, userID string) (*domain.StoreStaff, error) {
	return findOne[domain.StoreStaff](ctx, r.db, false, "user_id = ?", userID)
}

type gormOrders struct{ db *gorm.DB }

func (r *gormOrders) Create(ctx context.Context, order *domain.Order) error {
	initVersion(&order.Version)
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *gormOrders) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	return findOne[domain.Order](ctx, r.db, false, "id = ?", id)
}

func (r *gormOrders) FindByIDForUpdate(ctx context.Context, id string) (*domain.Order, error) {
	return findOne[domain.Order](ctx, r.db, true, "id = ?", id)
}

func (r *gormOrders) Update(ctx context.Context, order *domain.Order) error {
	return saveVersioned(ctx, r.db, order, &order.Version)
}

func (r *gormOrders) List(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	q := r.db.WithContext(ctx).Order("created_at ASC, id ASC")
	if filter.StoreStaffID != "" {
		q = q.Where("store_staff_id = ?", filter.StoreStaffID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.DeliveryDate != nil {
		q = q.Where("delivery_date = ?", domain.DateOf(*filter.DeliveryDate))
	}
	if filter.CreatedFrom != nil {
		q = q.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		q = q.Where("created_at < ?", *filter.CreatedTo)
	}
	var orders []domain.Order
	err := q.Find(&orders).Error
	return orders, err
}

func (r *gormOrders) AppendHistory(ctx context.Context, entry *domain.OrderHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *gormOrders) History(ctx context.Context, orderID string) ([]domain.OrderHistory, error) {
	var history []domain.OrderHistory
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("created_at ASC, id ASC").Find(&history).Error
	return history, err
}

type gormRawBatches struct{ db *gorm.DB }

func (r *gormRawBatches) CreateSupply(ctx context.Context, supply *domain.RawMaterialSupply) error {
	return r.db.WithContext(ctx).Create(supply).Error
}

func (r *gormRawBatches) Create(ctx context.Context, batch *domain.RawBatch) error {
	initVersion(&batch.Version)
	return r.db.WithContext(ctx).Create(batch).Error
}

func (r *gormRawBatches) FindByID(ctx context.Context, id string) (*domain.RawBatch, error) {
	return findOne[domain.RawBatch](ctx, r.db, false, "id = ?", id)
}

func (r *gormRawBatches) FindByIDForUpdate(ctx context.Context, id string) (*domain.RawBatch, error) {
	return findOne[domain.RawBatch](ctx, r.db, true, "id = ?", id)
}

// LockDate takes a transaction-scoped advisory lock keyed on the batch date.
// Row locks on single batches cannot stop two QC passes from each seeing
// the other's batch as still pending.
func (r *gormRawBatches) LockDate(ctx context.Context, date time.Time) error {
	key := "raw-qc:" + domain.DateOf(date).Format("2006-01-02")
	return r.db.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(hashtext(?))", key).Error
}

func (r *gormRawBatches) Update(ctx context.Context, batch *domain.RawBatch) error {
	return saveVersioned(ctx, r.db, batch, &batch.Version)
}

func (r *gormRawBatches) List(ctx context.Context, filter domain.RawBatchFilter) ([]domain.RawBatch, error) {
	q := r.db.WithContext(ctx).Order("created_at ASC, batch_number ASC")
	if filter.Status != "" {
		q = q.Where("qc_status = ?", filter.Status)
	}
	if filter.BatchDate != nil {
		q = q.Where("batch_date = ?", domain.DateOf(*filter.BatchDate))
	}
	if filter.SupplierID != "" {
		q = q.Where("supplier_id = ?", filter.SupplierID)
	}
	var batches []domain.RawBatch
	err := q.Find(&batches).Error
	return batches, err
}

func (r *gormRawBatches) CreateWaste(ctx context.Context, waste *domain.WasteLog) error {
	return r.db.WithContext(ctx).Create(waste).Error
}

func (r *gormRawBatches) ListWaste(ctx context.Context, date *time.Time) ([]domain.WasteLog, error) {
	q := r.db.WithContext(ctx).Order("created_at ASC")
	if date != nil {
		q = q.Where("waste_date = ?", domain.DateOf(*date))
	}
	var waste []domain.WasteLog
	err := q.Find(&waste).Error
	return waste, err
}

type gormKitchenInventory struct{ db *gorm.DB }

func (r *gormKitchenInventory) FindByMaterialForUpdate(ctx context.Context, materialID string) (*domain.KitchenInventory, error) {
	return findOne[domain.KitchenInventory](ctx, r.db, true, "material_id = ?", materialID)
}

func (r *gormKitchenInventory) Create(ctx context.Context, inv *domain.KitchenInventory) error {
	initVersion(&inv.Version)
	return r.db.WithContext(ctx).Create(inv).Error
}

func (r *gormKitchenInventory) Update(ctx context.Context, inv *domain.KitchenInventory) error {
	return saveVersioned(ctx, r.db, inv, &inv.Version)
}

func (r *gormKitchenInventory) List(ctx context.Context) ([]domain.KitchenInventory, error) {
	var inventory []domain.KitchenInventory
	err := r.db.WithContext(ctx).Order("material_name ASC").Find(&inventory).Error
	return inventory, err
}

func (r *gormKitchenInventory) CreateConsumption(ctx context.Context, c *domain.BatchConsumption) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *gormKitchenInventory) ListConsumption(ctx context.Context, orderID string) ([]domain.BatchConsumption, error) {
	var consumption []domain.BatchConsumption
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("consumed_at ASC, material_id ASC").Find(&consumption).Error
	return consumption, err
}

type gormCookedBatches struct{ db *gorm.DB }

func (r *gormCookedBatches) Create(ctx context.Context, batch *domain.CookedBatch) error {
	initVersion(&batch.Version)
	return r.db.WithContext(ctx).Create(batch).Error
}

func (r *gormCookedBatches) FindByID(ctx context.Context, id string) (*domain.CookedBatch, error) {
	return findOne[domain.CookedBatch](ctx, r.db, false, "id = ?", id)
}

func (r *gormCookedBatches) FindByIDForUpdate(ctx context.Context, id string) (*domain.CookedBatch, error) {
	return findOne[domain.CookedBatch](ctx, r.db, true, "id = ?", id)
}

func (r *gormCookedBatches) Update(ctx context.Context, batch *domain.CookedBatch) error {
	return saveVersioned(ctx, r.db, batch, &batch.Version)
}

func (r *gormCookedBatches) ListByOrder(ctx context.Context, orderID string) ([]domain.CookedBatch, error) {
	var batches []domain.CookedBatch
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("batch_number ASC").Find(&batches).Error
	return batches, err
}

func (r *gormCookedBatches) ListByStatus(ctx context.Context, status domain.QCStatus) ([]domain.CookedBatch, error) {
	var batches []domain.CookedBatch
	err := r.db.WithContext(ctx).Where("qc_status = ?", status).Order("created_at ASC, batch_number ASC").Find(&batches).Error
	return batches, err
}

func (r *gormCookedBatches) CreateQCRecord(ctx context.Context, record *domain.CookedQCRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *gormCookedBatches) ListQCRecords(ctx context.Context, batchID string) ([]domain.CookedQCRecord, error) {
	var records []domain.CookedQCRecord
	err := r.db.WithContext(ctx).Where("batch_id = ?", batchID).Order("qc_at ASC").Find(&records).Error
	return records, err
}

type gormStoreInventory struct{ db *gorm.DB }

func (r *gormStoreInventory) FindForUpdate(ctx context.Context, storeStaffID, productID string) (*domain.StoreInventory, error) {
	return findOne[domain.StoreInventory](ctx, r.db, true, "store_staff_id = ? AND product_id = ?", storeStaffID, productID)
}

func (r *gormStoreInventory) Create(ctx context.Context, inv *domain.StoreInventory) error {
	initVersion(&inv.Version)
	return r.db.WithContext(ctx).Create(inv).Error
}

func (r *gormStoreInventory) Update(ctx context.Context, inv *domain.StoreInventory) error {
	return saveVersioned(ctx, r.db, inv, &inv.Version)
}

func (r *gormStoreInventory) ListByStore(ctx context.Context, storeStaffID string) ([]domain.StoreInventory, error) {
	var inventory []domain.StoreInventory
	err := r.db.WithContext(ctx).Where("store_staff_id = ?", storeStaffID).Order("product_name ASC").Find(&inventory).Error
	return inventory, err
}

func (r *gormStoreInventory) ListAvailable(ctx context.Context, productID string, now time.Time) ([]domain.StoreInventory, error) {
	var inventory []domain.StoreInventory
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND quantity > 0", productID).
		Where("expiration_date IS NULL OR expiration_date > ?", now).
		Order("quantity DESC, store_staff_id ASC").
		Find(&inventory).Error
	return inventory, err
}

type gormCredits struct{ db *gorm.DB }

func (r *gormCredits) Create(ctx context.Context, credit *domain.StoreCredit) error {
	initVersion(&credit.Version)
	return r.db.WithContext(ctx).Create(credit).Error
}

func (r *gormCredits) FindByIDForUpdate(ctx context.Context, id string) (*domain.StoreCredit, error) {
	return findOne[domain.StoreCredit](ctx, r.db, true, "id = ?", id)
}

func (r *gormCredits) Update(ctx context.Context, credit *domain.StoreCredit) error {
	return saveVersioned(ctx, r.db, credit, &credit.Version)
}

func (r *gormCredits) ListByStore(ctx context.Context, storeStaffID string) ([]domain.StoreCredit, error) {
	var credits []domain.StoreCredit
	err := r.db.WithContext(ctx).Where("store_staff_id = ?", storeStaffID).Order("created_at DESC").Find(&credits).Error
	return credits, err
}

func (r *gormCredits) CreateUsage(ctx context.Context, usage *domain.CreditUsage) error {
	return r.db.WithContext(ctx).Create(usage).Error
}

func (r *gormCredits) ListUsage(ctx context.Context, creditID string) ([]domain.CreditUsage, error) {
	var usage []domain.CreditUsage
	err := r.db.WithContext(ctx).Where("credit_id = ?", creditID).Order("used_at ASC").Find(&usage).Error
	return usage, err
}

func (r *gormCredits) CreateTransfer(ctx context.Context, transfer *domain.RiskPoolTransfer) error {
	return r.db.WithContext(ctx).Create(transfer).Error
}

func (r *gormCredits) ListTransfers(ctx context.Context) ([]domain.RiskPoolTransfer, error) {
	var transfers []domain.RiskPoolTransfer
	err := r.db.WithContext(ctx).Order("transferred_at DESC").Find(&transfers).Error
	return transfers, err
}

type gormDisputes struct{ db *gorm.DB }

func (r *gormDisputes) Create(ctx context.Context, dispute *domain.Dispute) error {
	initVersion(&dispute.Version)
	return r.db.WithContext(ctx).Create(dispute).Error
}

func (r *gormDisputes) FindByID(ctx context.Context, id string) (*domain.Dispute, error) {
	return findOne[domain.Dispute](ctx, r.db, false, "id = ?", id)
}

func (r *gormDisputes) FindByIDForUpdate(ctx context.Context, id string) (*domain.Dispute, error) {
	return findOne[domain.Dispute](ctx, r.db, true, "id = ?", id)
}

func (r *gormDisputes) Update(ctx context.Context, dispute *domain.Dispute) error {
	return saveVersioned(ctx, r.db, dispute, &dispute.Version)
}

func (r *gormDisputes) ListByOrder(ctx context.Context, orderID string) ([]domain.Dispute, error) {
	var disputes []domain.Dispute
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("created_at ASC").Find(&disputes).Error
	return disputes, err
}

func (r *gormDisputes) ListByStore(ctx context.Context, storeStaffID string) ([]domain.Dispute, error) {
	var disputes []domain.Dispute
	err := r.db.WithContext(ctx).Where("store_staff_id = ?", storeStaffID).Order("created_at DESC").Find(&disputes).Error
	return disputes, err
}

func (r *gormDisputes) List(ctx context.Context) ([]domain.Dispute, error) {
	var disputes []domain.Dispute
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&disputes).Error
	return disputes, err
}

var _ domain.Store = (*GormStore)(nil)
