package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tair/central-kitchen/internal/kitchen/domain"
)

// MemoryStore keeps every table in process memory. Transactions are
// serialized by a single mutex and rolled back by restoring a snapshot.
type MemoryStore struct {
	mu    sync.Mutex
	state *memState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: newMemState()}
}

func (s *MemoryStore) Repos() domain.Repositories {
	return s.repos(false)
}

func (s *MemoryStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos domain.Repositories) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.snapshot()
	defer func() {
		if p := recover(); p != nil {
			s.state = snapshot
			panic(p)
		}
	}()

	if err = fn(ctx, s.repos(true)); err != nil {
		s.state = snapshot
	}
	return err
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) repos(inTx bool) domain.Repositories {
	sess := memSession{store: s, inTx: inTx}
	return domain.Repositories{
		Products:         memProducts{sess},
		Recipes:          memRecipes{sess},
		Materials:        memMaterials{sess},
		Suppliers:        memSuppliers{sess},
		Users:            memUsers{sess},
		StoreStaff:       memStoreStaff{sess},
		Orders:           memOrders{sess},
		RawBatches:       memRawBatches{sess},
		KitchenInventory: memKitchenInventory{sess},
		CookedBatches:    memCookedBatches{sess},
		StoreInventory:   memStoreInventory{sess},
		Credits:          memCredits{sess},
		Disputes:         memDisputes{sess},
	}
}

// table is an insertion-ordered map of rows. Rows are stored and returned
// through copyFn so callers never alias stored slices.
type table[T any] struct {
	rows   map[string]T
	order  []string
	copyFn func(T) T
}

func newTable[T any](copyFn func(T) T) *table[T] {
	if copyFn == nil {
		copyFn = func(v T) T { return v }
	}
	return &table[T]{rows: make(map[string]T), copyFn: copyFn}
}

func (t *table[T]) clone() *table[T] {
	c := &table[T]{rows: make(map[string]T, len(t.rows)), order: append([]string(nil), t.order...), copyFn: t.copyFn}
	for k, v := range t.rows {
		c.rows[k] = v
	}
	return c
}

func (t *table[T]) get(id string) (T, bool) {
	v, ok := t.rows[id]
	if !ok {
		return v, false
	}
	return t.copyFn(v), true
}

func (t *table[T]) insert(id string, v T) error {
	if _, exists := t.rows[id]; exists {
		return fmt.Errorf("duplicate key %q", id)
	}
	t.rows[id] = t.copyFn(v)
	t.order = append(t.order, id)
	return nil
}

func (t *table[T]) replace(id string, v T) {
	if _, exists := t.rows[id]; !exists {
		t.order = append(t.order, id)
	}
	t.rows[id] = t.copyFn(v)
}

func (t *table[T]) filter(keep func(T) bool) []T {
	var out []T
	for _, id := range t.order {
		v := t.rows[id]
		if keep == nil || keep(v) {
			out = append(out, t.copyFn(v))
		}
	}
	return out
}

func (t *table[T]) find(match func(T) bool) (T, bool) {
	for _, id := range t.order {
		if v := t.rows[id]; match(v) {
			return t.copyFn(v), true
		}
	}
	var zero T
	return zero, false
}

func findRow[T any](t *table[T], id string) (*T, error) {
	v, ok := t.get(id)
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return &v, nil
}

func matchRow[T any](t *table[T], match func(T) bool) (*T, error) {
	v, ok := t.find(match)
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return &v, nil
}

func casUpdate[T any](t *table[T], id string, entity *T, version *int, versionOf func(T) int) error {
	cur, ok := t.get(id)
	if !ok {
		return domain.ErrRecordNotFound
	}
	if versionOf(cur) != *version {
		return domain.ErrVersionConflict
	}
	*version++
	t.replace(id, *entity)
	return nil
}

func initVersion(v *int) {
	if *v == 0 {
		*v = 1
	}
}

type memState struct {
	products      *table[domain.Product]
	recipes       *table[domain.Recipe]
	materials     *table[domain.RawMaterial]
	suppliers     *table[domain.Supplier]
	users         *table[domain.User]
	staff         *table[domain.StoreStaff]
	orders        *table[domain.Order]
	history       *table[domain.OrderHistory]
	supplies      *table[domain.RawMaterialSupply]
	rawBatches    *table[domain.RawBatch]
	waste         *table[domain.WasteLog]
	kitchenStock  *table[domain.KitchenInventory]
	consumption   *table[domain.BatchConsumption]
	cookedBatches *table[domain.CookedBatch]
	qcRecords     *table[domain.CookedQCRecord]
	storeStock    *table[domain.StoreInventory]
	credits       *table[domain.StoreCredit]
	usage         *table[domain.CreditUsage]
	transfers     *table[domain.RiskPoolTransfer]
	disputes      *table[domain.Dispute]
}

func newMemState() *memState {
	return &memState{
		products: newTable[domain.Product](nil),
		recipes: newTable(func(r domain.Recipe) domain.Recipe {
			r.Ingredients = append([]domain.RecipeIngredient(nil), r.Ingredients...)
			return r
		}),
		materials: newTable[domain.RawMaterial](nil),
		suppliers: newTable[domain.Supplier](nil),
		users:     newTable[domain.User](nil),
		staff:     newTable[domain.StoreStaff](nil),
		orders: newTable(func(o domain.Order) domain.Order {
			o.Items = append([]domain.OrderItem(nil), o.Items...)
			return o
		}),
		history:      newTable[domain.OrderHistory](nil),
		supplies:     newTable[domain.RawMaterialSupply](nil),
		rawBatches:   newTable[domain.RawBatch](nil),
		waste:        newTable[domain.WasteLog](nil),
		kitchenStock: newTable[domain.KitchenInventory](nil),
		consumption:  newTable[domain.BatchConsumption](nil),
		cookedBatches: newTable(func(b domain.CookedBatch) domain.CookedBatch {
			b.Items = append([]domain.CookedBatchItem(nil), b.Items...)
			b.FailedItems = append([]domain.FailedItem(nil), b.FailedItems...)
			return b
		}),
		qcRecords: newTable(func(r domain.CookedQCRecord) domain.CookedQCRecord {
			r.FailedItems = append([]domain.FailedItem(nil), r.FailedItems...)
			return r
		}),
		storeStock: newTable[domain.StoreInventory](nil),
		credits:    newTable[domain.StoreCredit](nil),
		usage:      newTable[domain.CreditUsage](nil),
		transfers:  newTable[domain.RiskPoolTransfer](nil),
		disputes: newTable(func(d domain.Dispute) domain.Dispute {
			d.Items = append([]domain.DisputeItem(nil), d.Items...)
			return d
		}),
	}
}

func (s *memState) snapshot() *memState {
	return &memState{
		products:      s.products.clone(),
		recipes:       s.recipes.clone(),
		materials:     s.materials.clone(),
		suppliers:     s.suppliers.clone(),
		users:         s.users.clone(),
		staff:         s.staff.clone(),
		orders:        s.orders.clone(),
		history:       s.history.clone(),
		supplies:      s.supplies.clone(),
		rawBatches:    s.rawBatches.clone(),
		waste:         s.waste.clone(),
		kitchenStock:  s.kitchenStock.clone(),
		consumption:   s.consumption.clone(),
		cookedBatches: s.cookedBatches.clone(),
		qcRecords:     s.qcRecords.clone(),
		storeStock:    s.storeStock.clone(),
		credits:       s.credits.clone(),
		usage:         s.usage.clone(),
		transfers:     s.transfers.clone(),
		disputes:      s.disputes.clone(),
	}
}

// memSession binds repositories to the store. Outside a transaction every
// call takes the store mutex itself.
type memSession struct {
	store *MemoryStore
	inTx  bool
}

func (m memSession) do(fn func(st *memState) error) error {
	if !m.inTx {
		m.store.mu.Lock()
		defer m.store.mu.Unlock()
	}
	return fn(m.store.state)
}

type memProducts struct{ memSession }

func (r memProducts) Create(_ context.Context, product *domain.Product) error {
	return r.do(func(st *memState) error { return st.products.insert(product.ID, *product) })
}

func (r memProducts) FindByID(_ context.Context, id string) (out *domain.Product, err error) {
	err = r.do(func(st *memState) error {
		out, err = findRow(st.products, id)
		return err
	})
	return out, err
}

func (r memProducts) Update(_ context.Context, product *domain.Product) error {
	return r.do(func(st *memState) error {
		if _, ok := st.products.get(product.ID); !ok {
			return domain.ErrRecordNotFound
		}
		st.products.replace(product.ID, *product)
		return nil
	})
}

func (r memProducts) List(_ context.Context, activeOnly bool) (out []domain.Product, err error) {
	err = r.do(func(st *memState) error {
		out = st.products.filter(func(p domain.Product) bool { return !activeOnly || p.Active })
		sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
		return nil
	})
	return out, err
}

type memRecipes struct{ memSession }

func (r memRecipes) FindByProductID(_ context.Context, productID string) (out *domain.Recipe, err error) {
	err = r.do(func(st *memState) error {
		out, err = matchRow(st.recipes, func(rc domain.Recipe) bool { return rc.ProductID == productID })
		return err
	})
	return out, err
}

func (r memRecipes) Save(_ context.Context, recipe *domain.Recipe) error {
	return r.do(func(st *memState) error {
		if existing, ok := st.recipes.find(func(rc domain.Recipe) bool {
			return rc.ProductID == recipe.ProductID && rc.ID != recipe.ID
		}); ok {
			return fmt.Errorf("product %s already has recipe %s", recipe.ProductID, existing.ID)
		}
		st.recipes.replace(recipe.ID, *recipe)
		return nil
	})
}

type memMaterials struct{ memSession }

func (r memMaterials) Create(_ context.Context, material *domain.RawMaterial) error {
	return r.do(func(st *memState) error { return st.materials.insert(material.ID, *material) })
}

func (r memMaterials) FindByID(_ context.Context, id string) (out *domain.RawMaterial, err error) {
	err = r.do(func(st *memState) error {
		out, err = findRow(st.materials, id)
		return err
	})
	return out, err
}

func (r memMaterials) List(_ context.Context) (out []domain.RawMaterial, err error) {
	err = r.do(func(st *memState) error {
		out = st.materials.filter(nil)
		sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
		return nil
	})
	return out, err
}

type memSuppliers struct{ memSession }

func (r memSuppliers) Create(_ context.Context, supplier *domain.Supplier) error {
	return r.do(func(st *memState) error { return st.suppliers.insert(supplier.ID, *supplier) })
}

func (r memSuppliers) ListActive(_ context.Context) (out []domain.Supplier, err error) {
	err = r.do(func(st *memState) error {
		out = st.suppliers.filter(func(s domain.Supplier) bool { return s.Active })
		return nil
	})
	return out, err
}

type memUsers struct{ memSession }

func (r memUsers) Create(_ context.Context, user *domain.User) error {
	return r.do(func(st *memState) error {
		if _, ok := st.users.find(func(u domain.User) bool { return u.Email == user.Email }); ok {
			return fmt.Errorf("duplicate email %q", user.Email)
		}
		return st.users.insert(user.ID, *user)
	})
}

func (r memUsers) FindByID(_ context.Context, id string) (out *domain.User, err error) {
	err = r.do(func(st *memState) error {
		out, err = findRow(st.users, id)
		return err
	})
	return out, err
}

func (r memUsers) FindByEmail(_ context.Context, email string) (out *domain.User, err error) {
	err = r.do(func(st *memState) error {
		out, err = matchRow(st.users, func(u domain.User) bool { return u.Email == email })
		return err
	})
	return out, err
}

type memStoreStaff struct{ memSession }

func (r memStoreStaff) Create(_ context.Context, staff *domain.StoreStaff) error {
	return r.do(func(st *memState) error { return st.staff.insert(staff.ID, *staff) })
}

func (r memStoreStaff) FindByID(_ context.Context, id string) (out *domain.StoreStaff, err error) {
	err = r.do(func(st *memState) error {
		out, err = findRow(st.staff, id)
		return err
	})
	return out, err
}

func (r memStoreStaff) FindByUserID(_ context.Context, userID string) (out *domain.StoreStaff, err error) {
	err = r.do(func(st *memState) error {
		out, err = matchRow(st.staff, func(s domain.StoreStaff) bool { return s.UserID == userID })
		return err
	})
	return out, err
}

type memOrders struct{ memSession }

func (r memOrders) Create(_ context.Context, order *domain.Order) error {
	initVersion(&order.Version)
	return r.do(func(st *memState) error { return st.orders.insert(order.ID, *order) })
}

func (r memOrders) FindByID(_ context.Context, id string) (out *domain.Order, err error) {
	err = r.do(func(st *memState) error {
		out, err = findRow(st.orders, id)
		return err
	})
	return out, err
}

func (r memOrders) FindByIDForUpdate(ctx context.Context, id string) (*domain.Order, error) {
	return r.FindByID(ctx, id)
}

func (r memOrders) Update(_ context.Context, order *domain.Order) error {
	return r.do(func(st *memState) error {
		return casUpdate(st.orders, order.ID, order, &order.Version, func(o domain.Order) int { return o.Version })
	})
}

func (r memOrders) List(_ context.Context, filter domain.OrderFilter) (out []domain.Order, err error) {
	err = r.do(func(st *memState) error {
		out = st.orders.filter(filter.Matches)
		return nil
	})
	return out, err
}

func (r memOrders) AppendHistory(_ context.Context, entry *domain.OrderHistory) error {
	return r.do(func(st *memState) error { return st.history.insert(entry.ID, *entry) })
}

func (r memOrders) History(_ context.Context, orderID string) (out []domain.OrderHistory, err error) {
	err = r.do(func(st *memState) error {
		out = st.history.filter(func(h domain.OrderHistory) bool { return h.OrderID == orderID })
		return nil
	})
	return out, err
}

type memRawBatches struct{ memSession }

func (r memRawBatches) CreateSupply(_ context.Context, supply *domain.RawMaterialSupply) error {
	return r.do(func(st *memState) error { return st.supplies.insert(supply.ID, *supply) })
}

func (r memRawBatches) Create(_ context.Context, batch *domain.RawBatch) error {
	initVersion(&batch.Version)
	return r.do(func(st *memState) error {
		if _, dup := st.rawBatches.find(func(b domain.RawBatch) bool { return b.BatchNumber == batch.BatchNumber }); dup {
			return fmt.Errorf("duplicate batch number %q", batch.BatchNumber)
		}
		return st.rawBatches.insert(batch.ID, *batch)
	})
}

func (r memRawBatches) FindByID(_ context.Context, id string) (out *domain.RawBatch, err error) {
	err = r.do(func(st *memState) error {
		out, err = findRow(st.rawBatches, id)
		return err
	})
	return out, err
}

func (r memRawBatches) FindByIDForUpdate(ctx context.Context, id string) (*domain.RawBatch, error) {
	return r.FindByID(ctx, id)
}

// LockDate is a no-op: WithinTx already holds the store mutex.
func (r memRawBatches) LockDate(context.Context, time.Time) error { return nil }

func (r memRawBatches) Update(_ context.Context, batch *domain.RawBatch) error {
	return r.do(func(st *memState) error {
		return casUpdate(st.rawBatches, batch.ID, batch, &batch.Version, func(b domain.RawBatch) int { return b.Version })
	})
}

func (r memRawBatches) List(_ context.Context, filter domain.RawBatchFilter) (out []domain.RawBatch, err error) {
	err = r.do(func(st *memState) error {
		out = st.rawBatches.filter(filter.Matches)
		return nil
	})
	return out, err
}

func (r memRawBatches) CreateWaste(_ context.Context, waste *domain.WasteLog) error {
	return r.do(func(st *memState) error { return st.waste.insert(waste.ID, *waste) })
}

func (r memRawBatches) ListWaste(_ context.Context, date *time.Time) (out []domain.WasteLog, err error) {
	err = r.do(func(st *memState) error {
		out = st.waste.filter(func(w domain.WasteLog) bool {
			return date == nil || domain.DateOf(w.WasteDate).Equal(domain.DateOf(*date))
		})
		return nil
	})
	return out, err
}

type memKitchenInventory struct{ memSession }

func (r memKitchenInventory) FindByMaterialForUpdate(_ context.Context, materialID string) (out *domain.KitchenInventory, err error) {
	err = r.do(func(st *memState) error {
		out, err = matchRow(st.kitchenStock, func(k domain.KitchenInventory) bool { return k.MaterialID == materialID })
		return err
	})
	return out, err
}

func (r memKitchenInventory) Create(_ context.Context, inv *domain.KitchenInventory) error {
	initVersion(&inv.Version)
	return r.do(func(st *memState) error {
		if _, dup := st.kitchenStock.find(func(k domain.KitchenInventory) bool { return k.MaterialID == inv.MaterialID }); dup {
			return fmt.Errorf("duplicate kitchen inventory for material %q", inv.MaterialID)
		}
		return st.kitchenStock.insert(inv.ID, *inv)
	})
}

func (r memKitchenInventory) Update(_ context.Context, inv *domain.KitchenInventory) error {
	return r.do(func(st *memState) error {
		return casUpdate(st.kitchenStock, inv.ID, inv, &inv.Version, func(k domain.KitchenInventory) int { return k.Version })
	})
}

func (r memKitchenInventory) List(_ context.Context) (out []domain.KitchenInventory, err error) {
	err = r.do(func(st *memState) error {
		out = st.kitchenStock.filter(nil)
		sort.SliceStable(out, func(i, j int) bool { return out[i].MaterialName < out[j].MaterialName })
		return nil
	})
	return out, err
}

func (r memKitchenInventory) CreateConsumption(_ context.Context, c *domain.BatchConsumption) error {
	return r.do(func(st *memState) error { return st.consumption.insert(c.ID, *c) })
}

func (r memKitchenInventory) ListConsumption(_ context.Context, orderID string) (out []domain.BatchConsumption, err error) {
	err = r.do(func(st *memState) error {
		out = st.consumption.filter(func(c domain.BatchConsumption) bool { return c.OrderID == orderID })
		return nil
	})
	return out, err
}

type memCookedBatches struct{ memSession }

func (r memCookedBatches) Create(_ context.Context, batch *domain.CookedBatch) error {
	initVersion(&batch.Version)
	return r.do(func(st *memState) error { return st.cookedBatches.insert(batch.ID, *batch) })
}

func (r memCookedBatches) FindByID(_ context.Context, id string) (out *domain.CookedBatch, err error) {
	err = r.do(func(st *memState) error {
		out, err = findRow(st.cookedBatches, id)
		return err
	})
	return out, err
}

func (r memCookedBatches) FindByIDForUpdate(ctx context.Context, id string) (*domain.CookedBatch, error) {
	return r.FindByID(ctx, id)
}

func (r memCookedBatches) Update(_ context.Context, batch *domain.CookedBatch) error {
	return r.do(func(st *memState) error {
		return casUpdate(st.cookedBatches, batch.ID, batch, &batch.Version, func(b domain.CookedBatch) int { return b.Version })
	})
}

func (r memCookedBatches) ListByOrder(_ context.Context, orderID string) (out []domain.CookedBatch, err error) {
	err = r.do(func(st *memState) error {
		out = st.cookedBatches.filter(func(b domain.CookedBatch) bool { return b.OrderID == orderID })
		sort.SliceStable(out, func(i, j int) bool { return out[i].BatchNumber < out[j].BatchNumber })
		return nil
	})
	return out, err
}

func (r memCookedBatches) ListByStatus(_ context.Context, status domain.QCStatus) (out []domain.CookedBatch, err error) {
	err = r.do(func(st *memState) error {
		out = st.cookedBatches.filter(func(b domain.CookedBatch) bool { return b.QCStatus == status })
		return nil
	})
	return out, err
}

func (r memCookedBatches) CreateQCRecord(_ context.Context, record *domain.CookedQCRecord) error {
	return r.do(func(st *memState) error { return st.qcRecords.insert(record.ID, *record) })
}

func (r memCookedBatches) ListQCRecords(_ context.Context, batchID string) (out []domain.CookedQCRecord, err error) {
	err = r.do(func(st *memState) error {
		out = st.qcRecords.filter(func(rec domain.CookedQCRecord) bool { return rec.BatchID == batchID })
		return nil
	})
	return out, err
}

type memStoreInventory struct{ memSession }

func (r memStoreInventory) FindForUpdate(_ context.Context, storeStaffID, productID string) (out *domain.StoreInventory, err error) {
	err = r.do(func(st *memState) error {
		out, err = matchRow(st.storeStock, func(s domain.StoreInventory) bool {
			return s.StoreStaffID == storeStaffID && s.ProductID == productID
		})
		return err
	})
	return out, err
}

func (r memStoreInventory) Create(_ context.Context, inv *domain.StoreInventory) error {
	initVersion(&inv.Version)
	return r.do(func(st *memState) error {
		if _, dup := st.storeStock.find(func(s domain.StoreInventory) bool {
			return s.StoreStaffID == inv.StoreStaffID && s.ProductID == inv.ProductID
		}); dup {
			return fmt.Errorf("duplicate store inventory for %s/%s", inv.StoreStaffID, inv.ProductID)
		}
		return st.storeStock.insert(inv.ID, *inv)
	})
}

func (r memStoreInventory) Update(_ context.Context, inv *domain.StoreInventory) error {
	return r.do(func(st *memState) error {
		return casUpdate(st.storeStock, inv.ID, inv, &inv.Version, func(s domain.StoreInventory) int { return s.Version })
	})
}

func (r memStoreInventory) ListByStore(_ context.Context, storeStaffID string) (out []domain.StoreInventory, err error) {
	err = r.do(func(st *memState) error {
		out = st.storeStock.filter(func(s domain.StoreInventory) bool { return s.StoreStaffID == storeStaffID })
		sort.SliceStable(out, func(i, j int) bool { return out[i].ProductName < out[j].ProductName })
		return nil
	})
	return out, err
}

func (r memStoreInventory) ListAvailable(_ context.Context, productID string, now time.Time) (out []domain.StoreInventory, err error) {
	err = r.do(func(st *memState) error {
		out = st.storeStock.filter(func(s domain.StoreInventory) bool {
			return s.ProductID == productID && s.Quantity > 0 && !s.Expired(now)
		})
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].Quantity != out[j].Quantity {
				return out[i].Quantity > out[j].Quantity
			}
			return out[i].StoreStaffID < out[j].StoreStaffID
		})
		return nil
	})
	return out, err
}

type memCredits struct{ memSession }

func (r memCredits) Create(_ context.Context, credit *domain.StoreCredit) error {
	initVersion(&credit.Version)
	return r.do(func(st *memState) error { return st.credits.insert(credit.ID, *credit) })
}

func (r memCredits) FindByIDForUpdate(_ context.Context, id string) (out *domain.StoreCredit, err error) {
	err = r.do(func(st *memState) error {
		out, err = findRow(st.credits, id)
		return err
	})
	return out, err
}

func (r memCredits) Update(_ context.Context, credit *domain.StoreCredit) error {
	return r.do(func(st *memState) error {
		return casUpdate(st.credits, credit.ID, credit, &credit.Version, func(c domain.StoreCredit) int { return c.Version })
	})
}

func (r memCredits) ListByStore(_ context.Context, storeStaffID string) (out []domain.StoreCredit, err error) {
	err = r.do(func(st *memState) error {
		out = st.credits.filter(func(c domain.StoreCredit) bool { return c.StoreStaffID == storeStaffID })
		return nil
	})
	return out, err
}

func (r memCredits) CreateUsage(_ context.Context, usage *domain.CreditUsage) error {
	return r.do(func(st *memState) error { return st.usage.insert(usage.ID, *usage) })
}

func (r memCredits) ListUsage(_ context.Context, creditID string) (out []domain.CreditUsage, err error) {
	err = r.do(func(st *memState) error {
		out = st.usage.filter(func(u domain.CreditUsage) bool { return u.CreditID == creditID })
		return nil
	})
	return out, err
}

func (r memCredits) CreateTransfer(_ context.Context, transfer *domain.RiskPoolTransfer) error {
	return r.do(func(st *memState) error { return st.transfers.insert(transfer.ID, *transfer) })
}

func (r memCredits) ListTransfers(_ context.Context) (out []domain.RiskPoolTransfer, err error) {
	err = r.do(func(st *memState) error {
		out = st.transfers.filter(nil)
		return nil
	})
	return out, err
}

type memDisputes struct{ memSession }

func (r memDisputes) Create(_ context.Context, dispute *domain.Dispute) error {
	initVersion(&dispute.Version)
	return r.do(func(st *memState) error { return st.disputes.insert(dispute.ID, *dispute) })
}

func (r memDisputes) FindByID(_ context.Context, id string) (out *domain.Dispute, err error) {
	err = r.do(func(st *memState) error {
		out, err = findRow(st.disputes, id)
		return err
	})
	return out, err
}

func (r memDisputes) FindByIDForUpdate(ctx context.Context, id string) (*domain.Dispute, error) {
	return r.FindByID(ctx, id)
}

func (r memDisputes) Update(_ context.Context, dispute *domain.Dispute) error {
	return r.do(func(st *memState) error {
		return casUpdate(st.disputes, dispute.ID, dispute, &dispute.Version, func(d domain.Dispute) int { return d.Version })
	})
}

func (r memDisputes) ListByOrder(_ context.Context, orderID string) (out []domain.Dispute, err error) {
	err = r.do(func(st *memState) error {
		out = st.disputes.filter(func(d domain.Dispute) bool { return d.OrderID == orderID })
		return nil
	})
	return out, err
}

func (r memDisputes) ListByStore(_ context.Context, storeStaffID string) (out []domain.Dispute, err error) {
	err = r.do(func(st *memState) error {
		out = st.disputes.filter(func(d domain.Dispute) bool { return d.StoreStaffID == storeStaffID })
		return nil
	})
	return out, err
}

func (r memDisputes) List(_ context.Context) (out []domain.Dispute, err error) {
	err = r.do(func(st *memState) error {
		out = st.disputes.filter(nil)
		return nil
	})
	return out, err
}

var _ domain.Store = (*MemoryStore)(nil)
