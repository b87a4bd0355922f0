package command_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tair/central-kitchen/internal/kitchen/domain"
	"github.com/tair/central-kitchen/internal/kitchen/repository"
	"github.com/tair/central-kitchen/internal/kitchen/usecase/command"
)

var (
	admin    = domain.Actor{UserID: "u-admin", Role: domain.RoleAdmin}
	kitchen  = domain.Actor{UserID: "u-kitchen", Role: domain.RoleKitchenStaff}
	supply   = domain.Actor{UserID: "u-supply", Role: domain.RoleKitchenSupply}
	manager  = domain.Actor{UserID: "u-manager", Role: domain.RoleManager}
	storeOne = domain.Actor{UserID: "u-store-1", Role: domain.RoleStoreStaff}
	storeTwo = domain.Actor{UserID: "u-store-2", Role: domain.RoleStoreStaff}
)

const (
	staffOne = "staff-1"
	staffTwo = "staff-2"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// fixture is a seeded kitchen on 2025-03-01 10:00 UTC: a bun made from 1kg
// of flour weighing 1kg, a cake made from flour and sugar, two suppliers
// and two stores.
type fixture struct {
	t      *testing.T
	ctx    context.Context
	store  *repository.MemoryStore
	events *domain.RecordingPublisher
	now    time.Time
	deps   command.Deps
}

func newFixture(t *testing.T) *fixture {
	return setupFixture(t, true)
}

func newFixtureWithoutSuppliers(t *testing.T) *fixture {
	return setupFixture(t, false)
}

func setupFixture(t *testing.T, suppliers bool) *fixture {
	t.Helper()
	f := &fixture{
		t:      t,
		ctx:    context.Background(),
		store:  repository.NewMemoryStore(),
		events: &domain.RecordingPublisher{},
		now:    time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	f.deps = command.Deps{
		Store:     f.store,
		Policy:    domain.DefaultPolicy(time.UTC),
		Clock:     func() time.Time { return f.now },
		Publisher: f.events,
		Picker:    domain.FirstPicker{},
		Tokens:    command.TokenConfig{Secret: "test-secret", TTL: time.Hour},
	}

	err := f.store.WithinTx(f.ctx, func(ctx context.Context, repos domain.Repositories) error {
		for _, m := range []domain.RawMaterial{
			{ID: "flour", Name: "Flour", Unit: "kg"},
			{ID: "sugar", Name: "Sugar", Unit: "kg"},
		} {
			m := m
			if err := repos.Materials.Create(ctx, &m); err != nil {
				return err
			}
		}
		products := []domain.Product{
			{ID: "bun", Name: "Bun", Price: dec("10"), WeightPerUnit: dec("1"), ShelfLifeDays: 2, Active: true},
			{ID: "cake", Name: "Cake", Price: dec("25"), WeightPerUnit: dec("0.5"), Active: true},
			{ID: "retired", Name: "Retired", Price: dec("5"), Active: false},
		}
		for _, p := range products {
			p := p
			if err := repos.Products.Create(ctx, &p); err != nil {
				return err
			}
		}
		recipes := []domain.Recipe{
			{ID: "r-bun", ProductID: "bun", Ingredients: []domain.RecipeIngredient{
				{MaterialID: "flour", MaterialName: "Flour", QuantityPerUnit: dec("1"), Unit: "kg"},
			}},
			{ID: "r-cake", ProductID: "cake", Ingredients: []domain.RecipeIngredient{
				{MaterialID: "flour", MaterialName: "Flour", QuantityPerUnit: dec("0.5"), Unit: "kg"},
				{MaterialID: "sugar", MaterialName: "Sugar", QuantityPerUnit: dec("0.2"), Unit: "kg"},
			}},
		}
		for _, r := range recipes {
			r := r
			if err := repos.Recipes.Save(ctx, &r); err != nil {
				return err
			}
		}
		if suppliers {
			for _, s := range []domain.Supplier{
				{ID: "sup-a", Name: "Alpha Mills", Active: true},
				{ID: "sup-b", Name: "Beta Farms", Active: true},
			} {
				s := s
				if err := repos.Suppliers.Create(ctx, &s); err != nil {
					return err
				}
			}
		}
		for _, s := range []domain.StoreStaff{
			{ID: staffOne, UserID: storeOne.UserID, StoreName: "Riverside"},
			{ID: staffTwo, UserID: storeTwo.UserID, StoreName: "Hilltop"},
		} {
			s := s
			if err := repos.StoreStaff.Create(ctx, &s); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return f
}

func (f *fixture) repos() domain.Repositories { return f.store.Repos() }

func (f *fixture) tomorrow() string {
	return f.now.AddDate(0, 0, 1).Format("2006-01-02")
}

func (f *fixture) createOrder(actor domain.Actor, lines ...command.OrderLine) *domain.Order {
	f.t.Helper()
	order, err := command.NewCreateOrderHandler(f.deps).Handle(f.ctx, command.CreateOrderCommand{
		Actor:        actor,
		DeliveryDate: f.tomorrow(),
		Items:        lines,
	})
	if err != nil {
		f.t.Fatalf("create order: %v", err)
	}
	return order
}

func (f *fixture) plan() *command.PlanResult {
	f.t.Helper()
	result, err := command.NewPlanMaterialsHandler(f.deps).Handle(f.ctx, command.PlanMaterialsCommand{Trigger: command.TriggerManual})
	if err != nil {
		f.t.Fatalf("plan: %v", err)
	}
	return result
}

func (f *fixture) rawQC(batchID string, result domain.QCStatus) *command.RawQCResult {
	f.t.Helper()
	out, err := command.NewRawQCHandler(f.deps).Handle(f.ctx, command.RawQCCommand{
		Actor:   kitchen,
		BatchID: batchID,
		Result:  result,
	})
	if err != nil {
		f.t.Fatalf("raw qc %s: %v", batchID, err)
	}
	return out
}

func (f *fixture) move(actor domain.Actor, orderID string, to domain.OrderStatus) *command.StatusResult {
	f.t.Helper()
	out, err := f.tryMove(actor, orderID, to)
	if err != nil {
		f.t.Fatalf("move %s to %s: %v", orderID, to.Name(), err)
	}
	return out
}

func (f *fixture) tryMove(actor domain.Actor, orderID string, to domain.OrderStatus) (*command.StatusResult, error) {
	return command.NewUpdateStatusHandler(f.deps).Handle(f.ctx, command.UpdateStatusCommand{
		Actor:   actor,
		OrderID: orderID,
		Status:  to,
	})
}

func (f *fixture) cookedQC(batchID string, result domain.QCStatus, failed ...domain.FailedItem) (*command.CookedQCResult, error) {
	return command.NewCookedQCHandler(f.deps).Handle(f.ctx, command.CookedQCCommand{
		Actor:       kitchen,
		BatchID:     batchID,
		Result:      result,
		FailedItems: failed,
	})
}

// staged plans, clears raw QC and cooks an order of qty buns for storeOne.
func (f *fixture) staged(qty int) (*domain.Order, *command.StatusResult) {
	f.t.Helper()
	order := f.createOrder(storeOne, command.OrderLine{ProductID: "bun", Quantity: qty})
	for _, b := range f.plan().Batches {
		f.rawQC(b.ID, domain.QCPass)
	}
	return order, f.move(kitchen, order.ID, domain.OrderStaged)
}

// delivered runs an order of qty buns through to DELIVERED.
func (f *fixture) delivered(qty int) *domain.Order {
	f.t.Helper()
	order, produced := f.staged(qty)
	for _, b := range produced.CookedBatches {
		if _, err := f.cookedQC(b.ID, domain.QCPass); err != nil {
			f.t.Fatalf("cooked qc: %v", err)
		}
	}
	f.move(supply, order.ID, domain.OrderDispatched)
	return f.move(storeOne, order.ID, domain.OrderDelivered).Order
}

func (f *fixture) order(id string) *domain.Order {
	f.t.Helper()
	order, err := f.repos().Orders.FindByID(f.ctx, id)
	if err != nil {
		f.t.Fatalf("find order %s: %v", id, err)
	}
	return order
}

func (f *fixture) storeStock(staffID, productID string) int {
	f.t.Helper()
	lines, err := f.repos().StoreInventory.ListByStore(f.ctx, staffID)
	if err != nil {
		f.t.Fatalf("store inventory: %v", err)
	}
	for _, l := range lines {
		if l.ProductID == productID {
			return l.Quantity
		}
	}
	return 0
}

func (f *fixture) kitchenStock(materialID string) decimal.Decimal {
	f.t.Helper()
	lines, err := f.repos().KitchenInventory.List(f.ctx)
	if err != nil {
		f.t.Fatalf("kitchen inventory: %v", err)
	}
	for _, l := range lines {
		if l.MaterialID == materialID {
			return l.Quantity
		}
	}
	return decimal.Zero
}

func wantError(t *testing.T, err, kind error, code domain.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v %s, got nil", kind, code)
	}
	if !errors.Is(err, kind) {
		t.Fatalf("got %v, want kind %v", err, kind)
	}
	if got := domain.CodeOf(err); got != code {
		t.Fatalf("got code %s (%v), want %s", got, err, code)
	}
}

func hasEvent(p *domain.RecordingPublisher, eventType string) bool {
	for _, typ := range p.Types() {
		if typ == eventType {
			return true
		}
	}
	return false
}
