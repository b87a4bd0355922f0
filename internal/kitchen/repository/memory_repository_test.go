package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tair/central-kitchen/internal/kitchen/domain"
)

func newOrder(id string) *domain.Order {
	return &domain.Order{
		ID:           id,
		StoreStaffID: "store-1",
		Status:       domain.OrderPending,
		DeliveryDate: time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC),
		Items:        []domain.OrderItem{{ProductID: "p1", ProductName: "Bun", Quantity: 3}},
		CreatedAt:    time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestMemoryStoreRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	boom := errors.New("boom")

	err := store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		if err := repos.Orders.Create(ctx, newOrder("o1")); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("got %v, want boom", err)
	}
	if _, err := store.Repos().Orders.FindByID(ctx, "o1"); !errors.Is(err, domain.ErrRecordNotFound) {
		t.Fatalf("order survived rollback: %v", err)
	}
}

func TestMemoryStoreRollsBackOnPanic(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected panic to propagate")
			}
		}()
		_ = store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
			_ = repos.Orders.Create(ctx, newOrder("o1"))
			panic("mid-transaction")
		})
	}()

	if orders, _ := store.Repos().Orders.List(ctx, domain.OrderFilter{}); len(orders) != 0 {
		t.Fatalf("got %d orders after panic", len(orders))
	}
}

func TestMemoryStoreVersionConflict(t *testing.T) {
	ctx := context.Background()
	repos := NewMemoryStore().Repos()

	if err := repos.Orders.Create(ctx, newOrder("o1")); err != nil {
		t.Fatal(err)
	}
	first, _ := repos.Orders.FindByID(ctx, "o1")
	second, _ := repos.Orders.FindByID(ctx, "o1")

	first.Status = domain.OrderInProduction
	if err := repos.Orders.Update(ctx, first); err != nil {
		t.Fatalf("first update: %v", err)
	}
	if first.Version != 2 {
		t.Errorf("version = %d, want 2", first.Version)
	}

	second.Status = domain.OrderCancelled
	if err := repos.Orders.Update(ctx, second); !errors.Is(err, domain.ErrVersionConflict) {
		t.Fatalf("stale update: got %v, want ErrVersionConflict", err)
	}

	stored, _ := repos.Orders.FindByID(ctx, "o1")
	if stored.Status != domain.OrderInProduction {
		t.Errorf("status = %s", stored.Status.Name())
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repos := NewMemoryStore().Repos()
	order := newOrder("o1")
	if err := repos.Orders.Create(ctx, order); err != nil {
		t.Fatal(err)
	}

	order.Items[0].Quantity = 99
	got, _ := repos.Orders.FindByID(ctx, "o1")
	if got.Items[0].Quantity != 3 {
		t.Fatalf("stored items aliased caller slice: %+v", got.Items)
	}
}

func TestMemoryStoreAvailableStock(t *testing.T) {
	ctx := context.Background()
	repos := NewMemoryStore().Repos()
	now := time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(48 * time.Hour)

	rows := []domain.StoreInventory{
		{ID: "a", StoreStaffID: "s1", ProductID: "p1", Quantity: 2, ExpirationDate: &future},
		{ID: "b", StoreStaffID: "s2", ProductID: "p1", Quantity: 7},
		{ID: "c", StoreStaffID: "s3", ProductID: "p1", Quantity: 9, ExpirationDate: &past},
		{ID: "d", StoreStaffID: "s4", ProductID: "p1", Quantity: 0},
		{ID: "e", StoreStaffID: "s5", ProductID: "p2", Quantity: 4},
	}
	for i := range rows {
		if err := repos.StoreInventory.Create(ctx, &rows[i]); err != nil {
			t.Fatal(err)
		}
	}

	got, err := repos.StoreInventory.ListAvailable(ctx, "p1", now)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != "b" || got[1].ID != "a" {
		t.Fatalf("available = %+v", got)
	}
}
