package query_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tair/central-kitchen/internal/kitchen/domain"
	"github.com/tair/central-kitchen/internal/kitchen/repository"
	"github.com/tair/central-kitchen/internal/kitchen/usecase/query"
)

var (
	manager  = domain.Actor{UserID: "u-manager", Role: domain.RoleManager}
	storeOne = domain.Actor{UserID: "u-store-1", Role: domain.RoleStoreStaff}
	storeTwo = domain.Actor{UserID: "u-store-2", Role: domain.RoleStoreStaff}
	stranger = domain.Actor{UserID: "u-nobody", Role: domain.RoleStoreStaff}
)

var now = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

// seed builds two stores, one order per store with history, stock, credits
// and a dispute against the first store's order.
func seed(t *testing.T) *repository.MemoryStore {
	t.Helper()
	store := repository.NewMemoryStore()
	ctx := context.Background()
	soon, past := now.Add(24*time.Hour), now.Add(-time.Hour)

	err := store.WithinTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		for _, s := range []domain.StoreStaff{
			{ID: "staff-1", UserID: storeOne.UserID, StoreName: "Riverside"},
			{ID: "staff-2", UserID: storeTwo.UserID, StoreName: "Hilltop"},
		} {
			s := s
			if err := repos.StoreStaff.Create(ctx, &s); err != nil {
				return err
			}
		}
		bun := domain.Product{ID: "bun", Name: "Bun", Price: decimal.NewFromInt(10), Active: true}
		if err := repos.Products.Create(ctx, &bun); err != nil {
			return err
		}
		old := domain.Product{ID: "old", Name: "Old", Active: false}
		if err := repos.Products.Create(ctx, &old); err != nil {
			return err
		}
		if err := repos.Recipes.Save(ctx, &domain.Recipe{ID: "r-bun", ProductID: "bun"}); err != nil {
			return err
		}

		for _, o := range []domain.Order{
			{ID: "o-1", StoreStaffID: "staff-1", Status: domain.OrderDispatched, DeliveryDate: now.AddDate(0, 0, 1),
				Items: []domain.OrderItem{{ProductID: "bun", Quantity: 6}}},
			{ID: "o-2", StoreStaffID: "staff-2", Status: domain.OrderPending, DeliveryDate: now.AddDate(0, 0, 2),
				Items: []domain.OrderItem{{ProductID: "bun", Quantity: 2}}},
		} {
			o := o
			if err := repos.Orders.Create(ctx, &o); err != nil {
				return err
			}
		}
		for i, h := range []domain.OrderHistory{
			{ToStatus: domain.OrderPending},
			{FromStatus: domain.OrderPending, ToStatus: domain.OrderInProduction},
			{FromStatus: domain.OrderInProduction, ToStatus: domain.OrderStaged},
			{FromStatus: domain.OrderStaged, ToStatus: domain.OrderDispatched},
		} {
			h.ID, h.OrderID, h.CreatedAt = domain.NewID(), "o-1", now.Add(time.Duration(i)*time.Minute)
			if err := repos.Orders.AppendHistory(ctx, &h); err != nil {
				return err
			}
		}

		for _, line := range []domain.StoreInventory{
			{ID: domain.NewID(), StoreStaffID: "staff-1", ProductID: "bun", ProductName: "Bun", Quantity: 4, ExpirationDate: &soon},
			{ID: domain.NewID(), StoreStaffID: "staff-2", ProductID: "bun", ProductName: "Bun", Quantity: 9, ExpirationDate: &soon},
			{ID: domain.NewID(), StoreStaffID: "staff-2", ProductID: "old", ProductName: "Old", Quantity: 3, ExpirationDate: &past},
		} {
			line := line
			if err := repos.StoreInventory.Create(ctx, &line); err != nil {
				return err
			}
		}

		active := domain.NewStoreCredit("staff-1", decimal.NewFromInt(30), domain.CreditFromDispute, now)
		active.RemainingAmount, active.UsedAmount = decimal.NewFromInt(12), decimal.NewFromInt(18)
		spent := domain.NewStoreCredit("staff-1", decimal.NewFromInt(5), domain.CreditFromRiskPool, now)
		spent.Status = domain.CreditFullyUsed
		for _, c := range []*domain.StoreCredit{&active, &spent} {
			if err := repos.Credits.Create(ctx, c); err != nil {
				return err
			}
		}

		for _, d := range []domain.Dispute{
			{ID: "d-1", OrderID: "o-1", StoreStaffID: "staff-1", Status: domain.DisputePending, Reason: "crushed"},
			{ID: "d-2", OrderID: "o-2", StoreStaffID: "staff-2", Status: domain.DisputeRejected, Reason: "late"},
		} {
			d := d
			if err := repos.Disputes.Create(ctx, &d); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return store
}

func wantKind(t *testing.T, err error, kind error, code domain.Code) {
	t.Helper()
	if !errors.Is(err, kind) {
		t.Fatalf("error = %v, want kind %v", err, kind)
	}
	if got := domain.CodeOf(err); got != code {
		t.Errorf("code = %s, want %s", got, code)
	}
}

func TestGetOrder(t *testing.T) {
	store := seed(t)
	handler := query.NewGetOrderHandler(store)
	ctx := context.Background()

	details, err := handler.Handle(ctx, query.GetOrderQuery{Actor: storeOne, OrderID: "o-1"})
	if err != nil {
		t.Fatal(err)
	}
	if details.StatusName != "DISPATCHED" || len(details.History) != 4 {
		t.Fatalf("unexpected details %+v", details)
	}
	first, last := details.History[0], details.History[3]
	if first.FromStatusName != "" || first.ToStatusName != "PENDING" {
		t.Errorf("creation entry %+v", first)
	}
	if last.FromStatusName != "STAGED" || last.ToStatusName != "DISPATCHED" {
		t.Errorf("last entry %+v", last)
	}

	if _, err := handler.Handle(ctx, query.GetOrderQuery{Actor: manager, OrderID: "o-2"}); err != nil {
		t.Errorf("manager reading any order: %v", err)
	}

	tests := []struct {
		name  string
		actor domain.Actor
		id    string
		kind  error
		code  domain.Code
	}{
		{"other store", storeTwo, "o-1", domain.ErrForbidden, domain.CodeAuthzDenied},
		{"no staff profile", stranger, "o-1", domain.ErrForbidden, domain.CodeAuthzDenied},
		{"unknown order", manager, "o-9", domain.ErrNotFound, domain.CodeNotFound},
		{"empty id", manager, "", domain.ErrValidation, domain.CodeRequiredField},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := handler.Handle(ctx, query.GetOrderQuery{Actor: tt.actor, OrderID: tt.id})
			wantKind(t, err, tt.kind, tt.code)
		})
	}
}

func TestListOrders(t *testing.T) {
	store := seed(t)
	handler := query.NewListOrdersHandler(store)
	ctx := context.Background()
	day := now.AddDate(0, 0, 2)

	tests := []struct {
		name  string
		query query.ListOrdersQuery
		want  []string
	}{
		{"manager sees all", query.ListOrdersQuery{Actor: manager}, []string{"o-1", "o-2"}},
		{"store narrowed to own", query.ListOrdersQuery{Actor: storeOne}, []string{"o-1"}},
		{"by status", query.ListOrdersQuery{Actor: manager, Status: domain.OrderPending}, []string{"o-2"}},
		{"by delivery date", query.ListOrdersQuery{Actor: manager, DeliveryDate: &day}, []string{"o-2"}},
		{"store and status disjoint", query.ListOrdersQuery{Actor: storeOne, Status: domain.OrderPending}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders, err := handler.Handle(ctx, tt.query)
			if err != nil {
				t.Fatal(err)
			}
			if len(orders) != len(tt.want) {
				t.Fatalf("got %d orders, want %v", len(orders), tt.want)
			}
			for i, id := range tt.want {
				if orders[i].ID != id {
					t.Errorf("orders[%d] = %s, want %s", i, orders[i].ID, id)
				}
			}
		})
	}

	_, err := handler.Handle(ctx, query.ListOrdersQuery{Actor: manager, Status: "OR999"})
	wantKind(t, err, domain.ErrValidation, domain.CodeInvalidValue)
}

func TestStoreInventoryFlagsExpiry(t *testing.T) {
	store := seed(t)
	handler := query.NewStoreInventoryHandler(store, clock)
	ctx := context.Background()

	lines, err := handler.Handle(ctx, query.StoreInventoryQuery{Actor: storeTwo, StoreStaffID: "staff-1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 2 || lines[0].StoreStaffID != "staff-2" {
		t.Fatalf("store staff not narrowed to own store: %+v", lines)
	}
	expired := map[string]bool{}
	for _, l := range lines {
		expired[l.ProductID] = l.Expired
	}
	if expired["bun"] || !expired["old"] {
		t.Errorf("expiry flags = %v", expired)
	}

	_, err = handler.Handle(ctx, query.StoreInventoryQuery{Actor: manager})
	wantKind(t, err, domain.ErrValidation, domain.CodeRequiredField)
}

func TestSearchRiskPool(t *testing.T) {
	store := seed(t)
	handler := query.NewSearchRiskPoolHandler(store, clock, domain.DefaultPolicy(time.UTC))
	ctx := context.Background()

	result, err := handler.Handle(ctx, query.SearchRiskPoolQuery{ProductID: "bun", Quantity: 10})
	if err != nil {
		t.Fatal(err)
	}
	if result.TotalAvailable != 13 || !result.Sufficient || len(result.Donors) != 2 {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.Donors[0].StoreName != "Hilltop" || result.Donors[0].Quantity != 9 {
		t.Errorf("largest donor first: %+v", result.Donors[0])
	}
	if result.ProductName != "Bun" {
		t.Errorf("product name = %q, want Bun", result.ProductName)
	}

	result, err = handler.Handle(ctx, query.SearchRiskPoolQuery{ProductID: "bun", Quantity: 5})
	if err != nil {
		t.Fatal(err)
	}
	for _, tt := range []struct {
		store      string
		canFulfill bool
	}{
		{"Hilltop", true},
		{"Riverside", false},
	} {
		var donor *query.Donor
		for i := range result.Donors {
			if result.Donors[i].StoreName == tt.store {
				donor = &result.Donors[i]
			}
		}
		if donor == nil {
			t.Fatalf("%s missing from donors %+v", tt.store, result.Donors)
		}
		if donor.CanFulfill != tt.canFulfill {
			t.Errorf("%s can_fulfill = %v, want %v", tt.store, donor.CanFulfill, tt.canFulfill)
		}
		if !donor.PotentialCredit.Equal(decimal.NewFromInt(50)) {
			t.Errorf("%s potential credit = %s, want 50", tt.store, donor.PotentialCredit)
		}
		if donor.InventoryID == "" {
			t.Errorf("%s donor has no inventory id", tt.store)
		}
	}

	result, err = handler.Handle(ctx, query.SearchRiskPoolQuery{ProductID: "bun", Quantity: 10, ExcludeStoreStaffID: "staff-2"})
	if err != nil {
		t.Fatal(err)
	}
	if result.TotalAvailable != 4 || result.Sufficient {
		t.Errorf("excluding the requester: %+v", result)
	}

	result, err = handler.Handle(ctx, query.SearchRiskPoolQuery{ProductID: "old", Quantity: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Donors) != 0 || result.Sufficient {
		t.Errorf("expired stock offered: %+v", result)
	}

	_, err = handler.Handle(ctx, query.SearchRiskPoolQuery{Quantity: 1})
	wantKind(t, err, domain.ErrValidation, domain.CodeRequiredField)

	_, err = handler.Handle(ctx, query.SearchRiskPoolQuery{ProductID: "no-such-product", Quantity: 1})
	wantKind(t, err, domain.ErrNotFound, domain.CodeProductNotFound)
}

func TestListCreditsTotalsActiveOnly(t *testing.T) {
	store := seed(t)
	handler := query.NewListCreditsHandler(store)

	summary, err := handler.Handle(context.Background(), query.ListCreditsQuery{Actor: storeOne})
	if err != nil {
		t.Fatal(err)
	}
	if len(summary.Credits) != 2 || !summary.TotalRemaining.Equal(decimal.NewFromInt(12)) {
		t.Errorf("unexpected summary %+v", summary)
	}

	summary, err = handler.Handle(context.Background(), query.ListCreditsQuery{Actor: manager, StoreStaffID: "staff-2"})
	if err != nil {
		t.Fatal(err)
	}
	if len(summary.Credits) != 0 || !summary.TotalRemaining.IsZero() {
		t.Errorf("unexpected summary %+v", summary)
	}
}

func TestDisputeQueries(t *testing.T) {
	store := seed(t)
	ctx := context.Background()

	mine, err := query.NewListDisputesHandler(store).Handle(ctx, query.ListDisputesQuery{Actor: storeOne})
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 1 || mine[0].ID != "d-1" {
		t.Errorf("store disputes = %+v", mine)
	}

	rejected, err := query.NewListDisputesHandler(store).Handle(ctx, query.ListDisputesQuery{Actor: manager, Status: domain.DisputeRejected})
	if err != nil {
		t.Fatal(err)
	}
	if len(rejected) != 1 || rejected[0].ID != "d-2" {
		t.Errorf("rejected disputes = %+v", rejected)
	}

	byOrder := query.NewListOrderDisputesHandler(store)
	if got, err := byOrder.Handle(ctx, query.ListOrderDisputesQuery{Actor: storeOne, OrderID: "o-1"}); err != nil || len(got) != 1 {
		t.Errorf("order disputes = %+v, %v", got, err)
	}
	_, err = byOrder.Handle(ctx, query.ListOrderDisputesQuery{Actor: storeOne, OrderID: "o-2"})
	wantKind(t, err, domain.ErrForbidden, domain.CodeAuthzDenied)

	_, err = query.NewGetDisputeHandler(store).Handle(ctx, query.GetDisputeQuery{Actor: storeTwo, DisputeID: "d-1"})
	wantKind(t, err, domain.ErrForbidden, domain.CodeAuthzDenied)
	_, err = query.NewGetDisputeHandler(store).Handle(ctx, query.GetDisputeQuery{Actor: manager, DisputeID: "d-9"})
	wantKind(t, err, domain.ErrNotFound, domain.CodeNotFound)
}

func TestCatalogQueries(t *testing.T) {
	store := seed(t)
	ctx := context.Background()

	active, err := query.NewListProductsHandler(store).Handle(ctx, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 1 || active[0].ID != "bun" {
		t.Errorf("active products = %+v", active)
	}

	get := query.NewGetProductHandler(store)
	details, err := get.Handle(ctx, "bun")
	if err != nil {
		t.Fatal(err)
	}
	if details.Recipe == nil || details.Recipe.ID != "r-bun" {
		t.Errorf("recipe not attached: %+v", details)
	}
	details, err = get.Handle(ctx, "old")
	if err != nil {
		t.Fatal(err)
	}
	if details.Recipe != nil {
		t.Errorf("unexpected recipe %+v", details.Recipe)
	}
	_, err = get.Handle(ctx, "missing")
	wantKind(t, err, domain.ErrNotFound, domain.CodeProductNotFound)
}

func TestStatusTables(t *testing.T) {
	tables := query.ListStatusTables()
	if len(tables.Orders) != 6 || tables.Orders[0].Name != "PENDING" || tables.Orders[5].Name != "CANCELLED" {
		t.Errorf("order table = %+v", tables.Orders)
	}
	if len(tables.Auth) != 8 || len(tables.Authz) != 5 || len(tables.IssueTypes) != 5 {
		t.Errorf("unexpected table sizes %d %d %d", len(tables.Auth), len(tables.Authz), len(tables.IssueTypes))
	}
}
