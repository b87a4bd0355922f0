package command_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tair/central-kitchen/internal/kitchen/domain"
	"github.com/tair/central-kitchen/internal/kitchen/usecase/command"
)

func TestPlanMaterialsAggregatesDemand(t *testing.T) {
	f := newFixture(t)
	f.createOrder(storeOne, command.OrderLine{ProductID: "bun", Quantity: 4}, command.OrderLine{ProductID: "cake", Quantity: 10})
	f.createOrder(storeTwo, command.OrderLine{ProductID: "cake", Quantity: 5})

	result := f.plan()

	if result.Orders != 2 {
		t.Errorf("orders = %d, want 2", result.Orders)
	}
	// flour: 4*1 + 10*0.5 + 5*0.5 = 11.5, sugar: 15*0.2 = 3
	want := []struct {
		material, base, buffer, total string
	}{
		{"flour", "11.5", "1.15", "12.65"},
		{"sugar", "3", "0.3", "3.3"},
	}
	if len(result.Materials) != len(want) {
		t.Fatalf("got %d materials, want %d", len(result.Materials), len(want))
	}
	for i, w := range want {
		m := result.Materials[i]
		if m.MaterialID != w.material || !m.BaseQuantity.Equal(dec(w.base)) ||
			!m.BufferQuantity.Equal(dec(w.buffer)) || !m.TotalQuantity.Equal(dec(w.total)) {
			t.Errorf("material %d = %+v, want %+v", i, m, w)
		}
	}

	var flourBatches []domain.RawBatch
	for _, b := range result.Batches {
		if b.MaterialID == "flour" {
			flourBatches = append(flourBatches, b)
		}
	}
	if len(flourBatches) != 3 {
		t.Fatalf("got %d flour batches, want 3", len(flourBatches))
	}
	sum := decimal.Zero
	for _, b := range flourBatches {
		if b.Quantity.GreaterThan(f.deps.Policy.RawBatchCap) {
			t.Errorf("batch %s exceeds cap: %s", b.BatchNumber, b.Quantity)
		}
		sum = sum.Add(b.Quantity)
	}
	if !sum.Equal(dec("12.65")) {
		t.Errorf("flour batches sum to %s, want 12.65", sum)
	}
	if !hasEvent(f.events, domain.EventPlanningCompleted) {
		t.Errorf("planning.completed not published")
	}
}

func TestPlanMaterialsBatchLayout(t *testing.T) {
	f := newFixture(t)
	f.createOrder(storeOne, command.OrderLine{ProductID: "bun", Quantity: 6})

	result := f.plan()

	if len(result.Supplies) != 1 {
		t.Fatalf("got %d supplies, want 1", len(result.Supplies))
	}
	supplyRow := result.Supplies[0]
	if supplyRow.SupplierID != "sup-a" {
		t.Errorf("supplier = %s, want sup-a", supplyRow.SupplierID)
	}
	today := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	if !supplyRow.SupplyDate.Equal(today) {
		t.Errorf("supply date = %s, want today", supplyRow.SupplyDate)
	}
	for i, b := range result.Batches {
		if !b.BatchDate.Equal(today) || b.QCStatus != domain.QCPending || b.SupplyID != supplyRow.ID {
			t.Errorf("batch %d = %+v", i, b)
		}
		suffix := supplyRow.ID[len(supplyRow.ID)-6:]
		wantNumber := "BATCH-20250301-" + suffix + "-" + string(rune('1'+i))
		if b.BatchNumber != wantNumber {
			t.Errorf("batch number = %s, want %s", b.BatchNumber, wantNumber)
		}
	}
	if !result.TargetDate.Equal(today.AddDate(0, 0, 1)) {
		t.Errorf("target date = %s, want tomorrow", result.TargetDate)
	}
}

func TestPlanMaterialsIgnoresOtherOrders(t *testing.T) {
	f := newFixture(t)
	later, err := command.NewCreateOrderHandler(f.deps).Handle(f.ctx, command.CreateOrderCommand{
		Actor:        storeOne,
		DeliveryDate: "2025-03-05",
		Items:        []command.OrderLine{{ProductID: "bun", Quantity: 3}},
	})
	if err != nil {
		t.Fatal(err)
	}
	cancelled := f.createOrder(storeOne, command.OrderLine{ProductID: "bun", Quantity: 2})
	f.move(storeOne, cancelled.ID, domain.OrderCancelled)

	result := f.plan()
	if result.Orders != 0 || len(result.Supplies) != 0 || len(result.Batches) != 0 {
		t.Fatalf("expected an empty plan, got %+v", result)
	}

	target := later.DeliveryDate
	result, err = command.NewPlanMaterialsHandler(f.deps).Handle(f.ctx, command.PlanMaterialsCommand{TargetDate: &target})
	if err != nil {
		t.Fatal(err)
	}
	if result.Orders != 1 || !result.Materials[0].BaseQuantity.Equal(dec("3")) {
		t.Errorf("explicit target planned %+v", result)
	}
}

func TestPlanMaterialsWithoutSuppliers(t *testing.T) {
	f := newFixtureWithoutSuppliers(t)
	f.createOrder(storeOne, command.OrderLine{ProductID: "bun", Quantity: 1})

	_, err := command.NewPlanMaterialsHandler(f.deps).Handle(f.ctx, command.PlanMaterialsCommand{})
	wantError(t, err, domain.ErrBusinessRule, domain.CodeNotFound)

	batches, _ := f.repos().RawBatches.List(f.ctx, domain.RawBatchFilter{})
	if len(batches) != 0 {
		t.Errorf("batches created without a supplier: %d", len(batches))
	}
}

func TestPlanMaterialsMissingRecipe(t *testing.T) {
	f := newFixture(t)
	if err := f.repos().Products.Create(f.ctx, &domain.Product{ID: "soup", Name: "Soup", Price: dec("8"), Active: true}); err != nil {
		t.Fatal(err)
	}
	f.createOrder(storeOne, command.OrderLine{ProductID: "soup", Quantity: 1})

	_, err := command.NewPlanMaterialsHandler(f.deps).Handle(f.ctx, command.PlanMaterialsCommand{})
	wantError(t, err, domain.ErrNotFound, domain.CodeRecipeNotFound)
}

func TestRawQCFailOrdersReplacement(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(storeOne, command.OrderLine{ProductID: "bun", Quantity: 6})
	plan := f.plan()

	f.rawQC(plan.Batches[1].ID, domain.QCPass)
	failed := f.rawQC(plan.Batches[0].ID, domain.QCFail)

	if failed.Code != domain.CodeQCFailed {
		t.Errorf("code = %s, want QC101", failed.Code)
	}
	if failed.Waste == nil || !failed.Waste.Quantity.Equal(dec("5")) || failed.Waste.BatchID != plan.Batches[0].ID {
		t.Errorf("unexpected waste %+v", failed.Waste)
	}
	if len(failed.Replacements) != 1 {
		t.Fatalf("got %d replacements, want 1", len(failed.Replacements))
	}
	repl := failed.Replacements[0]
	if repl.SupplierID != "sup-b" {
		t.Errorf("replacement supplier = %s, want sup-b", repl.SupplierID)
	}
	if !repl.Quantity.Equal(dec("5")) || repl.ReplacedBatchID == nil || *repl.ReplacedBatchID != plan.Batches[0].ID {
		t.Errorf("unexpected replacement %+v", repl)
	}
	if !strings.HasSuffix(repl.BatchNumber, "-R1") {
		t.Errorf("replacement number %s lacks R marker", repl.BatchNumber)
	}
	if got := f.order(order.ID).Status; got != domain.OrderPending {
		t.Fatalf("order advanced while a replacement is pending: %s", got.Name())
	}
	if !f.kitchenStock("flour").Equal(dec("1.6")) {
		t.Errorf("failed batch reached inventory: flour = %s", f.kitchenStock("flour"))
	}

	passed := f.rawQC(repl.ID, domain.QCPass)
	if passed.OrdersAdvanced != 1 {
		t.Errorf("replacement pass advanced %d orders, want 1", passed.OrdersAdvanced)
	}
	if !f.kitchenStock("flour").Equal(dec("6.6")) {
		t.Errorf("flour = %s, want 6.6", f.kitchenStock("flour"))
	}
}

func TestRawQCFailSplitsLargeReplacement(t *testing.T) {
	f := newFixture(t)
	f.createOrder(storeOne, command.OrderLine{ProductID: "bun", Quantity: 2})
	plan := f.plan()
	f.deps.Policy.RawBatchCap = dec("1")

	failed := f.rawQC(plan.Batches[0].ID, domain.QCFail)

	if len(failed.Replacements) != 3 {
		t.Fatalf("got %d replacements, want 3", len(failed.Replacements))
	}
	sum := decimal.Zero
	for i, b := range failed.Replacements {
		sum = sum.Add(b.Quantity)
		if !strings.HasSuffix(b.BatchNumber, "-R"+string(rune('1'+i))) {
			t.Errorf("replacement %d numbered %s", i, b.BatchNumber)
		}
	}
	if !sum.Equal(dec("2.2")) {
		t.Errorf("replacements sum to %s, want 2.2", sum)
	}
}

func TestRawQCFailWithoutSuppliers(t *testing.T) {
	f := newFixtureWithoutSuppliers(t)
	err := f.store.WithinTx(f.ctx, func(ctx context.Context, repos domain.Repositories) error {
		batch := &domain.RawBatch{
			ID: "raw-1", SupplyID: "supply-1", MaterialID: "flour", MaterialName: "Flour",
			BatchNumber: "BATCH-20250301-PLY001-1", Quantity: dec("2"), Unit: "kg",
			BatchDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), SupplierID: "gone", SupplierName: "Gone Ltd",
			QCStatus: domain.QCPending,
		}
		return repos.RawBatches.Create(ctx, batch)
	})
	if err != nil {
		t.Fatal(err)
	}

	_, err = command.NewRawQCHandler(f.deps).Handle(f.ctx, command.RawQCCommand{Actor: kitchen, BatchID: "raw-1", Result: domain.QCFail})
	wantError(t, err, domain.ErrBusinessRule, domain.CodeNotFound)

	batch, _ := f.repos().RawBatches.FindByID(f.ctx, "raw-1")
	if batch.QCStatus != domain.QCPending {
		t.Errorf("batch status = %s, want PENDING after rollback", batch.QCStatus)
	}
	waste, _ := f.repos().RawBatches.ListWaste(f.ctx, nil)
	if len(waste) != 0 {
		t.Errorf("waste logged without a replacement supplier: %+v", waste)
	}
}

func TestRawQCConcurrentPassesReleaseOrders(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(storeOne, command.OrderLine{ProductID: "cake", Quantity: 1})
	plan := f.plan()
	if len(plan.Batches) != 2 || plan.Batches[0].MaterialID == plan.Batches[1].MaterialID {
		t.Fatalf("want one batch per material, got %+v", plan.Batches)
	}

	handler := command.NewRawQCHandler(f.deps)
	results := make([]*command.RawQCResult, len(plan.Batches))
	errs := make([]error, len(plan.Batches))
	var wg sync.WaitGroup
	for i, batch := range plan.Batches {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			results[i], errs[i] = handler.Handle(f.ctx, command.RawQCCommand{Actor: kitchen, BatchID: id, Result: domain.QCPass})
		}(i, batch.ID)
	}
	wg.Wait()

	advanced := 0
	for i, err := range errs {
		if err != nil {
			t.Fatalf("pass %d: %v", i, err)
		}
		advanced += results[i].OrdersAdvanced
	}
	if advanced != 1 {
		t.Errorf("orders advanced = %d, want exactly 1", advanced)
	}
	if got := f.order(order.ID).Status; got != domain.OrderInProduction {
		t.Errorf("order status = %s, want IN_PRODUCTION", got.Name())
	}
}

func TestRawQCRejects(t *testing.T) {
	f := newFixture(t)
	f.createOrder(storeOne, command.OrderLine{ProductID: "bun", Quantity: 1})
	batch := f.plan().Batches[0]
	f.rawQC(batch.ID, domain.QCPass)
	handler := command.NewRawQCHandler(f.deps)

	tests := []struct {
		name string
		cmd  command.RawQCCommand
		kind error
		code domain.Code
	}{
		{"already processed", command.RawQCCommand{Actor: kitchen, BatchID: batch.ID, Result: domain.QCFail}, domain.ErrConflict, domain.CodeQCAlreadyProcessed},
		{"invalid result", command.RawQCCommand{Actor: kitchen, BatchID: batch.ID, Result: domain.QCPending}, domain.ErrValidation, domain.CodeQCInvalidResult},
		{"unknown batch", command.RawQCCommand{Actor: kitchen, BatchID: "nope", Result: domain.QCPass}, domain.ErrNotFound, domain.CodeBatchNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := handler.Handle(f.ctx, tt.cmd)
			wantError(t, err, tt.kind, tt.code)
		})
	}
	if !f.kitchenStock("flour").Equal(dec("1.1")) {
		t.Errorf("flour = %s, want 1.1", f.kitchenStock("flour"))
	}
}
